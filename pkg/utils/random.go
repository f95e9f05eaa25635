package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateClientID создает простой уникальный ID клиента (16 символов hex).
// Этого достаточно, чтобы различать участников одной партии; глобально
// уникальные UUID нужны только архиву записей.
func GenerateClientID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random ID: " + err.Error())
	}
	return hex.EncodeToString(b)
}
