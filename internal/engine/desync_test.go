package engine

import "testing"

func TestCompareFingerprints(t *testing.T) {
	archived := uint64(0xDEADBEEF)

	// Нет архивного хеша - ход не проверяется. Это не совпадение
	// и не расхождение, а отдельный третий исход.
	if got := CompareFingerprints(nil, 0xDEADBEEF); got != HashNotChecked {
		t.Errorf("nil archived hash: expected HashNotChecked, got %v", got)
	}

	if got := CompareFingerprints(&archived, 0xDEADBEEF); got != HashMatch {
		t.Errorf("Equal hashes: expected HashMatch, got %v", got)
	}

	if got := CompareFingerprints(&archived, 0xBAD); got != HashMismatch {
		t.Errorf("Different hashes: expected HashMismatch, got %v", got)
	}
}
