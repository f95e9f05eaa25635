package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
)

// Load читает запись партии из .trgr файла.
// Результат используется как вход ReplaySource и read-only на всю
// сессию реплея.
func (a *FileArchiver) Load(path string) (*domain.GameRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readBinary(f)
}

func readBinary(r io.Reader) (*domain.GameRecord, error) {
	// 1. Заголовок целиком
	var header RecordFileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Валидация
	if string(header.Magic[:]) != MagicHeader {
		return nil, fmt.Errorf("invalid magic")
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, Version1)
	}

	rec := &domain.GameRecord{
		StartUnix: header.StartUnix,
		EndUnix:   header.EndUnix,
		Turns:     make([]domain.Turn, header.TurnCount),
	}

	// 2. Блобы в том же порядке, что и при записи
	id, err := readBlob(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read record id: %w", err)
	}
	rec.ID = string(id)

	gameID, err := readBlob(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read game id: %w", err)
	}
	rec.GameID = string(gameID)

	winner, err := readBlob(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read winner: %w", err)
	}
	rec.Winner = string(winner)

	config, err := readBlob(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if len(config) > 0 {
		rec.Config = json.RawMessage(config)
	}

	stats, err := readBlob(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &rec.Stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
		}
	}

	// 3. Ходы
	for i := 0; i < int(header.TurnCount); i++ {
		var th TurnHeader
		if err := binary.Read(r, binary.LittleEndian, &th); err != nil {
			return nil, err
		}

		t := domain.Turn{Number: uint64(th.Number)}
		if th.HasHash == 1 {
			h := th.Hash
			t.Hash = &h
		}

		for j := 0; j < int(th.IntentCount); j++ {
			var ih IntentHeader
			if err := binary.Read(r, binary.LittleEndian, &ih); err != nil {
				return nil, err
			}

			in := domain.Intent{Kind: domain.IntentKind(ih.Kind)}

			clientBuf := make([]byte, ih.ClientLen)
			if _, err := io.ReadFull(r, clientBuf); err != nil {
				return nil, err
			}
			in.ClientID = string(clientBuf)

			if ih.PayloadLen > 0 {
				in.Payload = make([]byte, ih.PayloadLen)
				if _, err := io.ReadFull(r, in.Payload); err != nil {
					return nil, err
				}
			}

			t.Intents = append(t.Intents, in)
		}

		rec.Turns[i] = t
	}

	return rec, nil
}

// readBlob читает блоб с uint32-префиксом длины.
func readBlob(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
