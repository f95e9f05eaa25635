package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
)

const (
	MagicHeader string = `TRGR` // 4 байта
	Version1    uint32 = 1
)

// RecordFileHeader — точное представление заголовка файла в памяти.
// binary.Write умеет писать это целиком: тут нет слайсов и строк,
// только массивы и числа. Строки и блобы идут следом с длиной-префиксом.
type RecordFileHeader struct {
	Magic     [4]byte // 4 байта
	Version   uint32  // 4 байта
	StartUnix int64   // 8 байт
	EndUnix   int64   // 8 байт
	TurnCount uint32  // 4 байта
}

// TurnHeader — заголовок каждой записи хода.
type TurnHeader struct {
	Number      uint32 // 4
	IntentCount uint16 // 2
	HasHash     uint8  // 1
	Reserved    uint8  // 1, выравнивание
	Hash        uint64 // 8; мусор, если HasHash == 0
}

// IntentHeader — заголовок каждого интента внутри хода.
type IntentHeader struct {
	Kind       uint8  // 1
	ClientLen  uint8  // 1
	PayloadLen uint16 // 2
}

// FileArchiver пишет/читает записи партий в бинарные .trgr файлы.
type FileArchiver struct {
	SaveDir string
}

func NewFileArchiver(dir string) *FileArchiver {
	// Создаем папку если нет
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		_ = os.MkdirAll(dir, 0755)
	}
	return &FileArchiver{SaveDir: dir}
}

// Save архивирует полную запись партии. Вызывается один раз, после
// авторитарного конца партии.
func (a *FileArchiver) Save(rec *domain.GameRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	filename := fmt.Sprintf("record_%s_%d.trgr", rec.GameID, rec.StartUnix)
	path := filepath.Join(a.SaveDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return writeBinary(f, rec)
}

func writeBinary(w io.Writer, rec *domain.GameRecord) error {
	// 1. ГЛОБАЛЬНЫЙ ЗАГОЛОВОК одной командой
	header := RecordFileHeader{
		Version:   Version1,
		StartUnix: rec.StartUnix,
		EndUnix:   rec.EndUnix,
		TurnCount: uint32(len(rec.Turns)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// 2. Строки и блобы с длиной-префиксом
	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	for _, blob := range [][]byte{
		[]byte(rec.ID),
		[]byte(rec.GameID),
		[]byte(rec.Winner),
		rec.Config,
		stats,
	} {
		if err := writeBlob(w, blob); err != nil {
			return err
		}
	}

	// 3. Ходы
	for _, t := range rec.Turns {
		if len(t.Intents) > 65535 {
			return fmt.Errorf("turn %d has too many intents: %d", t.Number, len(t.Intents))
		}

		th := TurnHeader{
			Number:      uint32(t.Number),
			IntentCount: uint16(len(t.Intents)),
		}
		if t.Hash != nil {
			th.HasHash = 1
			th.Hash = *t.Hash
		}

		if err := binary.Write(w, binary.LittleEndian, &th); err != nil {
			return err
		}

		for _, in := range t.Intents {
			clientBytes := []byte(in.ClientID)
			if len(clientBytes) > 255 {
				return fmt.Errorf("client id too long: %d", len(clientBytes))
			}
			if len(in.Payload) > 65535 {
				return fmt.Errorf("intent payload too long: %d", len(in.Payload))
			}

			ih := IntentHeader{
				Kind:       uint8(in.Kind),
				ClientLen:  uint8(len(clientBytes)),
				PayloadLen: uint16(len(in.Payload)),
			}
			if err := binary.Write(w, binary.LittleEndian, &ih); err != nil {
				return err
			}
			if _, err := w.Write(clientBytes); err != nil {
				return err
			}
			// Payload уходит байт-в-байт: перестановка или перекодировка
			// изменила бы исход симуляции при реплее.
			if len(in.Payload) > 0 {
				if _, err := w.Write(in.Payload); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// writeBlob пишет блоб переменной длины с uint32-префиксом.
func writeBlob(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	if len(b) > 0 {
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}
