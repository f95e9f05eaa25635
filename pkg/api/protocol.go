package api

import (
	"encoding/json"
	"fmt"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
)

// MessageType - дискриминатор wire-сообщений.
type MessageType string

const (
	// Клиент -> Сервер
	TypeJoin   MessageType = "join"
	TypeIntent MessageType = "intent"
	TypeHash   MessageType = "hash"
	TypePing   MessageType = "ping"

	// Сервер -> Клиент
	TypeStart  MessageType = "start"
	TypeTurn   MessageType = "turn"
	TypeDesync MessageType = "desync"
	TypeWinner MessageType = "winner"
	TypeError  MessageType = "error"
)

// --- КЛИЕНТ -> СЕРВЕР ---

// JoinMessage отправляется участником при (пере)входе в партию.
// LastTurn - номер последнего полностью обработанного хода, чтобы сервер
// дослал только недостающий хвост, а не всю историю.
type JoinMessage struct {
	Type        MessageType `json:"type"`
	GameID      string      `json:"gameID"`
	ClientID    string      `json:"clientID"`
	LastTurn    uint64      `json:"lastTurn"`
	AuthToken   string      `json:"authToken,omitempty"`
	Username    string      `json:"username,omitempty"`
	Flag        string      `json:"flag,omitempty"`
	PatternName string      `json:"patternName,omitempty"`
}

// IntentMessage - одно действие игрока, отправленное на включение
// в будущий ход.
type IntentMessage struct {
	Type   MessageType   `json:"type"`
	Intent domain.Intent `json:"intent"`
}

// HashMessage - отчет участника об отпечатке состояния после хода.
type HashMessage struct {
	Type       MessageType `json:"type"`
	TurnNumber uint64      `json:"turnNumber"`
	Hash       uint64      `json:"hash"`
}

// PingMessage - heartbeat. Полезной нагрузки нет.
type PingMessage struct {
	Type MessageType `json:"type"`
}

// --- СЕРВЕР -> КЛИЕНТ ---

// GameStartInfo - стартовые метаданные партии.
// Config - непрозрачный снимок конфигурации для движка правил.
type GameStartInfo struct {
	GameID string          `json:"gameID"`
	Config json.RawMessage `json:"config,omitempty"`
}

// StartMessage приходит один раз после join и содержит недостающие
// участнику ходы (догон) плюс стартовые метаданные.
type StartMessage struct {
	Type          MessageType   `json:"type"`
	GameStartInfo GameStartInfo `json:"gameStartInfo"`
	Turns         []domain.Turn `json:"turns"`
}

// TurnMessage - один закоммиченный ход.
type TurnMessage struct {
	Type MessageType `json:"type"`
	Turn domain.Turn `json:"turn"`
}

// DesyncMessage - авторитарное уведомление об обнаруженном расхождении.
type DesyncMessage struct {
	Type                   MessageType `json:"type"`
	Turn                   uint64      `json:"turn"`
	CorrectHash            *uint64     `json:"correctHash"`
	YourHash               *uint64     `json:"yourHash"`
	ClientsWithCorrectHash int         `json:"clientsWithCorrectHash"`
	TotalActiveClients     int         `json:"totalActiveClients"`
}

// WinnerMessage - терминальный исход партии.
type WinnerMessage struct {
	Type            MessageType          `json:"type"`
	Winner          string               `json:"winner,omitempty"`
	AllPlayersStats []domain.PlayerStats `json:"allPlayersStats,omitempty"`
}

// ErrorMessage - фатальное, невосстановимое состояние.
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
}

// envelope - минимальный конверт для первого прохода парсинга.
type envelope struct {
	Type MessageType `json:"type"`
}

// ParseServerMessage декодирует входящее сообщение от авторитарного пира
// в конкретный типизированный struct.
//
// Любая ошибка здесь означает "сообщение испорчено": вызывающий обязан
// отбросить его и залогировать, не роняя driver и не трогая счетчики ходов.
func ParseServerMessage(data []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed message envelope: %w", err)
	}

	switch env.Type {
	case TypeStart:
		var m StartMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed start message: %w", err)
		}
		return &m, nil

	case TypeTurn:
		var m TurnMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed turn message: %w", err)
		}
		return &m, nil

	case TypeDesync:
		var m DesyncMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed desync message: %w", err)
		}
		return &m, nil

	case TypeWinner:
		var m WinnerMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed winner message: %w", err)
		}
		return &m, nil

	case TypeError:
		var m ErrorMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed error message: %w", err)
		}
		return &m, nil

	case TypePing:
		// Сервер может слать свой ping; для нас это просто признак жизни.
		return &PingMessage{Type: TypePing}, nil

	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}

// Ping возвращает сериализованный heartbeat.
// Формат фиксирован, поэтому ошибки Marshal тут быть не может.
func Ping() []byte {
	data, _ := json.Marshal(PingMessage{Type: TypePing})
	return data
}
