package domain

import (
	"errors"
	"fmt"
)

// Таксономия ошибок ядра. Транзиентные сетевые сбои сюда не входят:
// они гасятся внутри транспорта и наверх не поднимаются.
var (
	// ErrConnectionRefused - сервер явно отказал в подключении
	// (close code "policy violation"). Фатально, без повторных попыток.
	ErrConnectionRefused = errors.New("connection refused by server")

	// ErrReplayOnly - источник проигрывает запись; живые интенты не принимаются.
	ErrReplayOnly = errors.New("turn source is replaying a record, live intents are rejected")

	// ErrSourceEnded - партия завершена, источник больше не выдает ходы.
	ErrSourceEnded = errors.New("turn source has ended")
)

// DesyncError - расхождение отпечатков состояния для одного номера хода.
// Ядро ничего не чинит само: это диагностика для хост-приложения.
type DesyncError struct {
	Turn     uint64
	Expected uint64 // авторитарный / архивный отпечаток
	Actual   uint64 // отпечаток, вычисленный этим участником

	// Только для сетевого режима: сколько участников согласны
	// с авторитарным отпечатком. В остальных режимах нули.
	ClientsWithCorrectHash int
	TotalActiveClients     int
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf(
		"desync at turn %d: expected hash %016x, got %016x",
		e.Turn, e.Expected, e.Actual,
	)
}

// SimulationFault - применение хода уронило симуляцию.
// Фатально для сессии: продолжать на испорченном состоянии нельзя,
// это породило бы каскад десинков.
type SimulationFault struct {
	GameID   string
	ClientID string
	Turn     uint64
	Err      error
}

func (e *SimulationFault) Error() string {
	return fmt.Sprintf(
		"simulation fault at turn %d (game %s, client %s): %v",
		e.Turn, e.GameID, e.ClientID, e.Err,
	)
}

func (e *SimulationFault) Unwrap() error {
	return e.Err
}
