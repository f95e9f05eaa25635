package session

import "sync/atomic"

// State - явное состояние сессии участника.
//
// Раньше подобные вещи (токен, "залогинен ли я") жили глобальными
// переменными процесса; здесь они передаются в компоненты при
// конструировании, чтобы ядро тестировалось без внешних заглушек.
//
// Счетчик TurnsSeen - именно сессионное, а не соединенческое состояние:
// он переживает реконнекты и позволяет серверу досылать только хвост.
type State struct {
	GameID      string
	ClientID    string
	AuthToken   string
	Username    string
	Flag        string
	PatternName string

	turnsSeen atomic.Uint64
}

// New создает состояние сессии для одной партии.
func New(gameID, clientID string) *State {
	return &State{GameID: gameID, ClientID: clientID}
}

// TurnsSeen возвращает номер следующего ожидаемого хода
// (= количество уже принятых ходов).
func (s *State) TurnsSeen() uint64 {
	return s.turnsSeen.Load()
}

// AdvanceTurnsSeen двигает счетчик вперед. Назад счетчик не ходит:
// повторно доставленные ходы должны отбрасываться, а не перематывать
// сессию.
func (s *State) AdvanceTurnsSeen(next uint64) {
	for {
		cur := s.turnsSeen.Load()
		if next <= cur {
			return
		}
		if s.turnsSeen.CompareAndSwap(cur, next) {
			return
		}
	}
}
