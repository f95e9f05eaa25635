package engine

import "time"

// Clock абстрагирует время для цикла выдачи ходов.
// Боевой код использует SystemClock; тесты подсовывают ручные часы
// и крутят виртуальное время вместо wall-clock ожиданий.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker - минимальный срез time.Ticker, достаточный циклу.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

// SystemClock возвращает часы, завязанные на реальное время.
func SystemClock() Clock {
	return systemClock{}
}
