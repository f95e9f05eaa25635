package engine

import "time"

// Config хранит параметры ядра синхронизации.
type Config struct {
	// TickInterval - базовая длительность одного хода.
	// Реальная длительность = TickInterval / speed (см. SetSpeed).
	TickInterval time.Duration

	// PollInterval - как часто локальный цикл проверяет дедлайн выдачи.
	// Должен быть заметно меньше TickInterval, иначе ходы будут дрожать.
	PollInterval time.Duration

	// HashSampleEvery - каждый N-й ход сохраняет свой отпечаток в архив.
	// Это ограничитель размера записи, а не требование корректности:
	// ходы без архивного хеша при реплее считаются "не проверенными".
	HashSampleEvery uint64
}

// NewConfig создает конфиг по умолчанию: 10 ходов в секунду,
// проверка дедлайна каждые 5мс, хеш каждого сотого хода.
func NewConfig() Config {
	return Config{
		TickInterval:    100 * time.Millisecond,
		PollInterval:    5 * time.Millisecond,
		HashSampleEvery: 100,
	}
}
