package engine

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
	"github.com/hmkj6688-bit/TrRainGame/pkg/logger"
)

// localMode - подрежим локального источника, фиксируется при конструировании.
type localMode uint8

const (
	modeSinglePlayer localMode = iota
	modePlayback
)

// LocalTurnSource - внутрипроцессная замена сетевого сервера.
// Выдает ходы с фиксированной каденцией без какой-либо сети, в двух
// подрежимах:
//
//   - одиночная игра: ход N состоит ровно из интентов, накопленных
//     локально с момента хода N-1;
//   - реплей: интенты хода N читаются дословно из архивной записи,
//     новые интенты отвергаются (запись read-only).
//
// Back-pressure тот же, что у сетевого варианта: следующий ход не
// выдается, пока потребитель не подтвердил предыдущий. Реализован
// локально, через счетчики emitted/completed.
type LocalTurnSource struct {
	cfg   Config
	clock Clock
	hooks Hooks

	archiver Archiver // может быть nil; реплей не архивирует ничего

	out  chan domain.Turn
	done chan struct{}

	mode localMode

	mu        sync.Mutex
	buffer    []domain.Intent    // живые интенты (только одиночная игра)
	record    *domain.GameRecord // собираемая запись либо источник реплея
	paused    bool
	ended     bool
	speed     float64
	lastEmit  time.Time
	emitted   uint64 // номер следующего хода к выдаче
	completed uint64 // ходов, подтвержденных драйвером

	endOnce sync.Once
	log     *logrus.Entry
}

// NewSinglePlayerSource создает источник для одиночной игры.
// gameConfig - непрозрачный снимок конфигурации, уходит в запись партии.
func NewSinglePlayerSource(cfg Config, clock Clock, gameID string, gameConfig json.RawMessage, archiver Archiver, hooks Hooks) *LocalTurnSource {
	return &LocalTurnSource{
		cfg:      cfg,
		clock:    clock,
		hooks:    hooks,
		archiver: archiver,
		out:      make(chan domain.Turn, 1),
		done:     make(chan struct{}),
		mode:     modeSinglePlayer,
		speed:    1.0,
		record: &domain.GameRecord{
			GameID:    gameID,
			Config:    gameConfig,
			Turns:     make([]domain.Turn, 0),
			StartUnix: clock.Now().Unix(),
		},
		log: logger.WithComponent("local_source").WithField("game", gameID),
	}
}

// NewReplaySource создает источник, проигрывающий архивную запись.
// Запись read-only на все время сессии.
func NewReplaySource(cfg Config, clock Clock, record *domain.GameRecord, hooks Hooks) *LocalTurnSource {
	return &LocalTurnSource{
		cfg:   cfg,
		clock: clock,
		hooks: hooks,
		out:   make(chan domain.Turn, 1),
		done:  make(chan struct{}),
		mode:  modePlayback,
		speed: 1.0,
		record: record,
		log: logger.WithComponent("local_source").WithFields(logrus.Fields{
			"game": record.GameID,
			"mode": "playback",
		}),
	}
}

// Start запускает цикл выдачи ходов.
func (s *LocalTurnSource) Start() {
	s.mu.Lock()
	s.lastEmit = s.clock.Now()
	s.mu.Unlock()

	go s.run()
}

// run - периодическая проверка дедлайна выдачи.
// Цикл "приостанавливается" (пропускает выдачу), пока потребитель не
// подтвердил предыдущий ход или пока действует пауза.
func (s *LocalTurnSource) run() {
	ticker := s.clock.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	// Канал out закрывает только эта горутина: она единственный
	// отправитель, иначе выдача могла бы попасть в закрытый канал.
	defer close(s.out)

	s.log.Info("Local turn source started")

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C():
			s.tryEmit()
		}
	}
}

// tryEmit выдает очередной ход, если (а) интервал тика истек и
// (б) потребитель подтвердил все выданные ходы.
func (s *LocalTurnSource) tryEmit() {
	s.mu.Lock()

	if s.ended || s.paused {
		s.mu.Unlock()
		return
	}

	// Back-pressure: есть неподтвержденный ход - не выдаем следующий.
	if s.emitted > s.completed {
		s.mu.Unlock()
		return
	}

	// Множитель скорости меняет только тайминг доставки,
	// содержимое и номера ходов от него не зависят.
	interval := time.Duration(float64(s.cfg.TickInterval) / s.speed)
	now := s.clock.Now()
	if now.Sub(s.lastEmit) < interval {
		s.mu.Unlock()
		return
	}

	var turn domain.Turn

	switch s.mode {
	case modePlayback:
		if s.emitted >= uint64(len(s.record.Turns)) {
			// Запись исчерпана: сигнализируем конец вместо новых ходов.
			// Реплей ничего не архивирует - запись уже в архиве.
			s.mu.Unlock()
			s.finish(false)
			return
		}
		turn = s.record.Turns[s.emitted]

	case modeSinglePlayer:
		// Запечатываем накопленный буфер в ход и сразу очищаем его.
		turn = domain.Turn{Number: s.emitted, Intents: s.buffer}
		s.buffer = nil
		s.record.Turns = append(s.record.Turns, turn)
	}

	s.lastEmit = now
	s.emitted++
	s.mu.Unlock()

	// Канал с буфером 1 и back-pressure выше гарантируют, что здесь
	// нет блокировки: неподтвержденный ход может быть только один.
	select {
	case s.out <- turn:
	case <-s.done:
	}
}

// Turns реализует TurnSource.
func (s *LocalTurnSource) Turns() <-chan domain.Turn {
	return s.out
}

// SubmitIntent принимает локальное действие игрока.
// В реплее интенты отвергаются; на паузе - молча отбрасываются
// (пауза - жесткий стоп, а не буферизация).
func (s *LocalTurnSource) SubmitIntent(intent domain.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == modePlayback {
		return domain.ErrReplayOnly
	}
	if s.ended {
		return domain.ErrSourceEnded
	}
	if s.paused {
		s.log.WithField("kind", intent.Kind.String()).Debug("Intent dropped while paused")
		return nil
	}

	s.buffer = append(s.buffer, intent)
	return nil
}

// ReportFingerprint обрабатывает отпечаток состояния после хода.
//
//   - Одиночная игра: отпечаток принимается на веру (независимого
//     авторитета нет) и сохраняется в запись - но только для каждого
//     N-го хода, чтобы ограничить размер архива.
//   - Реплей: отпечаток сравнивается с архивным. Несовпадение -
//     десинк, который возвращается отличимой ошибкой. Отсутствие
//     архивного хеша - не ошибка, ход просто не проверяется.
func (s *LocalTurnSource) ReportFingerprint(turnNumber uint64, hash uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turnNumber >= uint64(len(s.record.Turns)) {
		s.log.WithField("turn", turnNumber).Warn("Fingerprint for unknown turn ignored")
		return nil
	}

	if s.mode == modePlayback {
		switch CompareFingerprints(s.record.Turns[turnNumber].Hash, hash) {
		case HashMismatch:
			err := &domain.DesyncError{
				Turn:     turnNumber,
				Expected: *s.record.Turns[turnNumber].Hash,
				Actual:   hash,
			}
			s.log.WithFields(logrus.Fields{
				"turn":     turnNumber,
				"expected": err.Expected,
				"actual":   err.Actual,
			}).Error("Replay desync detected")
			if s.hooks.OnDesync != nil {
				s.hooks.OnDesync(err)
			}
			return err
		default:
			// Match либо NotChecked - оба штатные.
			return nil
		}
	}

	if s.cfg.HashSampleEvery > 0 && turnNumber%s.cfg.HashSampleEvery == 0 {
		h := hash
		s.record.Turns[turnNumber].Hash = &h
	}
	return nil
}

// TurnComplete реализует TurnSource: снимает back-pressure с выдачи.
func (s *LocalTurnSource) TurnComplete(turnNumber uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turnNumber+1 > s.completed {
		s.completed = turnNumber + 1
	}
}

// Pause останавливает выдачу ходов. Интенты, пришедшие на паузе,
// в будущие ходы не попадают.
func (s *LocalTurnSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.ended {
		return
	}
	s.paused = true
	s.log.Info("Paused")
}

// Resume возобновляет выдачу. Отсчет интервала начинается заново:
// пропущенные за паузу тики не наверстываются.
func (s *LocalTurnSource) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused || s.ended {
		return
	}
	s.paused = false
	s.lastEmit = s.clock.Now()
	s.log.Info("Resumed")
}

// SetSpeed меняет множитель скорости на лету (>0). Влияет только на
// тайминг доставки, никогда - на содержимое или номера ходов.
func (s *LocalTurnSource) SetSpeed(multiplier float64) {
	if multiplier <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = multiplier
}

// End завершает одиночную партию: терминальное состояние, архивирование
// ровно один раз. Для реплея End не имеет смысла (запись уже в архиве).
func (s *LocalTurnSource) End(winner string, stats []domain.PlayerStats) {
	if s.mode != modeSinglePlayer {
		return
	}

	s.mu.Lock()
	s.record.Winner = winner
	s.record.Stats = stats
	s.record.EndUnix = s.clock.Now().Unix()
	s.mu.Unlock()

	s.finish(true)
}

// finish переводит источник в терминальное состояние Ended.
// Наружу (архиватору и хуку) уходит снимок записи, снятый под
// мьютексом: драйвер может досылать отпечатки параллельно с End.
func (s *LocalTurnSource) finish(archive bool) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.ended = true
		rec := s.record.Clone()
		s.mu.Unlock()

		close(s.done)

		if archive && s.archiver != nil {
			if err := s.archiver.Save(rec); err != nil {
				s.log.WithError(err).Error("Failed to archive game record")
			} else {
				s.log.WithField("turns", len(rec.Turns)).Info("Game record archived")
			}
		}

		if s.hooks.OnEnd != nil {
			s.hooks.OnEnd(rec)
		}
	})
}

// Close реализует TurnSource: останавливает источник без архивирования
// итоговой записи (игрок просто вышел).
func (s *LocalTurnSource) Close() error {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.ended = true
		s.mu.Unlock()
		close(s.done)
	})
	return nil
}
