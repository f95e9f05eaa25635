package engine

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
	"github.com/hmkj6688-bit/TrRainGame/internal/session"
	"github.com/hmkj6688-bit/TrRainGame/pkg/api"
	"github.com/hmkj6688-bit/TrRainGame/pkg/logger"
)

// Transport - то, что RemoteTurnSource требует от транспортного канала.
// Реализуется internal/network.Channel; тесты подсовывают заглушку.
type Transport interface {
	Connect(onOpen func(), onMessage func(data []byte), onRefused func(err error))
	Send(data []byte)
	Close() error
}

// RemoteTurnSource доставляет ходы от авторитарного сетевого пира и
// передает ему локальные интенты, отпечатки и ping'и.
//
// Упорядочивание: ходы отдаются драйверу по одному, строго по росту
// номеров, и следующий не уходит, пока драйвер не подтвердил предыдущий
// через TurnComplete. Это тот же back-pressure, что и у локального
// варианта, только очередь наполняет сеть.
type RemoteTurnSource struct {
	cfg   Config
	ch    Transport
	sess  *session.State
	hooks Hooks

	archiver Archiver // может быть nil: архив живет на сервере

	out chan domain.Turn

	mu        sync.Mutex
	pending   []domain.Turn // приняты от сети, еще не отданы драйверу
	inFlight  bool          // ход отдан, ждем TurnComplete
	ended     bool
	closed    bool // Close() вызван: поток ходов мертв, архивировать нечего
	finalized bool
	record    *domain.GameRecord

	closeOnce sync.Once
	log       *logrus.Entry
}

// NewRemoteTurnSource собирает сетевой источник ходов.
// Соединение не устанавливается до Start.
func NewRemoteTurnSource(cfg Config, sess *session.State, ch Transport, archiver Archiver, hooks Hooks) *RemoteTurnSource {
	return &RemoteTurnSource{
		cfg:      cfg,
		ch:       ch,
		sess:     sess,
		hooks:    hooks,
		archiver: archiver,
		out:      make(chan domain.Turn, 1),
		record: &domain.GameRecord{
			GameID: sess.GameID,
			Turns:  make([]domain.Turn, 0),
		},
		log: logger.WithComponent("remote_source").WithFields(logrus.Fields{
			"game":   sess.GameID,
			"client": sess.ClientID,
		}),
	}
}

// Start подключается к пиру. Транспорт сам переподключается сколько
// угодно раз; мы лишь заново объявляем о себе в onOpen.
func (r *RemoteTurnSource) Start() {
	r.ch.Connect(r.onOpen, r.onMessage, r.onRefused)
}

// onOpen зовется транспортом после каждого успешного (пере)подключения.
// Объявляем последний обработанный ход, чтобы сервер дослал только
// недостающий хвост, а не всю историю партии.
func (r *RemoteTurnSource) onOpen() {
	join := api.JoinMessage{
		Type:        api.TypeJoin,
		GameID:      r.sess.GameID,
		ClientID:    r.sess.ClientID,
		LastTurn:    r.sess.TurnsSeen(),
		AuthToken:   r.sess.AuthToken,
		Username:    r.sess.Username,
		Flag:        r.sess.Flag,
		PatternName: r.sess.PatternName,
	}

	data, err := json.Marshal(join)
	if err != nil {
		// Join сериализуется из плоских строк; сюда попасть нельзя.
		r.log.WithError(err).Error("Failed to marshal join")
		return
	}

	r.log.WithField("last_turn", join.LastTurn).Info("Joining game")
	r.ch.Send(data)
}

// onMessage разбирает входящее сообщение. Испорченные сообщения
// отбрасываются с логом и не двигают никакие счетчики.
func (r *RemoteTurnSource) onMessage(data []byte) {
	msg, err := api.ParseServerMessage(data)
	if err != nil {
		r.log.WithError(err).Warn("Dropping malformed message")
		return
	}

	switch m := msg.(type) {
	case *api.StartMessage:
		r.handleStart(m)

	case *api.TurnMessage:
		r.ingest(m.Turn)

	case *api.DesyncMessage:
		r.handleDesync(m)

	case *api.WinnerMessage:
		r.handleWinner(m)

	case *api.ErrorMessage:
		r.log.WithFields(logrus.Fields{
			"error":   m.Error,
			"message": m.Message,
		}).Error("Fatal server error")
		if r.hooks.OnFatal != nil {
			r.hooks.OnFatal(fmt.Errorf("server error %s: %s", m.Error, m.Message))
		}

	case *api.PingMessage:
		// Признак жизни; таймер тишины транспорт уже обновил.
	}
}

func (r *RemoteTurnSource) onRefused(err error) {
	if r.hooks.OnFatal != nil {
		r.hooks.OnFatal(err)
	}
}

// handleStart принимает стартовые метаданные и пачку пропущенных ходов
// (поздний вход или переподключение).
func (r *RemoteTurnSource) handleStart(m *api.StartMessage) {
	r.mu.Lock()
	if len(r.record.Config) == 0 {
		r.record.Config = m.GameStartInfo.Config
	}
	if r.record.StartUnix == 0 {
		r.record.StartUnix = time.Now().Unix()
	}
	r.mu.Unlock()

	r.log.WithField("catchup_turns", len(m.Turns)).Info("Game start received")

	for _, t := range m.Turns {
		r.ingest(t)
	}
}

// ingest прогоняет принятый ход через счетчик "сколько ходов видели".
//
//   - Ход с номером ниже счетчика уже обработан: пропускаем
//     (идемпотентный догон после переподключения).
//   - Дыра между счетчиком и номером хода заполняется синтетическими
//     пустыми ходами: симуляция не имеет права перешагнуть тик, даже
//     если сеть доставила ходы не в ногу с wall-clock тиками.
func (r *RemoteTurnSource) ingest(t domain.Turn) {
	r.mu.Lock()

	if r.ended {
		r.mu.Unlock()
		return
	}

	seen := r.sess.TurnsSeen()
	if t.Number < seen {
		r.mu.Unlock()
		return
	}

	for n := seen; n < t.Number; n++ {
		gap := domain.EmptyTurn(n)
		r.pending = append(r.pending, gap)
		r.record.Turns = append(r.record.Turns, gap)
	}
	r.pending = append(r.pending, t)
	r.record.Turns = append(r.record.Turns, t)

	r.sess.AdvanceTurnsSeen(t.Number + 1)

	r.deliverLocked()
	r.mu.Unlock()
}

// deliverLocked отдает драйверу голову очереди, если предыдущий ход
// уже подтвержден. Канал с буфером 1 плюс флаг inFlight гарантируют,
// что отправка не блокирует и порядок не нарушается.
//
// После Close канал out закрыт; любая выдача после этого - паника,
// поэтому closed проверяется раньше всего остального.
func (r *RemoteTurnSource) deliverLocked() {
	if r.closed || r.inFlight || len(r.pending) == 0 {
		return
	}

	next := r.pending[0]
	r.pending = r.pending[1:]
	r.inFlight = true
	r.out <- next
}

// Turns реализует TurnSource.
func (r *RemoteTurnSource) Turns() <-chan domain.Turn {
	return r.out
}

// SubmitIntent пересылает локальное действие игрока авторитарному пиру
// для включения в будущий ход.
func (r *RemoteTurnSource) SubmitIntent(intent domain.Intent) error {
	r.mu.Lock()
	ended := r.ended
	r.mu.Unlock()
	if ended {
		return domain.ErrSourceEnded
	}

	data, err := json.Marshal(api.IntentMessage{Type: api.TypeIntent, Intent: intent})
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}

	r.ch.Send(data)
	return nil
}

// ReportFingerprint отправляет отпечаток на сервер для сверки между
// участниками. Локально сэмплированный хеш подшивается в запись,
// чтобы клиентская копия партии тоже годилась для реплея.
func (r *RemoteTurnSource) ReportFingerprint(turnNumber uint64, hash uint64) error {
	data, err := json.Marshal(api.HashMessage{
		Type:       api.TypeHash,
		TurnNumber: turnNumber,
		Hash:       hash,
	})
	if err != nil {
		return fmt.Errorf("marshal hash report: %w", err)
	}
	r.ch.Send(data)

	r.mu.Lock()
	if r.cfg.HashSampleEvery > 0 && turnNumber%r.cfg.HashSampleEvery == 0 &&
		turnNumber < uint64(len(r.record.Turns)) {
		h := hash
		r.record.Turns[turnNumber].Hash = &h
	}
	r.mu.Unlock()

	return nil
}

// TurnComplete реализует TurnSource: подтверждение драйвера снимает
// back-pressure, и очередь отдает следующий ход.
func (r *RemoteTurnSource) TurnComplete(turnNumber uint64) {
	r.mu.Lock()
	r.inFlight = false
	r.deliverLocked()
	finished := r.ended && !r.inFlight && len(r.pending) == 0
	r.mu.Unlock()

	if finished {
		r.finalize()
	}
}

// handleDesync транслирует авторитарное уведомление о расхождении.
// Ядро ничего не чинит: решение (например, показать диалог игроку)
// принимает хост-приложение.
func (r *RemoteTurnSource) handleDesync(m *api.DesyncMessage) {
	err := &domain.DesyncError{
		Turn:                   m.Turn,
		ClientsWithCorrectHash: m.ClientsWithCorrectHash,
		TotalActiveClients:     m.TotalActiveClients,
	}
	if m.CorrectHash != nil {
		err.Expected = *m.CorrectHash
	}
	if m.YourHash != nil {
		err.Actual = *m.YourHash
	}

	r.log.WithFields(logrus.Fields{
		"turn":            m.Turn,
		"clients_correct": m.ClientsWithCorrectHash,
		"clients_total":   m.TotalActiveClients,
	}).Error("Server reported desync")

	if r.hooks.OnDesync != nil {
		r.hooks.OnDesync(err)
	}
}

// handleWinner - авторитарный конец партии. Запись финализируется
// сразу, но архивирование откладывается до того, как драйвер дожует
// очередь: иначе хвостовые отпечатки не попали бы в архив, а Save
// читал бы ходы параллельно с их досэмплированием.
func (r *RemoteTurnSource) handleWinner(m *api.WinnerMessage) {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return
	}
	r.ended = true
	r.record.Winner = m.Winner
	r.record.Stats = m.AllPlayersStats
	r.record.EndUnix = time.Now().Unix()
	finished := !r.inFlight && len(r.pending) == 0
	r.mu.Unlock()

	r.log.WithField("winner", m.Winner).Info("Game over")

	if finished {
		r.finalize()
	}
}

// finalize архивирует запись ровно один раз и закрывает поток ходов.
// Архивируется снимок, снятый под мьютексом: после finalize живая
// запись никому наружу не отдается.
func (r *RemoteTurnSource) finalize() {
	r.mu.Lock()
	if r.finalized || r.closed {
		r.mu.Unlock()
		r.closeOut()
		return
	}
	r.finalized = true
	rec := r.record.Clone()
	r.mu.Unlock()

	if r.archiver != nil {
		if err := r.archiver.Save(rec); err != nil {
			r.log.WithError(err).Error("Failed to archive game record")
		}
	}
	if r.hooks.OnEnd != nil {
		r.hooks.OnEnd(rec)
	}

	r.closeOut()
}

func (r *RemoteTurnSource) closeOut() {
	r.closeOnce.Do(func() {
		close(r.out)
	})
}

// Close реализует TurnSource: рвет соединение и закрывает поток ходов
// без архивирования (игрок просто вышел). Флаг closed гасит дальнейшую
// выдачу: драйвер может подтвердить последний ход уже после Close.
func (r *RemoteTurnSource) Close() error {
	r.mu.Lock()
	r.ended = true
	r.closed = true
	r.mu.Unlock()

	err := r.ch.Close()
	r.closeOut()
	return err
}
