package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
	"github.com/hmkj6688-bit/TrRainGame/pkg/logger"
)

// Simulation - непрозрачный детерминированный движок правил.
// Контракт: при одинаковой последовательности ходов ApplyTurn дает
// одинаковое состояние у всех участников, а Fingerprint - чистая
// функция этого состояния.
type Simulation interface {
	ApplyTurn(t domain.Turn) error
	Fingerprint() uint64
}

// SimulationDriver применяет ходы к симуляции строго последовательно.
//
// Цикл: принять ход N -> применить -> вычислить отпечаток -> отправить
// отпечаток источнику -> подтвердить TurnComplete(N). Подтверждение и
// есть точка синхронизации: источник не выдаст N+1 раньше.
type SimulationDriver struct {
	source TurnSource
	sim    Simulation

	gameID   string
	clientID string

	next atomic.Uint64 // ожидаемый номер следующего хода
	log  *logrus.Entry
}

// NewDriver собирает driver для одной сессии.
func NewDriver(source TurnSource, sim Simulation, gameID, clientID string) *SimulationDriver {
	return &SimulationDriver{
		source:   source,
		sim:      sim,
		gameID:   gameID,
		clientID: clientID,
		log: logger.WithComponent("driver").WithFields(logrus.Fields{
			"game":   gameID,
			"client": clientID,
		}),
	}
}

// Run крутит цикл потребления ходов до конца партии, отмены контекста
// или структурной ошибки.
//
// Возвращает:
//   - nil, если источник закрыл поток (партия/запись закончилась);
//   - *domain.SimulationFault, если применение хода уронило симуляцию;
//   - *domain.DesyncError, если источник (режим реплея) отверг отпечаток;
//   - ctx.Err() при отмене.
//
// После любой ошибки продолжать нельзя: испорченное состояние породило бы
// каскад десинков, поэтому driver останавливается полностью.
func (d *SimulationDriver) Run(ctx context.Context) error {
	d.log.Info("Simulation driver started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case t, ok := <-d.source.Turns():
			if !ok {
				d.log.WithField("turns_applied", d.next.Load()).Info("Turn stream ended")
				return nil
			}

			// Источник обязан выдавать ходы без пропусков; дыра здесь -
			// это сломанный источник, применять такой ход нельзя.
			if want := d.next.Load(); t.Number != want {
				fault := &domain.SimulationFault{
					GameID:   d.gameID,
					ClientID: d.clientID,
					Turn:     t.Number,
					Err:      errTurnGap(want, t.Number),
				}
				d.log.WithError(fault).Error("Turn ordering violated")
				return fault
			}

			if err := d.sim.ApplyTurn(t); err != nil {
				fault := &domain.SimulationFault{
					GameID:   d.gameID,
					ClientID: d.clientID,
					Turn:     t.Number,
					Err:      err,
				}
				d.log.WithError(err).WithField("turn", t.Number).Error("Simulation fault, halting")
				return fault
			}

			hash := d.sim.Fingerprint()
			if err := d.source.ReportFingerprint(t.Number, hash); err != nil {
				// Единственная структурная ошибка этого пути - десинк
				// при реплее; отдаем её хосту как есть.
				d.log.WithError(err).WithField("turn", t.Number).Error("Fingerprint rejected")
				return err
			}

			d.source.TurnComplete(t.Number)
			d.next.Add(1)
		}
	}
}

// TurnsApplied возвращает количество полностью примененных ходов.
func (d *SimulationDriver) TurnsApplied() uint64 {
	return d.next.Load()
}

func errTurnGap(want, got uint64) error {
	return fmt.Errorf("turn source emitted turn %d, expected %d", got, want)
}
