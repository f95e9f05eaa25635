package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"flag"
	"hash/fnv"
	"os"
	"time"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
	"github.com/hmkj6688-bit/TrRainGame/internal/engine"
	"github.com/hmkj6688-bit/TrRainGame/internal/infrastructure/storage"
	"github.com/hmkj6688-bit/TrRainGame/internal/version"
	"github.com/hmkj6688-bit/TrRainGame/pkg/api"
	"github.com/hmkj6688-bit/TrRainGame/pkg/logger"
	"github.com/hmkj6688-bit/TrRainGame/pkg/utils"
)

func init() {
	logger.Init()
}

// demoSim - детерминированная симуляция-заглушка: вместо правил игры
// она сворачивает содержимое каждого хода в бегущий FNV-хеш. Этого
// достаточно, чтобы прогнать ядро целиком: одинаковая последовательность
// ходов всегда дает одинаковые отпечатки.
type demoSim struct {
	state uint64
}

func (s *demoSim) ApplyTurn(t domain.Turn) error {
	h := fnv.New64a()

	var num [8]byte
	binary.LittleEndian.PutUint64(num[:], t.Number)
	h.Write(num[:])

	for _, in := range t.Intents {
		h.Write([]byte{byte(in.Kind)})
		h.Write([]byte(in.ClientID))
		h.Write(in.Payload)
	}

	s.state = s.state*1099511628211 ^ h.Sum64()
	return nil
}

func (s *demoSim) Fingerprint() uint64 {
	return s.state
}

func main() {
	// 1. Парсинг конфигурации
	var turns int
	var intervalMs int
	var dir string
	var replayPath string
	var speed float64
	flag.IntVar(&turns, "turns", 50, "Number of turns to run before ending the game")
	flag.IntVar(&intervalMs, "interval", 20, "Tick interval in milliseconds")
	flag.StringVar(&dir, "dir", "records", "Directory for .trgr game records")
	flag.StringVar(&replayPath, "replay", "", "Path to .trgr record to replay and verify")
	flag.Float64Var(&speed, "speed", 1.0, "Replay speed multiplier")
	flag.Parse()

	logger.Log.Info("Starting loopback host...")
	logger.Log.Info(version.String())

	cfg := engine.NewConfig()
	cfg.TickInterval = time.Duration(intervalMs) * time.Millisecond
	// Для демо-прогона хешируем каждый ход: запись короткая, зато
	// реплей проверяет все ходы до единого.
	cfg.HashSampleEvery = 1

	archiver := storage.NewFileArchiver(dir)

	// РЕЖИМ РЕПЛЕЯ
	if replayPath != "" {
		logger.Log.Info("💿 Mode: Replay Verification")
		if err := runReplay(cfg, archiver, replayPath, speed); err != nil {
			logger.Log.WithError(err).Error("Replay failed")
			os.Exit(1)
		}
		logger.Log.Info("Replay verified: all sampled fingerprints match.")
		return
	}

	// РЕЖИМ ОДИНОЧНОЙ ПАРТИИ
	logger.Log.Info("🎮 Mode: Single-Player Loopback")
	if err := runSinglePlayer(cfg, archiver, turns); err != nil {
		logger.Log.WithError(err).Error("Loopback run failed")
		os.Exit(1)
	}
	logger.Log.Info("Done.")
}

func runSinglePlayer(cfg engine.Config, archiver engine.Archiver, turns int) error {
	clientID := utils.GenerateClientID()
	gameID := "loopback-" + clientID

	gameConfig, _ := json.Marshal(map[string]any{"mode": "loopback", "map": "demo"})

	source := engine.NewSinglePlayerSource(cfg, engine.SystemClock(), gameID, gameConfig, archiver, engine.Hooks{})
	driver := engine.NewDriver(source, &demoSim{}, gameID, clientID)

	source.Start()

	// Подкидываем интенты, пока driver крутит ходы
	go feedIntents(source, clientID, cfg.TickInterval)

	go func() {
		for {
			if driver.TurnsApplied() >= uint64(turns) {
				source.End("demo", []domain.PlayerStats{{
					ClientID: clientID,
					Username: "loopback",
					Alive:    true,
				}})
				return
			}
			time.Sleep(cfg.TickInterval / 2)
		}
	}()

	return driver.Run(context.Background())
}

// feedIntents имитирует игрока: spawn, затем атаки.
func feedIntents(source engine.TurnSource, clientID string, interval time.Duration) {
	spawn, _ := json.Marshal(api.SpawnPayload{X: 10, Y: 10})
	_ = source.SubmitIntent(domain.Intent{
		Kind:     domain.IntentSpawn,
		ClientID: clientID,
		Payload:  spawn,
	})

	for i := 0; ; i++ {
		time.Sleep(interval * 3)
		attack, _ := json.Marshal(api.AttackPayload{Troops: uint64(100 + i)})
		if err := source.SubmitIntent(domain.Intent{
			Kind:     domain.IntentAttack,
			ClientID: clientID,
			Payload:  attack,
		}); err != nil {
			// Партия закончилась
			return
		}
	}
}

func runReplay(cfg engine.Config, archiver *storage.FileArchiver, path string, speed float64) error {
	rec, err := archiver.Load(path)
	if err != nil {
		return err
	}

	logger.Log.WithField("turns", len(rec.Turns)).Info("Record loaded")

	source := engine.NewReplaySource(cfg, engine.SystemClock(), rec, engine.Hooks{})
	source.SetSpeed(speed)
	driver := engine.NewDriver(source, &demoSim{}, rec.GameID, "replay")

	source.Start()

	err = driver.Run(context.Background())

	var desync *domain.DesyncError
	if errors.As(err, &desync) {
		logger.Log.WithField("turn", desync.Turn).Error("DESYNC: record does not reproduce")
	}
	return err
}
