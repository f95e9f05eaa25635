package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
)

// SQLiteStore - долговременный архив записей партий поверх SQLite.
//
// Частичная запись (только лобби) может быть сохранена до конца партии
// для восстановления после краха; полная запись её замещает и пишется
// ровно один раз.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore открывает (или создает) базу архива.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL ради конкурентных чтений во время записи партии
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close закрывает соединение с базой.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate накатывает схему. Идемпотентно.
func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL UNIQUE,
			config_json TEXT NOT NULL DEFAULT '{}',
			start_unix INTEGER NOT NULL DEFAULT 0,
			end_unix INTEGER NOT NULL DEFAULT 0,
			winner TEXT NOT NULL DEFAULT '',
			stats_json TEXT NOT NULL DEFAULT '[]',
			turn_count INTEGER NOT NULL DEFAULT 0,
			complete INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			game_id TEXT NOT NULL,
			number INTEGER NOT NULL,
			intents_json TEXT NOT NULL DEFAULT '[]',
			hash INTEGER,
			PRIMARY KEY (game_id, number),
			FOREIGN KEY (game_id) REFERENCES games(game_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_end ON games(end_unix DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_game ON turns(game_id, number)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// SaveLobby сохраняет частичную запись (до начала/конца партии).
// Годится для восстановления после краха; Save её замещает.
func (s *SQLiteStore) SaveLobby(gameID string, config json.RawMessage, startUnix int64) error {
	cfg := string(config)
	if cfg == "" {
		cfg = "{}"
	}

	_, err := s.db.Exec(`
		INSERT INTO games (id, game_id, config_json, start_unix, complete)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT(game_id) DO UPDATE SET
			config_json = excluded.config_json,
			start_unix = excluded.start_unix
		WHERE games.complete = 0`,
		uuid.NewString(), gameID, cfg, startUnix,
	)
	if err != nil {
		return fmt.Errorf("failed to save lobby record: %w", err)
	}
	return nil
}

// Save пишет полную запись партии. Транзакционно замещает частичную
// запись лобби, если та была. Повторный Save той же партии перепишет
// её теми же данными - запись после конца партии неизменна.
func (s *SQLiteStore) Save(rec *domain.GameRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	cfg := string(rec.Config)
	if cfg == "" {
		cfg = "{}"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO games (id, game_id, config_json, start_unix, end_unix, winner, stats_json, turn_count, complete)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(game_id) DO UPDATE SET
			config_json = excluded.config_json,
			start_unix = excluded.start_unix,
			end_unix = excluded.end_unix,
			winner = excluded.winner,
			stats_json = excluded.stats_json,
			turn_count = excluded.turn_count,
			complete = 1`,
		rec.ID, rec.GameID, cfg, rec.StartUnix, rec.EndUnix, rec.Winner, string(stats), len(rec.Turns),
	); err != nil {
		return fmt.Errorf("failed to save game row: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM turns WHERE game_id = ?`, rec.GameID); err != nil {
		return fmt.Errorf("failed to clear turns: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO turns (game_id, number, intents_json, hash) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare turn insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range rec.Turns {
		intents, err := json.Marshal(t.Intents)
		if err != nil {
			return fmt.Errorf("failed to marshal intents of turn %d: %w", t.Number, err)
		}

		var hash any
		if t.Hash != nil {
			// SQLite INTEGER подписанный; храним биты как int64.
			hash = int64(*t.Hash)
		}

		if _, err := stmt.Exec(rec.GameID, t.Number, string(intents), hash); err != nil {
			return fmt.Errorf("failed to insert turn %d: %w", t.Number, err)
		}
	}

	return tx.Commit()
}

// LoadRecord читает полную запись партии для реплея.
func (s *SQLiteStore) LoadRecord(gameID string) (*domain.GameRecord, error) {
	rec := &domain.GameRecord{GameID: gameID}

	var cfg, stats string
	err := s.db.QueryRow(`
		SELECT id, config_json, start_unix, end_unix, winner, stats_json
		FROM games WHERE game_id = ?`, gameID,
	).Scan(&rec.ID, &cfg, &rec.StartUnix, &rec.EndUnix, &rec.Winner, &stats)
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}

	if cfg != "" && cfg != "{}" {
		rec.Config = json.RawMessage(cfg)
	}
	if err := json.Unmarshal([]byte(stats), &rec.Stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT number, intents_json, hash
		FROM turns WHERE game_id = ? ORDER BY number ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.Turn
		var intents string
		var hash sql.NullInt64

		if err := rows.Scan(&t.Number, &intents, &hash); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(intents), &t.Intents); err != nil {
			return nil, fmt.Errorf("failed to unmarshal intents of turn %d: %w", t.Number, err)
		}
		if hash.Valid {
			h := uint64(hash.Int64)
			t.Hash = &h
		}

		rec.Turns = append(rec.Turns, t)
	}

	return rec, rows.Err()
}

// GameSummary - строка листинга архива.
type GameSummary struct {
	GameID    string
	Winner    string
	TurnCount int
	StartUnix int64
	EndUnix   int64
	Complete  bool
}

// ListGames возвращает последние партии архива, свежие первыми.
func (s *SQLiteStore) ListGames(limit int) ([]GameSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT game_id, winner, turn_count, start_unix, end_unix, complete
		FROM games ORDER BY end_unix DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		var g GameSummary
		var complete int
		if err := rows.Scan(&g.GameID, &g.Winner, &g.TurnCount, &g.StartUnix, &g.EndUnix, &complete); err != nil {
			return nil, err
		}
		g.Complete = complete == 1
		out = append(out, g)
	}

	return out, rows.Err()
}
