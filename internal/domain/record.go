package domain

import "encoding/json"

// PlayerStats - итоговая сводка по одному игроку.
// Приходит в сообщении winner и уходит в архив как есть.
type PlayerStats struct {
	ClientID        string `json:"clientID"`
	Username        string `json:"username"`
	Gold            uint64 `json:"gold"`
	Troops          uint64 `json:"troops"`
	TilesOwned      uint32 `json:"tilesOwned"`
	UnitsBuilt      uint32 `json:"unitsBuilt"`
	AttacksLaunched uint32 `json:"attacksLaunched"`
	Alive           bool   `json:"alive"`
}

// GameRecord - полная запись партии: всё, что нужно, чтобы проиграть
// её заново через ReplaySource и получить те же отпечатки.
//
// Инвариант: полная запись пишется ровно один раз, после авторитарного
// конца партии. Частичная запись (только лобби) может быть сохранена
// раньше для восстановления после краха и замещается полной.
type GameRecord struct {
	// ID - идентификатор записи в архиве (UUID). Выдается архиватором
	// при первом сохранении; до этого пустой.
	ID string `json:"id,omitempty"`

	// GameID - идентификатор партии, общий для всех участников.
	GameID string `json:"gameID"`

	// Config - снимок конфигурации партии. Для ядра синхронизации это
	// непрозрачный блоб: его интерпретирует движок правил.
	Config json.RawMessage `json:"config,omitempty"`

	// Turns - полный упорядоченный список закоммиченных ходов.
	Turns []Turn `json:"turns"`

	StartUnix int64 `json:"startUnix"`
	EndUnix   int64 `json:"endUnix,omitempty"`

	Winner string        `json:"winner,omitempty"`
	Stats  []PlayerStats `json:"allPlayersStats,omitempty"`
}

// Complete сообщает, закрыта ли запись авторитарным концом партии.
func (r *GameRecord) Complete() bool {
	return r.EndUnix != 0
}

// Clone возвращает снимок записи, безопасный для чтения вне мьютекса
// владельца. Слайсы ходов и статистики копируются; содержимое ходов
// (интенты, payload'ы) после коммита неизменно, поэтому разделяется.
func (r *GameRecord) Clone() *GameRecord {
	cp := *r
	cp.Turns = make([]Turn, len(r.Turns))
	copy(cp.Turns, r.Turns)
	cp.Stats = append([]PlayerStats(nil), r.Stats...)
	return &cp
}
