package api

// Payload-структуры интентов. Ядро синхронизации возит их сырыми байтами
// (domain.Intent.Payload); типизация нужна клиентскому коду, который интенты
// порождает, и инструментам вроде recordinspect.

// SpawnPayload - выбор стартовой клетки.
type SpawnPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// AttackPayload - наземная атака на игрока (или на нейтральную землю,
// если TargetID пуст).
type AttackPayload struct {
	TargetID string `json:"targetId,omitempty"`
	Troops   uint64 `json:"troops"`
}

// BoatAttackPayload - десант: атака через воду в указанную точку высадки.
type BoatAttackPayload struct {
	TargetID string `json:"targetId,omitempty"`
	Troops   uint64 `json:"troops"`
	DstX     int    `json:"dstX"`
	DstY     int    `json:"dstY"`
}

// BuildUnitPayload - постройка юнита/структуры в клетке.
type BuildUnitPayload struct {
	UnitType string `json:"unitType"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// UpgradeStructurePayload - апгрейд существующей структуры.
type UpgradeStructurePayload struct {
	UnitID uint64 `json:"unitId"`
}

// DonateGoldPayload / DonateTroopsPayload - передача ресурсов союзнику.
type DonateGoldPayload struct {
	RecipientID string `json:"recipientId"`
	Amount      uint64 `json:"amount"`
}

type DonateTroopsPayload struct {
	RecipientID string `json:"recipientId"`
	Amount      uint64 `json:"amount"`
}

// AllianceRequestPayload - предложение альянса.
type AllianceRequestPayload struct {
	RecipientID string `json:"recipientId"`
}

// AllianceReplyPayload - ответ на предложение альянса.
type AllianceReplyPayload struct {
	RequestorID string `json:"requestorId"`
	Accept      bool   `json:"accept"`
}

// BreakAlliancePayload - односторонний разрыв альянса.
type BreakAlliancePayload struct {
	RecipientID string `json:"recipientId"`
}

// AllianceExtensionPayload - согласие продлить истекающий альянс.
type AllianceExtensionPayload struct {
	RecipientID string `json:"recipientId"`
}

// EmbargoPayload - начать/прекратить торговое эмбарго.
type EmbargoPayload struct {
	TargetID string `json:"targetId"`
	Action   string `json:"action"` // "start" | "stop"
}

// EmojiPayload - эмодзи другому игроку (или всем, если RecipientID пуст).
type EmojiPayload struct {
	RecipientID string `json:"recipientId,omitempty"`
	Emoji       string `json:"emoji"`
}

// QuickChatPayload - реплика из фиксированного набора фраз.
type QuickChatPayload struct {
	RecipientID  string `json:"recipientId"`
	QuickChatKey string `json:"quickChatKey"`
}

// TargetPlayerPayload - пометить игрока целью для союзников.
type TargetPlayerPayload struct {
	TargetID string `json:"targetId"`
}

// DeleteUnitPayload - снести собственный юнит.
type DeleteUnitPayload struct {
	UnitID uint64 `json:"unitId"`
}

// CancelAttackPayload / CancelBoatPayload - отмена начатого действия.
type CancelAttackPayload struct {
	AttackID string `json:"attackId"`
}

type CancelBoatPayload struct {
	UnitID uint64 `json:"unitId"`
}

// MoveWarshipPayload - перенаправить военный корабль в клетку патруля.
type MoveWarshipPayload struct {
	UnitID uint64 `json:"unitId"`
	TileX  int    `json:"tileX"`
	TileY  int    `json:"tileY"`
}

// KickPlayerPayload - хост выгоняет игрока из лобби.
type KickPlayerPayload struct {
	TargetID string `json:"targetId"`
}
