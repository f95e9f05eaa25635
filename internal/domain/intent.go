package domain

import (
	"encoding/json"
	"fmt"
)

// IntentKind - внутренний числовой идентификатор действия игрока.
// Набор закрыт: симуляция умеет применять только эти действия,
// всё остальное отбрасывается ещё на границе протокола.
type IntentKind uint8

const (
	IntentUnknown IntentKind = iota
	IntentSpawn
	IntentAttack
	IntentBoatAttack
	IntentBuildUnit
	IntentUpgradeStructure
	IntentDonateGold
	IntentDonateTroops
	IntentAllianceRequest
	IntentAllianceReply
	IntentBreakAlliance
	IntentAllianceExtension
	IntentEmbargo
	IntentEmoji
	IntentQuickChat
	IntentTargetPlayer
	IntentDeleteUnit
	IntentCancelAttack
	IntentCancelBoat
	IntentMoveWarship
	IntentKickPlayer
)

// Маппинг для конвертации JSON -> Domain
var kindStringToIntent = map[string]IntentKind{
	"spawn":             IntentSpawn,
	"attack":            IntentAttack,
	"boatAttack":        IntentBoatAttack,
	"buildUnit":         IntentBuildUnit,
	"upgradeStructure":  IntentUpgradeStructure,
	"donateGold":        IntentDonateGold,
	"donateTroops":      IntentDonateTroops,
	"allianceRequest":   IntentAllianceRequest,
	"allianceReply":     IntentAllianceReply,
	"breakAlliance":     IntentBreakAlliance,
	"allianceExtension": IntentAllianceExtension,
	"embargo":           IntentEmbargo,
	"emoji":             IntentEmoji,
	"quickChat":         IntentQuickChat,
	"targetPlayer":      IntentTargetPlayer,
	"deleteUnit":        IntentDeleteUnit,
	"cancelAttack":      IntentCancelAttack,
	"cancelBoat":        IntentCancelBoat,
	"moveWarship":       IntentMoveWarship,
	"kickPlayer":        IntentKickPlayer,
}

// Маппинг для логов Domain -> String
var kindIntentToString = map[IntentKind]string{}

func init() {
	for s, k := range kindStringToIntent {
		kindIntentToString[k] = s
	}
}

// ParseIntentKind конвертирует строку из JSON в IntentKind.
// Регистр важен: wire-формат использует ровно эти теги.
func ParseIntentKind(s string) IntentKind {
	if val, ok := kindStringToIntent[s]; ok {
		return val
	}
	return IntentUnknown
}

// String реализует интерфейс Stringer (для fmt.Printf и логов)
func (k IntentKind) String() string {
	if val, ok := kindIntentToString[k]; ok {
		return val
	}
	return "unknown"
}

// MarshalJSON сериализует kind в его wire-тег.
func (k IntentKind) MarshalJSON() ([]byte, error) {
	s, ok := kindIntentToString[k]
	if !ok {
		return nil, fmt.Errorf("unknown intent kind %d", uint8(k))
	}
	return json.Marshal(s)
}

// UnmarshalJSON парсит wire-тег. Неизвестный тег - это ошибка протокола,
// а не IntentUnknown: такие сообщения отбрасываются целиком.
func (k *IntentKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed := ParseIntentKind(s)
	if parsed == IntentUnknown {
		return fmt.Errorf("unknown intent kind %q", s)
	}
	*k = parsed
	return nil
}

// Intent - это неизменяемое описание одного действия игрока.
// Intent не несет информации о порядке: порядок возникает только
// в момент укладки в Turn (порядок прибытия к источнику ходов).
type Intent struct {
	Kind IntentKind `json:"kind"`

	// ClientID - клиент, породивший действие.
	ClientID string `json:"clientID"`

	// Payload - специфичные для kind параметры (см. pkg/api).
	// Хранится сырыми байтами: ядро синхронизации их не интерпретирует,
	// оно обязано лишь доставить их всем участникам байт-в-байт.
	Payload json.RawMessage `json:"payload,omitempty"`
}
