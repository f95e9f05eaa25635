package api

import "errors"

// Validator - интерфейс, который могут реализовать payload-DTO.
// Валидация происходит на стороне, порождающей интент: ядро
// синхронизации обязано доставлять payload байт-в-байт и не трогает его.
type Validator interface {
	Validate() error
}

func (p SpawnPayload) Validate() error {
	if p.X < 0 || p.Y < 0 {
		return errors.New("spawn coordinates cannot be negative")
	}
	return nil
}

func (p AttackPayload) Validate() error {
	if p.Troops == 0 {
		return errors.New("attack requires at least one troop")
	}
	return nil
}

func (p BoatAttackPayload) Validate() error {
	if p.Troops == 0 {
		return errors.New("boat attack requires at least one troop")
	}
	if p.DstX < 0 || p.DstY < 0 {
		return errors.New("boat destination cannot be negative")
	}
	return nil
}

func (p BuildUnitPayload) Validate() error {
	if p.UnitType == "" {
		return errors.New("unit type is required")
	}
	if p.X < 0 || p.Y < 0 {
		return errors.New("build coordinates cannot be negative")
	}
	return nil
}

func (p DonateGoldPayload) Validate() error {
	if p.RecipientID == "" {
		return errors.New("recipient is required")
	}
	if p.Amount == 0 {
		return errors.New("donation amount cannot be zero")
	}
	return nil
}

func (p DonateTroopsPayload) Validate() error {
	if p.RecipientID == "" {
		return errors.New("recipient is required")
	}
	if p.Amount == 0 {
		return errors.New("donation amount cannot be zero")
	}
	return nil
}

func (p EmbargoPayload) Validate() error {
	if p.Action != "start" && p.Action != "stop" {
		return errors.New("embargo action must be start or stop")
	}
	return nil
}

func (p EmojiPayload) Validate() error {
	if p.Emoji == "" {
		return errors.New("emoji is required")
	}
	return nil
}
