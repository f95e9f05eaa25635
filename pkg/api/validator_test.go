package api

import "testing"

func TestPayloadValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload Validator
		wantErr bool
	}{
		{"spawn ok", SpawnPayload{X: 5, Y: 10}, false},
		{"spawn negative", SpawnPayload{X: -1, Y: 0}, true},
		{"attack ok", AttackPayload{TargetID: "B", Troops: 100}, false},
		{"attack neutral land", AttackPayload{Troops: 50}, false},
		{"attack zero troops", AttackPayload{TargetID: "B"}, true},
		{"boat ok", BoatAttackPayload{Troops: 10, DstX: 3, DstY: 4}, false},
		{"boat bad dst", BoatAttackPayload{Troops: 10, DstX: -3}, true},
		{"build ok", BuildUnitPayload{UnitType: "city", X: 1, Y: 1}, false},
		{"build no type", BuildUnitPayload{X: 1, Y: 1}, true},
		{"donate ok", DonateGoldPayload{RecipientID: "B", Amount: 500}, false},
		{"donate zero", DonateGoldPayload{RecipientID: "B"}, true},
		{"donate no recipient", DonateTroopsPayload{Amount: 10}, true},
		{"embargo start", EmbargoPayload{TargetID: "B", Action: "start"}, false},
		{"embargo bad action", EmbargoPayload{TargetID: "B", Action: "maybe"}, true},
		{"emoji ok", EmojiPayload{Emoji: "😡"}, false},
		{"emoji empty", EmojiPayload{}, true},
	}

	for _, tc := range cases {
		err := tc.payload.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}
