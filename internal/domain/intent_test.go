package domain

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestIntentKind_WireTags(t *testing.T) {
	// Wire-теги фиксированы; регистр важен
	cases := map[string]IntentKind{
		"spawn":             IntentSpawn,
		"attack":            IntentAttack,
		"boatAttack":        IntentBoatAttack,
		"upgradeStructure":  IntentUpgradeStructure,
		"allianceExtension": IntentAllianceExtension,
		"quickChat":         IntentQuickChat,
		"kickPlayer":        IntentKickPlayer,
	}
	for tag, want := range cases {
		if got := ParseIntentKind(tag); got != want {
			t.Errorf("ParseIntentKind(%q) = %v, want %v", tag, got, want)
		}
		if got := want.String(); got != tag {
			t.Errorf("%v.String() = %q, want %q", want, got, tag)
		}
	}

	if ParseIntentKind("Spawn") != IntentUnknown {
		t.Error("Tags are case-sensitive: \"Spawn\" must not parse")
	}
	if ParseIntentKind("warp") != IntentUnknown {
		t.Error("Unknown tag must parse to IntentUnknown")
	}
}

func TestIntent_JSONRoundTrip(t *testing.T) {
	in := Intent{
		Kind:     IntentBoatAttack,
		ClientID: "c1",
		Payload:  json.RawMessage(`{"targetId":"B","troops":100,"dstX":3,"dstY":4}`),
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out Intent
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Kind != in.Kind || out.ClientID != in.ClientID {
		t.Errorf("Round trip lost fields: %+v", out)
	}
	if !bytes.Equal(out.Payload, in.Payload) {
		t.Errorf("Payload not byte-exact: %s", out.Payload)
	}
}

func TestIntent_UnknownKindRejected(t *testing.T) {
	// Неизвестный kind - ошибка протокола: сообщение отбрасывается
	// целиком, а не превращается в IntentUnknown.
	var in Intent
	if err := json.Unmarshal([]byte(`{"kind":"warp","clientID":"A"}`), &in); err == nil {
		t.Error("Expected error for unknown intent kind")
	}

	if _, err := json.Marshal(Intent{Kind: IntentUnknown}); err == nil {
		t.Error("IntentUnknown must not serialize")
	}
}

func TestEmptyTurn(t *testing.T) {
	turn := EmptyTurn(7)
	if turn.Number != 7 || len(turn.Intents) != 0 || turn.Hash != nil {
		t.Errorf("EmptyTurn wrong: %+v", turn)
	}

	// Пустой ход сериализуется без поля hash
	data, err := json.Marshal(turn)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte(`"hash"`)) {
		t.Errorf("Absent hash must be omitted: %s", data)
	}
}
