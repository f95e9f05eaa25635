package api

import (
	"encoding/json"
	"testing"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
)

func TestParseServerMessage_Turn(t *testing.T) {
	raw := []byte(`{
		"type": "turn",
		"turn": {
			"turnNumber": 42,
			"intents": [
				{"kind": "attack", "clientID": "A", "payload": {"targetId":"B","troops":100}},
				{"kind": "spawn", "clientID": "C", "payload": {"x":1,"y":2}}
			]
		}
	}`)

	msg, err := ParseServerMessage(raw)
	if err != nil {
		t.Fatalf("ParseServerMessage: %v", err)
	}
	tm, ok := msg.(*TurnMessage)
	if !ok {
		t.Fatalf("Expected *TurnMessage, got %T", msg)
	}
	if tm.Turn.Number != 42 {
		t.Errorf("Turn number: %d", tm.Turn.Number)
	}
	if len(tm.Turn.Intents) != 2 {
		t.Fatalf("Expected 2 intents, got %d", len(tm.Turn.Intents))
	}
	// Порядок интентов - порядок в сообщении, байт-в-байт
	if tm.Turn.Intents[0].Kind != domain.IntentAttack || tm.Turn.Intents[1].Kind != domain.IntentSpawn {
		t.Errorf("Intent order or kinds wrong: %+v", tm.Turn.Intents)
	}
	if string(tm.Turn.Intents[0].Payload) != `{"targetId":"B","troops":100}` {
		t.Errorf("Payload not preserved byte-exact: %s", tm.Turn.Intents[0].Payload)
	}
}

func TestParseServerMessage_Start(t *testing.T) {
	raw := []byte(`{
		"type": "start",
		"gameStartInfo": {"gameID": "g1", "config": {"map":"europe"}},
		"turns": [{"turnNumber": 0, "intents": []}]
	}`)

	msg, err := ParseServerMessage(raw)
	if err != nil {
		t.Fatalf("ParseServerMessage: %v", err)
	}
	sm, ok := msg.(*StartMessage)
	if !ok {
		t.Fatalf("Expected *StartMessage, got %T", msg)
	}
	if sm.GameStartInfo.GameID != "g1" {
		t.Errorf("GameID: %q", sm.GameStartInfo.GameID)
	}
	if len(sm.Turns) != 1 || sm.Turns[0].Number != 0 {
		t.Errorf("Catch-up turns wrong: %+v", sm.Turns)
	}
}

func TestParseServerMessage_Desync(t *testing.T) {
	// Сервер может не знать наш хеш: yourHash приходит null
	raw := []byte(`{
		"type": "desync",
		"turn": 300,
		"correctHash": 12345,
		"yourHash": null,
		"clientsWithCorrectHash": 3,
		"totalActiveClients": 4
	}`)

	msg, err := ParseServerMessage(raw)
	if err != nil {
		t.Fatalf("ParseServerMessage: %v", err)
	}
	dm, ok := msg.(*DesyncMessage)
	if !ok {
		t.Fatalf("Expected *DesyncMessage, got %T", msg)
	}
	if dm.Turn != 300 {
		t.Errorf("Turn: %d", dm.Turn)
	}
	if dm.CorrectHash == nil || *dm.CorrectHash != 12345 {
		t.Errorf("CorrectHash: %v", dm.CorrectHash)
	}
	if dm.YourHash != nil {
		t.Errorf("YourHash should be nil, got %v", *dm.YourHash)
	}
	if dm.ClientsWithCorrectHash != 3 || dm.TotalActiveClients != 4 {
		t.Errorf("Quorum fields wrong: %+v", dm)
	}
}

func TestParseServerMessage_WinnerAndError(t *testing.T) {
	msg, err := ParseServerMessage([]byte(`{"type":"winner","winner":"A","allPlayersStats":[{"clientID":"A","alive":true}]}`))
	if err != nil {
		t.Fatalf("winner: %v", err)
	}
	wm, ok := msg.(*WinnerMessage)
	if !ok || wm.Winner != "A" || len(wm.AllPlayersStats) != 1 {
		t.Errorf("Winner message wrong: %+v", msg)
	}

	msg, err = ParseServerMessage([]byte(`{"type":"error","error":"game_full","message":"no seats left"}`))
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	em, ok := msg.(*ErrorMessage)
	if !ok || em.Error != "game_full" {
		t.Errorf("Error message wrong: %+v", msg)
	}
}

func TestParseServerMessage_Rejects(t *testing.T) {
	cases := map[string][]byte{
		"not json":       []byte(`{{{`),
		"unknown type":   []byte(`{"type":"teleport"}`),
		"missing type":   []byte(`{"turn":{"turnNumber":0}}`),
		"unknown intent": []byte(`{"type":"turn","turn":{"turnNumber":0,"intents":[{"kind":"warp","clientID":"A"}]}}`),
	}
	for name, raw := range cases {
		if _, err := ParseServerMessage(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestJoinMessage_Wire(t *testing.T) {
	join := JoinMessage{
		Type:     TypeJoin,
		GameID:   "g1",
		ClientID: "c1",
		LastTurn: 17,
	}
	data, err := json.Marshal(join)
	if err != nil {
		t.Fatal(err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "join" || m["gameID"] != "g1" || m["lastTurn"] != float64(17) {
		t.Errorf("Join wire shape wrong: %s", data)
	}
	// Пустые опциональные поля не замусоривают сообщение
	if _, ok := m["authToken"]; ok {
		t.Error("Empty authToken should be omitted")
	}
}

func TestPing(t *testing.T) {
	var m map[string]any
	if err := json.Unmarshal(Ping(), &m); err != nil {
		t.Fatalf("Ping is not valid JSON: %v", err)
	}
	if m["type"] != "ping" {
		t.Errorf("Ping type: %v", m["type"])
	}
}
