package network

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
)

// wsHarness - тестовый websocket-сервер: умеет отказывать в upgrade
// (имитация лежащего сервера) и отдает тесту принятые соединения.
type wsHarness struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	accepting atomic.Bool
	upgrades  atomic.Int64
	conns     chan *websocket.Conn
}

func newHarness(t *testing.T) *wsHarness {
	t.Helper()
	h := &wsHarness{conns: make(chan *websocket.Conn, 8)}
	h.accepting.Store(true)

	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.accepting.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.upgrades.Add(1)
		h.conns <- conn
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *wsHarness) wsURL() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http")
}

func (h *wsHarness) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-h.conns:
		return conn
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for client to connect")
		return nil
	}
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Server read: %v", err)
	}
	return string(data)
}

// quietConfig - конфиг без heartbeat'а, чтобы ping'и не мешали
// проверять порядок прикладных сообщений.
func quietConfig(url string) Config {
	cfg := NewConfig(url)
	cfg.PingInterval = time.Hour
	cfg.WatchdogWindow = time.Hour
	cfg.ReconnectDelay = 10 * time.Millisecond
	return cfg
}

func TestChannel_SendAndReceive(t *testing.T) {
	h := newHarness(t)

	opened := make(chan struct{}, 1)
	inbound := make(chan string, 8)

	ch := NewChannel(quietConfig(h.wsURL()))
	defer ch.Close()
	ch.Connect(
		func() { opened <- struct{}{} },
		func(data []byte) { inbound <- string(data) },
		nil,
	)

	conn := h.accept(t)
	defer conn.Close()

	select {
	case <-opened:
	case <-time.After(3 * time.Second):
		t.Fatal("onOpen not called")
	}

	ch.Send([]byte("hello"))
	if got := readText(t, conn); got != "hello" {
		t.Errorf("Server expected %q, got %q", "hello", got)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("world")); err != nil {
		t.Fatalf("Server write: %v", err)
	}
	select {
	case got := <-inbound:
		if got != "world" {
			t.Errorf("Client expected %q, got %q", "world", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("onMessage not called")
	}
}

func TestChannel_BuffersWhileDisconnectedFIFO(t *testing.T) {
	// Сервер сперва лежит: отправленное копится. После подъема сервера
	// буфер уходит FIFO, раньше любых новых сообщений.
	h := newHarness(t)
	h.accepting.Store(false)

	ch := NewChannel(quietConfig(h.wsURL()))
	defer ch.Close()
	ch.Connect(nil, nil, nil)

	ch.Send([]byte("m1"))
	ch.Send([]byte("m2"))
	ch.Send([]byte("m3"))

	// Даем дозвону поупираться в лежащий сервер
	time.Sleep(50 * time.Millisecond)
	if ch.Connected() {
		t.Fatal("Channel should not be connected while server is down")
	}

	h.accepting.Store(true)
	conn := h.accept(t)
	defer conn.Close()

	for _, want := range []string{"m1", "m2", "m3"} {
		if got := readText(t, conn); got != want {
			t.Fatalf("FIFO order broken: expected %q, got %q", want, got)
		}
	}

	// Новое сообщение идет уже после слитого буфера
	ch.Send([]byte("m4"))
	if got := readText(t, conn); got != "m4" {
		t.Errorf("Expected %q after buffered backlog, got %q", "m4", got)
	}
}

func TestChannel_ReconnectsAfterDrop(t *testing.T) {
	h := newHarness(t)

	ch := NewChannel(quietConfig(h.wsURL()))
	defer ch.Close()
	ch.Connect(nil, nil, nil)

	conn := h.accept(t)

	// Сервер грубо рвет соединение: канал обязан молча перезвониться
	conn.Close()

	conn2 := h.accept(t)
	defer conn2.Close()

	if h.upgrades.Load() < 2 {
		t.Fatalf("Expected at least 2 connections, got %d", h.upgrades.Load())
	}

	// Канал жив: сообщения ходят по новому сокету
	ch.Send([]byte("after-reconnect"))
	if got := readText(t, conn2); got != "after-reconnect" {
		t.Errorf("Expected message on new socket, got %q", got)
	}
}

func TestChannel_PolicyViolationIsFatal(t *testing.T) {
	// Close code 1008 - явный отказ сервера: не переподключаемся,
	// поднимаем фатальную ошибку наверх.
	h := newHarness(t)

	refused := make(chan error, 1)
	ch := NewChannel(quietConfig(h.wsURL()))
	defer ch.Close()
	ch.Connect(nil, nil, func(err error) { refused <- err })

	conn := h.accept(t)
	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "game full"), deadline)

	select {
	case err := <-refused:
		if !errors.Is(err, domain.ErrConnectionRefused) {
			t.Errorf("Expected ErrConnectionRefused, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("onRefused not called")
	}

	// Никаких повторных дозвонов после фатального отказа
	time.Sleep(100 * time.Millisecond)
	if got := h.upgrades.Load(); got != 1 {
		t.Errorf("Expected no reconnect attempts after refusal, got %d connections", got)
	}
}

func TestChannel_WatchdogRedialsOnSilence(t *testing.T) {
	// Сокет открыт, но сервер молчит дольше WatchdogWindow: канал
	// считает соединение мертвым и перезванивается сам.
	h := newHarness(t)

	cfg := NewConfig(h.wsURL())
	cfg.PingInterval = 20 * time.Millisecond
	cfg.WatchdogWindow = 60 * time.Millisecond
	cfg.ReconnectDelay = 10 * time.Millisecond

	ch := NewChannel(cfg)
	defer ch.Close()
	ch.Connect(nil, nil, nil)

	conn := h.accept(t)
	defer conn.Close()
	// Сервер читает ping'и, но сам не пишет ничего
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	conn2 := h.accept(t)
	defer conn2.Close()

	if h.upgrades.Load() < 2 {
		t.Fatalf("Watchdog should have forced a reconnect, got %d connections", h.upgrades.Load())
	}
}
