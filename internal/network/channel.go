package network

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/hmkj6688-bit/TrRainGame/internal/domain"
	"github.com/hmkj6688-bit/TrRainGame/pkg/api"
	"github.com/hmkj6688-bit/TrRainGame/pkg/logger"
)

// Настройки канала
const (
	defaultWriteWait      = 10 * time.Second
	defaultPingInterval   = 3 * time.Second
	defaultWatchdogWindow = 10 * time.Second
	defaultReconnectDelay = 1 * time.Second
)

// Config хранит параметры одного логического соединения.
type Config struct {
	// URL авторитарного пира (ws:// или wss://).
	URL string

	// PingInterval - период отправки heartbeat-сообщения.
	PingInterval time.Duration

	// WatchdogWindow - если за это окно не пришло НИ ОДНОГО входящего
	// сообщения (не только pong), соединение считается мертвым и
	// переподключается, даже если сокет формально открыт.
	WatchdogWindow time.Duration

	// ReconnectDelay - пауза между попытками переподключения.
	// Попытки не ограничены: либо успех, либо явный Close.
	ReconnectDelay time.Duration

	// WriteWait - дедлайн записи одного сообщения.
	WriteWait time.Duration
}

// NewConfig создает конфиг канала по умолчанию.
func NewConfig(url string) Config {
	return Config{
		URL:            url,
		PingInterval:   defaultPingInterval,
		WatchdogWindow: defaultWatchdogWindow,
		ReconnectDelay: defaultReconnectDelay,
		WriteWait:      defaultWriteWait,
	}
}

// Channel - одно логическое соединение с авторитарным пиром,
// прячущее переподключения от вызывающего кода.
//
// Гарантии:
//   - сообщения, отправленные без живого сокета, буферизуются и
//     уходят FIFO сразу после переподключения, раньше любых новых;
//   - переподключения автоматические и неограниченные; наверх
//     поднимается только фатальный отказ (close code policy violation);
//   - отсутствие входящих сообщений дольше WatchdogWindow - повод для
//     клиентского реконнекта независимо от состояния сокета.
type Channel struct {
	cfg Config

	// Колбэки запоминаются при Connect и переиспользуются каждым
	// переподключением.
	onOpen    func()
	onMessage func(data []byte)
	onRefused func(err error)

	mu      sync.Mutex
	conn    *websocket.Conn
	buffer  [][]byte // исходящие в порядке отправки (FIFO)
	gen     uint64   // поколение сокета: горутины старых поколений игнорируются
	dialing bool
	closed  bool

	lastInbound time.Time

	log *logrus.Entry
}

// NewChannel создает канал. Соединение не устанавливается до Connect.
func NewChannel(cfg Config) *Channel {
	return &Channel{
		cfg: cfg,
		log: logger.WithComponent("transport").WithField("url", cfg.URL),
	}
}

// Connect устанавливает соединение и запоминает колбэки.
// onOpen зовется после КАЖДОГО успешного (пере)подключения - уже после
// того, как буфер исходящих слит в исходном порядке.
// onRefused зовется один раз при фатальном отказе сервера.
func (c *Channel) Connect(onOpen func(), onMessage func(data []byte), onRefused func(err error)) {
	c.mu.Lock()
	c.onOpen = onOpen
	c.onMessage = onMessage
	c.onRefused = onRefused
	c.mu.Unlock()

	c.beginDial()
}

// Send отправляет сообщение. Если сокета нет или он умер на записи,
// сообщение остается в буфере, а переподключение начинается немедленно;
// вызывающий об этом не узнает.
func (c *Channel) Send(data []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.buffer = append(c.buffer, data)
	c.flushLocked()
	needDial := c.conn == nil
	c.mu.Unlock()

	if needDial {
		c.beginDial()
	}
}

// flushLocked пишет буфер в текущий сокет строго FIFO.
// При ошибке записи недоставленный хвост остается в буфере, а сокет
// сносится (дозвон запускает вызывающий, уже без мьютекса).
//
// Сетевые записи идут под мьютексом: websocket-соединение не переносит
// конкурентные WriteMessage, а дедлайн WriteWait не дает зависнуть.
func (c *Channel) flushLocked() {
	if c.conn == nil {
		return
	}
	for len(c.buffer) > 0 {
		msg := c.buffer[0]
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.log.WithError(err).Debug("Write failed, keeping outbound buffer")
			c.teardownLocked()
			return
		}
		c.buffer = c.buffer[1:]
	}
}

// teardownLocked снимает текущий сокет с должности.
// Закрытие самого сокета уходит в отдельную горутину, чтобы не держать
// мьютекс на сетевой операции.
func (c *Channel) teardownLocked() {
	if c.conn == nil {
		return
	}
	conn := c.conn
	c.conn = nil
	c.gen++
	go conn.Close()
}

// beginDial запускает цикл дозвона, если он еще не идет.
func (c *Channel) beginDial() {
	c.mu.Lock()
	if c.closed || c.dialing || c.conn != nil {
		c.mu.Unlock()
		return
	}
	c.dialing = true
	c.mu.Unlock()

	go c.dialLoop()
}

// dialLoop крутит попытки подключения до успеха или Close.
func (c *Channel) dialLoop() {
	for {
		c.mu.Lock()
		if c.closed {
			c.dialing = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		conn, _, err := websocket.DefaultDialer.Dial(c.cfg.URL, nil)
		if err != nil {
			c.log.WithError(err).Warn("Dial failed, retrying")
			time.Sleep(c.cfg.ReconnectDelay)
			continue
		}

		c.install(conn)
		return
	}
}

// install вводит новый сокет в строй: сливает накопленный буфер FIFO,
// затем запускает читателя с heartbeat'ом и зовет onOpen.
func (c *Channel) install(conn *websocket.Conn) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}

	c.conn = conn
	c.gen++
	gen := c.gen
	c.dialing = false
	c.lastInbound = time.Now()

	// Накопленное без соединения уходит раньше любых новых сообщений.
	c.flushLocked()
	if c.conn == nil {
		// Сокет умер прямо на сливе буфера: заходим на новый круг.
		c.mu.Unlock()
		c.beginDial()
		return
	}

	onOpen := c.onOpen
	c.mu.Unlock()

	c.log.Info("Connected")

	go c.readLoop(conn, gen)
	go c.heartbeatLoop(gen)

	if onOpen != nil {
		onOpen()
	}
}

// readLoop читает входящие сообщения текущего сокета.
func (c *Channel) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				// Сервер явно отказал. Фатально, без повторов.
				c.log.WithError(err).Error("Connection refused by server")
				c.mu.Lock()
				onRefused := c.onRefused
				c.closed = true
				c.conn = nil
				c.mu.Unlock()
				conn.Close()
				if onRefused != nil {
					onRefused(domain.ErrConnectionRefused)
				}
				return
			}

			// Любое другое аварийное закрытие - транзиентный сбой:
			// чиним сами, наверх не поднимаем.
			c.mu.Lock()
			if c.gen == gen && !c.closed {
				c.log.WithError(err).Warn("Connection lost, reconnecting")
				c.teardownLocked()
				c.mu.Unlock()
				c.beginDial()
			} else {
				c.mu.Unlock()
			}
			return
		}

		c.mu.Lock()
		if c.gen != gen {
			// Сообщение от уже замененного сокета: не доставляем,
			// чтобы не задвоить доставку после реконнекта.
			c.mu.Unlock()
			return
		}
		c.lastInbound = time.Now()
		onMessage := c.onMessage
		c.mu.Unlock()

		if onMessage != nil {
			onMessage(data)
		}
	}
}

// heartbeatLoop шлет ping и следит за тишиной на входе.
func (c *Channel) heartbeatLoop(gen uint64) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.closed || c.gen != gen {
			c.mu.Unlock()
			return
		}
		silence := time.Since(c.lastInbound)
		if silence > c.cfg.WatchdogWindow {
			// Сокет может выглядеть открытым, но быть молча мертвым.
			c.log.WithField("silence", silence.String()).Warn("Watchdog: no inbound traffic, reconnecting")
			c.teardownLocked()
			c.mu.Unlock()
			c.beginDial()
			return
		}
		c.buffer = append(c.buffer, api.Ping())
		c.flushLocked()
		stale := c.conn == nil
		c.mu.Unlock()

		if stale {
			c.beginDial()
			return
		}
	}
}

// Close окончательно закрывает канал. Переподключений больше не будет.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Connected сообщает, есть ли прямо сейчас живой сокет.
// Для диагностики; логика ядра от этого не зависит.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}
