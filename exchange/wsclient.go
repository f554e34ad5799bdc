package exchange

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// PerpetualClient is the shared WebSocket client described in spec.md
// §4.C.1: its I/O goroutine is started once by Start and keeps running
// across however many connect/disconnect/reconnect cycles happen, so a
// TLS stream is never torn down on a different goroutine than the one
// that owns it. Per-venue adapters hold one of these per connection they
// open (Binance: market and user data; OKX: public and private).
type PerpetualClient struct {
	cfg Config
	url string

	mu   sync.Mutex
	conn *websocket.Conn

	running   chan struct{} // closed by Stop; Start returns once this closes
	reconnect bool

	onOpen    func()
	onMessage func([]byte)
	onClose   func(err error)

	sendThrottle *throttle

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewPerpetualClient(cfg Config, wsURL string, onOpen func(), onMessage func([]byte), onClose func(error)) *PerpetualClient {
	return &PerpetualClient{
		cfg:          cfg,
		url:          wsURL,
		onOpen:       onOpen,
		onMessage:    onMessage,
		onClose:      onClose,
		reconnect:    true,
		stopCh:       make(chan struct{}),
		sendThrottle: newThrottle(5, time.Second),
	}
}

func (c *PerpetualClient) dialer() *websocket.Dialer {
	d := &websocket.Dialer{
		HandshakeTimeout: time.Duration(c.cfg.ConnectTimeoutSec) * time.Second,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: !c.cfg.VerifySSL},
	}
	if c.cfg.UseProxy {
		proxyURL := &url.URL{Scheme: "http", Host: proxyHostPort(c.cfg)}
		d.Proxy = http.ProxyURL(proxyURL)
	}
	return d
}

func proxyHostPort(cfg Config) string {
	if cfg.ProxyPort == 0 {
		return cfg.ProxyHost
	}
	return cfg.ProxyHost + ":" + itoa(cfg.ProxyPort)
}

// Start runs the perpetual connect/read/reconnect loop. It blocks until
// Stop is called; run it in its own goroutine. This is the "I/O runtime started once and
// never torn down during reconnect" invariant from spec.md §4.C.1.
func (c *PerpetualClient) Start() {
	backoff := newBackoff()
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		conn, _, err := c.dialer().Dial(c.url, nil)
		if err != nil {
			if !c.reconnect {
				return
			}
			time.Sleep(backoff.next())
			continue
		}
		backoff.reset()

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		if c.onOpen != nil {
			c.onOpen()
		}

		stopPing := make(chan struct{})
		go c.pingLoop(conn, stopPing)

		readErr := c.readLoop(conn)
		close(stopPing)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()

		if c.onClose != nil {
			c.onClose(readErr)
		}

		select {
		case <-c.stopCh:
			return
		default:
		}
		if !c.reconnect {
			return
		}
		time.Sleep(backoff.next())
	}
}

func (c *PerpetualClient) readLoop(conn *websocket.Conn) error {
	conn.SetPongHandler(func(string) error { return nil })
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if c.onMessage != nil {
			c.onMessage(data)
		}
	}
}

func (c *PerpetualClient) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	interval := time.Duration(c.cfg.PingIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		}
	}
}

// Send writes a text frame, respecting the ≤5 msg/s outbound throttle
// spec.md §4.C.1 requires during subscription replay.
func (c *PerpetualClient) Send(payload []byte) error {
	c.sendThrottle.wait()

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// Connected reports whether the underlying connection is currently live.
func (c *PerpetualClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Stop closes the active connection (if any) with a going-away status and
// halts the perpetual loop. It is safe to call more than once.
func (c *PerpetualClient) Stop() {
	c.stopOnce.Do(func() {
		c.reconnect = false
		close(c.stopCh)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		}
	})
}
