package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-autoframe/pkg/protocol"
)

// Conn is the subset of *websocket.Conn the producer uses.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// DialFunc opens a connection to url.
type DialFunc func(ctx context.Context, url string) (Conn, error)

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Stopper

// ProducerConfig configures the capture side of the bridge
type ProducerConfig struct {
	URL        string        // ws://host:port/ws/<service>
	RetryDelay time.Duration // Wait between reconnection attempts
	MaxRetries int           // Attempts after an interruption before giving up
	WarnLimit  int           // Drop warnings logged before going quiet
	Dial       DialFunc
	AfterFunc  AfterFunc
	Logger     *slog.Logger
}

// DefaultProducerConfig returns production defaults
func DefaultProducerConfig(url string) ProducerConfig {
	return ProducerConfig{
		URL:        url,
		RetryDelay: time.Second,
		MaxRetries: 5,
		WarnLimit:  3,
		Dial:       DialWebSocket,
		AfterFunc: func(d time.Duration, f func()) Stopper {
			return time.AfterFunc(d, f)
		},
		Logger: slog.Default(),
	}
}

// DialWebSocket dials url with gorilla/websocket
func DialWebSocket(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// ProducerStats are cumulative counters since start
type ProducerStats struct {
	Connected  bool   `json:"connected"`
	Exhausted  bool   `json:"exhausted"`
	Retries    int    `json:"retries"`
	Sent       uint64 `json:"sent"`
	Dropped    uint64 `json:"dropped"`
	Reconnects uint64 `json:"reconnects"`
	LatencyMs  int64  `json:"latency_ms"`
}

// Producer announces rendered frames to the consumer. Sending is
// fire-and-forget: without a connection frames are dropped.
type Producer struct {
	config ProducerConfig
	logger *slog.Logger

	mu         sync.Mutex
	ctx        context.Context
	conn       Conn
	gen        uint64 // Bumped per connection so stale read loops are ignored
	epoch      uint64 // Bumped by Connect/Disconnect so stale retries are ignored
	dialing    bool
	stopped    bool // Disconnect called; no automatic attempts
	retries    int
	exhausted  bool
	invalid    bool // Consumer closed normally; cleared by the next connection
	retryTimer Stopper
	pingID     string
	capturing  bool
	warned     int

	writeMu sync.Mutex

	sent       atomic.Uint64
	dropped    atomic.Uint64
	reconnects atomic.Uint64
	latencyMs  atomic.Int64
}

// NewProducer creates a producer; call Connect to start
func NewProducer(cfg ProducerConfig) *Producer {
	def := DefaultProducerConfig(cfg.URL)
	if cfg.Dial == nil {
		cfg.Dial = def.Dial
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = def.AfterFunc
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return &Producer{
		config: cfg,
		logger: cfg.Logger.With("component", "bridge.producer"),
	}
}

// Connect dials the consumer. It is a no-op while connected or dialing.
// An explicit Connect resets the retry budget.
func (p *Producer) Connect(ctx context.Context) error {
	p.mu.Lock()
	if p.conn != nil || p.dialing {
		p.mu.Unlock()
		return nil
	}
	p.ctx = ctx
	p.stopped = false
	p.retries = 0
	p.exhausted = false
	p.invalid = false
	p.epoch++
	p.cancelRetryLocked()
	epoch := p.epoch
	p.mu.Unlock()

	return p.attempt(epoch)
}

// attempt dials once; on failure it schedules a retry.
func (p *Producer) attempt(epoch uint64) error {
	p.mu.Lock()
	if p.stopped || epoch != p.epoch || p.conn != nil || p.dialing {
		p.mu.Unlock()
		return nil
	}
	p.dialing = true
	ctx := p.ctx
	p.mu.Unlock()

	conn, err := p.config.Dial(ctx, p.config.URL)

	p.mu.Lock()
	p.dialing = false
	if err != nil {
		p.logger.Warn("connect failed", "url", p.config.URL, "error", err)
		p.scheduleRetryLocked()
		p.mu.Unlock()
		return err
	}
	if p.stopped || epoch != p.epoch {
		p.mu.Unlock()
		conn.Close()
		return nil
	}

	p.conn = conn
	p.invalid = false
	p.gen++
	gen := p.gen
	p.pingID = uuid.NewString()
	pingID := p.pingID
	capturing := p.capturing
	p.mu.Unlock()

	p.logger.Info("connected", "url", p.config.URL)
	go p.readLoop(conn, gen)

	if msg, err := protocol.NewPingMessage(pingID); err == nil {
		p.write(conn, gen, msg)
	}
	if capturing {
		if msg, err := protocol.NewCaptureMessage(true); err == nil {
			p.write(conn, gen, msg)
		}
	}
	return nil
}

// scheduleRetryLocked arranges the next attempt after an interruption.
func (p *Producer) scheduleRetryLocked() {
	if p.stopped {
		return
	}
	if p.retries >= p.config.MaxRetries {
		if !p.exhausted {
			p.exhausted = true
			p.logger.Warn("giving up on consumer", "retries", p.retries)
		}
		return
	}
	p.retries++
	p.reconnects.Add(1)
	epoch := p.epoch
	attempt := p.retries
	p.cancelRetryLocked()
	p.retryTimer = p.config.AfterFunc(p.config.RetryDelay, func() {
		p.logger.Info("reconnecting", "attempt", attempt, "max", p.config.MaxRetries)
		p.attempt(epoch)
	})
}

func (p *Producer) cancelRetryLocked() {
	if p.retryTimer != nil {
		p.retryTimer.Stop()
		p.retryTimer = nil
	}
}

// readLoop handles consumer messages until the connection drops.
func (p *Producer) readLoop(conn Conn, gen uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			p.lost(gen, err)
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			p.logger.Debug("ignoring malformed message", "error", err)
			continue
		}

		switch msg.Type {
		case protocol.TypePong:
			pong, err := msg.GetPongData()
			if err != nil {
				continue
			}
			p.mu.Lock()
			if gen == p.gen && pong.ID == p.pingID {
				p.retries = 0
				p.exhausted = false
				p.latencyMs.Store(time.Now().UnixMilli() - pong.PingTS)
				p.logger.Debug("consumer answered ping", "latency_ms", p.latencyMs.Load())
			}
			p.mu.Unlock()

		case protocol.TypePing:
			if pong, err := protocol.PongFor(msg); err == nil {
				p.write(conn, gen, pong)
			}
		}
	}
}

// lost drops connection gen. A normal close from the consumer invalidates the
// connection; anything else is an interruption and schedules a retry.
func (p *Producer) lost(gen uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen || p.conn == nil {
		return
	}
	p.conn.Close()
	p.conn = nil

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		p.invalid = true
		p.logger.Info("consumer invalidated connection")
		return
	}
	p.logger.Warn("connection interrupted", "error", err)
	p.scheduleRetryLocked()
}

// write sends msg on conn, treating failures as interruptions.
func (p *Producer) write(conn Conn, gen uint64, msg *protocol.Message) bool {
	data, err := msg.Bytes()
	if err != nil {
		return false
	}
	p.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	p.writeMu.Unlock()
	if err != nil {
		p.lost(gen, err)
		return false
	}
	return true
}

// SendFrame announces a rendered surface. Without a connection the frame is
// dropped; the first few drops are logged, then logging pauses until a send
// succeeds. Callers may ignore the returned error.
func (p *Producer) SendFrame(handle uint32, ts float64, width, height int32) error {
	p.mu.Lock()
	conn, gen := p.conn, p.gen
	if conn == nil {
		p.dropped.Add(1)
		p.warnDropLocked()
		p.mu.Unlock()
		return ErrNotConnected
	}
	p.mu.Unlock()

	msg, err := protocol.NewFrameMessage(handle, ts, width, height)
	if err != nil {
		return err
	}
	if !p.write(conn, gen, msg) {
		p.dropped.Add(1)
		return ErrNotConnected
	}
	p.sent.Add(1)

	p.mu.Lock()
	p.warned = 0
	p.mu.Unlock()
	return nil
}

func (p *Producer) warnDropLocked() {
	limit := p.config.WarnLimit
	if p.warned > limit {
		return
	}
	p.warned++
	switch {
	case p.warned <= limit:
		p.logger.Warn("no consumer connection, dropping frame")
	default:
		p.logger.Warn("suppressing further drop warnings until a frame is delivered")
	}
}

// SetCaptureActive tells the consumer whether to expect frames. The state is
// resent on every new connection.
func (p *Producer) SetCaptureActive(active bool) {
	p.mu.Lock()
	p.capturing = active
	conn, gen := p.conn, p.gen
	p.mu.Unlock()

	if conn == nil {
		return
	}
	if msg, err := protocol.NewCaptureMessage(active); err == nil {
		p.write(conn, gen, msg)
	}
}

// Disconnect closes the connection normally and cancels pending retries.
// No automatic attempts follow until the next Connect.
func (p *Producer) Disconnect() {
	p.mu.Lock()
	p.stopped = true
	p.epoch++
	p.retries = 0
	p.exhausted = false
	p.invalid = false
	p.cancelRetryLocked()
	conn := p.conn
	p.conn = nil
	p.gen++
	p.mu.Unlock()

	if conn == nil {
		return
	}
	p.writeMu.Lock()
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	p.writeMu.Unlock()
	conn.Close()
	p.logger.Info("disconnected")
}

// Err reports why the producer is idle: ErrInvalidated after the consumer
// closed the connection normally, ErrRetriesExhausted once the retry budget
// is spent, nil otherwise.
func (p *Producer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.invalid:
		return ErrInvalidated
	case p.exhausted:
		return ErrRetriesExhausted
	}
	return nil
}

// Connected reports whether a connection is live
func (p *Producer) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil
}

// Stats returns the producer counters
func (p *Producer) Stats() ProducerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProducerStats{
		Connected:  p.conn != nil,
		Exhausted:  p.exhausted,
		Retries:    p.retries,
		Sent:       p.sent.Load(),
		Dropped:    p.dropped.Load(),
		Reconnects: p.reconnects.Load(),
		LatencyMs:  p.latencyMs.Load(),
	}
}
