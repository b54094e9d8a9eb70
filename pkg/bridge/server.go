package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-autoframe/pkg/protocol"
)

// ServerConfig configures the consumer's listener
type ServerConfig struct {
	Addr    string // Listen address, e.g. "127.0.0.1:9410"
	Service string // Name producers must address at /ws/<service>
	Logger  *slog.Logger
}

// DefaultServerConfig returns production defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:    "127.0.0.1:9410",
		Service: "autoframe",
		Logger:  slog.Default(),
	}
}

// producerConn is one connected producer.
type producerConn struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

func (p *producerConn) send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Conn.WriteMessage(websocket.TextMessage, data)
}

func (p *producerConn) close(code int, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
	p.Conn.Close()
}

// ServerStats combines listener and render counters
type ServerStats struct {
	Service          string        `json:"service"`
	Producers        int           `json:"producers"`
	MessagesReceived uint64        `json:"messages_received"`
	FramesReceived   uint64        `json:"frames_received"`
	Rejected         uint64        `json:"rejected"`
	Consumer         ConsumerStats `json:"consumer"`
}

// Server accepts producer connections and feeds their announcements to a
// Consumer.
type Server struct {
	config   ServerConfig
	logger   *slog.Logger
	consumer *Consumer
	app      *fiber.App

	mu        sync.RWMutex
	producers map[string]*producerConn

	messagesReceived atomic.Uint64
	framesReceived   atomic.Uint64
	rejected         atomic.Uint64
}

// NewServer creates a server delivering frames to consumer
func NewServer(cfg ServerConfig, consumer *Consumer) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		config:    cfg,
		logger:    cfg.Logger.With("component", "bridge.server", "service", cfg.Service),
		consumer:  consumer,
		producers: make(map[string]*producerConn),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "autoframe-sink",
	})
	s.RegisterRoutes(s.app)
	return s
}

// App returns the underlying Fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// RegisterRoutes registers the producer endpoint and the control API
func (s *Server) RegisterRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/:service", websocket.New(s.handleProducer))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": s.config.Service})
	})

	api := app.Group("/api")
	api.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(s.Stats())
	})
	api.Post("/invalidate", func(c *fiber.Ctx) error {
		n := s.Invalidate()
		return c.JSON(fiber.Map{"invalidated": n})
	})
}

// handleProducer runs one producer connection
func (s *Server) handleProducer(c *websocket.Conn) {
	service := c.Params("service")
	if service != s.config.Service {
		s.rejected.Add(1)
		s.logger.Warn("rejecting producer", "requested", service, "error", ErrWrongService)
		c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ErrWrongService.Error()))
		c.Close()
		return
	}

	now := time.Now()
	p := &producerConn{
		ID:        uuid.NewString(),
		Conn:      c,
		Connected: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.producers[p.ID] = p
	count := len(s.producers)
	s.mu.Unlock()

	s.logger.Info("producer connected", "id", p.ID, "total", count)

	defer func() {
		s.mu.Lock()
		delete(s.producers, p.ID)
		count := len(s.producers)
		s.mu.Unlock()

		if count == 0 {
			s.consumer.ProducerGone()
		}
		s.logger.Info("producer disconnected", "id", p.ID, "total", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			s.logger.Debug("producer read ended", "id", p.ID, "error", err)
			return
		}

		p.mu.Lock()
		p.LastSeen = time.Now()
		p.mu.Unlock()

		s.messagesReceived.Add(1)
		s.handleMessage(p, data)
	}
}

// handleMessage dispatches one producer message
func (s *Server) handleMessage(p *producerConn, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.logger.Debug("parse error", "id", p.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeFrame:
		frame, err := msg.GetFrameData()
		if err != nil {
			s.logger.Debug("bad frame message", "id", p.ID, "error", err)
			return
		}
		s.framesReceived.Add(1)
		s.consumer.FrameArrived(*frame)

	case protocol.TypeCapture:
		capture, err := msg.GetCaptureData()
		if err != nil {
			return
		}
		s.consumer.SetCaptureActive(capture.Active)

	case protocol.TypePing:
		pong, err := protocol.PongFor(msg)
		if err != nil {
			return
		}
		if err := p.send(pong); err != nil {
			s.logger.Debug("pong failed", "id", p.ID, "error", err)
		}
	}
}

// Invalidate closes every producer connection normally. Producers treat
// this as final and do not reconnect on their own.
func (s *Server) Invalidate() int {
	return s.closeAll(websocket.CloseNormalClosure, "invalidated")
}

func (s *Server) closeAll(code int, text string) int {
	s.mu.RLock()
	conns := make([]*producerConn, 0, len(s.producers))
	for _, p := range s.producers {
		conns = append(conns, p)
	}
	s.mu.RUnlock()

	for _, p := range conns {
		p.close(code, text)
	}
	if len(conns) > 0 {
		s.logger.Info("closed producer connections", "count", len(conns), "code", code)
	}
	return len(conns)
}

// ProducerCount returns the number of connected producers
func (s *Server) ProducerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.producers)
}

// Stats returns server and consumer counters
func (s *Server) Stats() ServerStats {
	return ServerStats{
		Service:          s.config.Service,
		Producers:        s.ProducerCount(),
		MessagesReceived: s.messagesReceived.Load(),
		FramesReceived:   s.framesReceived.Load(),
		Rejected:         s.rejected.Load(),
		Consumer:         s.consumer.Stats(),
	}
}

// Listen serves until Shutdown is called
func (s *Server) Listen() error {
	s.logger.Info("listening", "addr", s.config.Addr, "path", fmt.Sprintf("/ws/%s", s.config.Service))
	return s.app.Listen(s.config.Addr)
}

// Shutdown tells producers the sink is going away and stops the listener.
// Producers see a non-normal close and keep retrying.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeAll(websocket.CloseGoingAway, "sink shutting down")
	return s.app.ShutdownWithContext(ctx)
}
