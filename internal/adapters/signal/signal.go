package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/kmelnick/huddle/internal/app"
	"github.com/kmelnick/huddle/internal/config"
	"github.com/kmelnick/huddle/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Controller owns the websocket side of the signaling surface: it decodes
// inbound envelopes, validates their shape and hands them to the
// orchestrator.
type Controller struct {
	Orch    *app.Orchestrator
	Limiter *ChatRateLimiter
	cfg     *config.Config
}

func NewController(orch *app.Orchestrator, cfg *config.Config) *Controller {
	return &Controller{
		Orch:    orch,
		Limiter: NewChatRateLimiter(cfg.ChatRateLimit, cfg.ChatRateInterval),
		cfg:     cfg,
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and starts the connection pumps. Each
// connection gets a fresh server-assigned id, unique for the process
// lifetime.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	cid := core.ConnID(uuid.NewString())

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)
	log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("new WS connection")

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctl.Orch.Attach(cid, conn)

	connCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		ctl.writePump(connCtx, conn)
	}()
	go ctl.readPump(connCtx, cid, conn)
}
