package registry

import (
	"sync"
	"time"

	"github.com/MYC-A/MoveUp/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
)

// WSConn adapts a websocket to Conn. A single writer goroutine owns all
// writes; reads happen on the caller's goroutine through ReadMessages.
type WSConn struct {
	id          uuid.UUID
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	exited      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	openedAt    time.Time
}

func NewWSConn(connection *websocket.Conn, clock clockwork.Clock) *WSConn {
	c := &WSConn{
		id:          uuid.New(),
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
		exited:      make(chan struct{}),
		openedAt:    clock.Now(),
	}
	c.configurePongHandler()
	metrics.WebSocketConnectionsCurrent.Inc()

	c.wg.Add(1)
	go c.run()
	return c
}

func (c *WSConn) ID() uuid.UUID { return c.id }

// Send queues data for the writer. It fails fast with ErrConnClosed once the
// writer has stopped and with ErrSlowConsumer when the queue is full.
func (c *WSConn) Send(data []byte) error {
	select {
	case <-c.exited:
		return ErrConnClosed
	default:
	}

	select {
	case c.sendChannel <- data:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// ReadMessages blocks reading frames until the transport fails or handle
// returns an error. Each frame extends the read deadline.
func (c *WSConn) ReadMessages(handle func(data []byte) error) error {
	for {
		_, data, err := c.connection.ReadMessage()
		if err != nil {
			return err
		}
		c.updateReadDeadline()
		if err := handle(data); err != nil {
			return err
		}
	}
}

// Close stops the writer and closes the transport without a close frame.
func (c *WSConn) Close() {
	c.stopOnce.Do(func() {
		close(c.doneChannel)
		_ = c.connection.Close()
		c.recordClosed()
	})
	c.wg.Wait()
}

// CloseGraceful sends a close frame carrying reason before closing.
func (c *WSConn) CloseGraceful(reason string) {
	c.stopOnce.Do(func() {
		close(c.doneChannel)

		// The close frame may only be written once the writer goroutine is gone.
		c.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		c.updateWriteDeadline()
		_ = c.connection.WriteMessage(websocket.CloseMessage, closeMsg)

		_ = c.connection.Close()
		c.recordClosed()
	})
}

func (c *WSConn) run() {
	ticker := c.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.wg.Done()
	defer close(c.exited)

	for {
		select {
		case msg := <-c.sendChannel:
			start := c.clock.Now()
			c.updateWriteDeadline()
			if err := c.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				// Unblocks the reader so the handler unregisters this connection.
				_ = c.connection.Close()
				return
			}
			metrics.WebSocketMessageSendDuration.Observe(c.clock.Since(start).Seconds())
		case <-ticker.Chan():
			c.updateWriteDeadline()
			if err := c.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketPingFailures.Inc()
				_ = c.connection.Close()
				return
			}
		case <-c.doneChannel:
			return
		}
	}
}

func (c *WSConn) configurePongHandler() {
	c.updateReadDeadline()
	c.connection.SetPongHandler(func(string) error {
		c.updateReadDeadline()
		return nil
	})
}

func (c *WSConn) updateWriteDeadline() {
	_ = c.connection.SetWriteDeadline(c.clock.Now().Add(writeDeadline))
}

func (c *WSConn) updateReadDeadline() {
	_ = c.connection.SetReadDeadline(c.clock.Now().Add(pongDeadline))
}

func (c *WSConn) recordClosed() {
	metrics.WebSocketConnectionsCurrent.Dec()
	metrics.WebSocketConnectionDuration.Observe(c.clock.Since(c.openedAt).Seconds())
}
