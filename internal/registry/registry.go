package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MYC-A/MoveUp/internal/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	commandTimeout     = 5 * time.Second
	stopTimeout        = 10 * time.Second
	commandChannelSize = 256
)

var (
	// ErrConnClosed is returned by Send once the connection's writer is gone.
	ErrConnClosed = errors.New("connection closed")
	// ErrSlowConsumer is returned by Send when the send queue is full.
	ErrSlowConsumer = errors.New("connection send buffer full")
	// ErrKeyFull rejects a registration over the per-key cap.
	ErrKeyFull = errors.New("too many connections for key")
	// ErrKeyMismatch rejects registering a connection under a second key.
	ErrKeyMismatch = errors.New("connection already registered under another key")
	// ErrStopped is returned by every operation after Stop.
	ErrStopped = errors.New("registry stopped")
)

// Conn is one open live-update connection.
// Send must not block: it either queues data or reports why it cannot.
type Conn interface {
	ID() uuid.UUID
	Send(data []byte) error
	Close()
}

// gracefulCloser is implemented by connections that can say goodbye before
// closing, such as WSConn sending a close frame.
type gracefulCloser interface {
	CloseGraceful(reason string)
}

type keyConns map[uuid.UUID]Conn

type registryCmd interface{ isRegistryCmd() }

type baseRegistryCmd struct{}

func (baseRegistryCmd) isRegistryCmd() {}

type registerCmd struct {
	baseRegistryCmd
	key   Key
	conn  Conn
	reply chan error
}

type unregisterCmd struct {
	baseRegistryCmd
	key  Key
	conn Conn
}

type lookupCmd struct {
	baseRegistryCmd
	key   Key
	reply chan []Conn
}

type countCmd struct {
	baseRegistryCmd
	key   Key
	reply chan int
}

type broadcastCmd struct {
	baseRegistryCmd
	key   Key
	data  []byte
	reply chan int
}

type stopCmd struct {
	baseRegistryCmd
}

// Registry maps subscriber keys to their open connections.
type Registry struct {
	cmdCh       chan registryCmd
	clock       clockwork.Clock
	conns       map[Key]keyConns
	keyOf       map[uuid.UUID]Key
	maxPerKey   int
	done        chan struct{}
	stopTimeout time.Duration
}

// New starts a registry. maxPerKey caps connections under a single key;
// zero or less means unlimited.
func New(clock clockwork.Clock, maxPerKey int) *Registry {
	r := &Registry{
		cmdCh:       make(chan registryCmd, commandChannelSize),
		clock:       clock,
		conns:       make(map[Key]keyConns),
		keyOf:       make(map[uuid.UUID]Key),
		maxPerKey:   maxPerKey,
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
	}
	go r.run()
	return r
}

// Register adds conn under key. A connection's key is fixed for its lifetime:
// registering it again under the same key is a no-op, under any other key
// fails with ErrKeyMismatch.
func (r *Registry) Register(key Key, conn Conn) error {
	reply := make(chan error, 1)
	if err := r.submit(registerCmd{key: key, conn: conn, reply: reply}); err != nil {
		return err
	}

	timer := r.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-reply:
		return err
	case <-r.done:
		return ErrStopped
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes conn from key and closes it. Unknown keys and
// connections are ignored, so calling it twice or after a reap is safe.
func (r *Registry) Unregister(key Key, conn Conn) {
	_ = r.submit(unregisterCmd{key: key, conn: conn})
}

// Lookup returns a snapshot of the connections under key. The result is empty
// when nothing is registered.
func (r *Registry) Lookup(key Key) []Conn {
	reply := make(chan []Conn, 1)
	if err := r.submit(lookupCmd{key: key, reply: reply}); err != nil {
		return nil
	}

	timer := r.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case conns := <-reply:
		return conns
	case <-r.done:
		return nil
	case <-timer.Chan():
		slog.Warn("Lookup timed out", "key", key.String(), "timeout", commandTimeout)
		return nil
	}
}

// Count returns the number of connections under key, or -1 on timeout.
func (r *Registry) Count(key Key) int {
	reply := make(chan int, 1)
	if err := r.submit(countCmd{key: key, reply: reply}); err != nil {
		return -1
	}

	timer := r.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case n := <-reply:
		return n
	case <-r.done:
		return -1
	case <-timer.Chan():
		slog.Warn("Count timed out", "key", key.String(), "timeout", commandTimeout)
		return -1
	}
}

// Broadcast sends data to every connection under key. A connection whose
// send fails is closed and removed, and the fan-out continues with the rest.
// It returns the number of connections the data was queued on.
func (r *Registry) Broadcast(ctx context.Context, key Key, data []byte) (int, error) {
	reply := make(chan int, 1)
	if err := r.submit(broadcastCmd{key: key, data: data, reply: reply}); err != nil {
		return 0, err
	}

	timer := r.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-r.done:
		return 0, ErrStopped
	case <-timer.Chan():
		return 0, fmt.Errorf("broadcast to %s timed out after %v", key, commandTimeout)
	}
}

// Stop closes every registered connection and shuts the actor down.
// Blocks until the actor has exited or the stop timeout is reached.
func (r *Registry) Stop() {
	if err := r.submit(stopCmd{}); err != nil {
		return
	}

	timeout := r.clock.NewTimer(r.stopTimeout)
	defer timeout.Stop()

	select {
	case <-r.done:
		slog.Info("Registry stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Registry stop timeout exceeded", "timeout", r.stopTimeout)
		metrics.RegistryStopTimeoutsTotal.Inc()
	}
}

func (r *Registry) submit(cmd registryCmd) error {
	select {
	case <-r.done:
		return ErrStopped
	default:
	}

	select {
	case r.cmdCh <- cmd:
		return nil
	case <-r.done:
		return ErrStopped
	}
}

func (r *Registry) run() {
	defer close(r.done)
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Registry panic recovered", "panic", rec)
			metrics.RegistryPanicsTotal.Inc()
			r.closeAll("registry failure")
		}
	}()

	depthTicker := r.clock.NewTicker(time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			depth := len(r.cmdCh)
			metrics.RegistryCommandChannelDepth.Set(float64(depth))
			if depth > commandChannelSize*4/5 {
				slog.Warn("Command channel near capacity", "depth", depth, "capacity", cap(r.cmdCh))
			}

		case cmd := <-r.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				c.reply <- r.handleRegister(c)
			case unregisterCmd:
				r.handleUnregister(c)
			case lookupCmd:
				c.reply <- r.snapshot(c.key)
			case countCmd:
				c.reply <- len(r.conns[c.key])
			case broadcastCmd:
				c.reply <- r.handleBroadcast(c)
			case stopCmd:
				r.handleStop()
				return
			default:
				slog.Warn("Registry received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (r *Registry) handleRegister(c registerCmd) error {
	id := c.conn.ID()
	if held, ok := r.keyOf[id]; ok {
		if held != c.key {
			return fmt.Errorf("%w: %s holds %s", ErrKeyMismatch, id, held)
		}
		return nil
	}

	conns, exists := r.conns[c.key]
	if r.maxPerKey > 0 && len(conns) >= r.maxPerKey {
		slog.Warn("Rejecting connection: key is full", "key", c.key.String(), "max_connections", r.maxPerKey)
		metrics.RegistryRejectedTotal.Inc()
		return fmt.Errorf("%w: %d connections on %s", ErrKeyFull, r.maxPerKey, c.key)
	}

	if !exists {
		conns = make(keyConns)
		r.conns[c.key] = conns
		metrics.RegistryActiveKeys.Set(float64(len(r.conns)))
	}
	conns[id] = c.conn
	r.keyOf[id] = c.key
	metrics.RegistryConnections.WithLabelValues(c.key.Kind()).Inc()

	slog.Debug("Connection registered", "key", c.key.String(), "conn_id", c.conn.ID().String(), "total", len(conns))
	return nil
}

func (r *Registry) handleUnregister(c unregisterCmd) {
	if !r.remove(c.key, c.conn.ID()) {
		return
	}
	c.conn.Close()
	slog.Debug("Connection unregistered", "key", c.key.String(), "conn_id", c.conn.ID().String())
}

func (r *Registry) handleBroadcast(c broadcastCmd) int {
	sent := 0
	for id, conn := range r.conns[c.key] {
		if err := conn.Send(c.data); err != nil {
			slog.Warn("Reaping connection after failed send",
				"key", c.key.String(),
				"conn_id", id.String(),
				"error", err,
			)
			metrics.RegistryReapedTotal.WithLabelValues(reapReason(err)).Inc()
			conn.Close()
			r.remove(c.key, id)
			continue
		}
		sent++
	}
	return sent
}

// remove drops one connection and the key entry once it is empty. It reports
// whether the connection was present.
func (r *Registry) remove(key Key, id uuid.UUID) bool {
	conns, exists := r.conns[key]
	if !exists {
		return false
	}
	if _, ok := conns[id]; !ok {
		return false
	}

	delete(conns, id)
	delete(r.keyOf, id)
	metrics.RegistryConnections.WithLabelValues(key.Kind()).Dec()

	if len(conns) == 0 {
		delete(r.conns, key)
		metrics.RegistryActiveKeys.Set(float64(len(r.conns)))
	}
	return true
}

func (r *Registry) snapshot(key Key) []Conn {
	conns := r.conns[key]
	out := make([]Conn, 0, len(conns))
	for _, conn := range conns {
		out = append(out, conn)
	}
	return out
}

func (r *Registry) handleStop() {
	total := 0
	for _, conns := range r.conns {
		total += len(conns)
	}
	slog.Info("Registry shutting down", "keys", len(r.conns), "connections", total)

	r.closeAll("Server shutting down")

	slog.Info("Registry shutdown complete", "disconnected", total)
}

// closeAll closes every connection with reason.
func (r *Registry) closeAll(reason string) {
	for key, conns := range r.conns {
		for id, conn := range conns {
			delete(r.keyOf, id)
			if gc, ok := conn.(gracefulCloser); ok {
				gc.CloseGraceful(reason)
			} else {
				conn.Close()
			}
		}
		metrics.RegistryConnections.WithLabelValues(key.Kind()).Sub(float64(len(conns)))
		delete(r.conns, key)
	}
	metrics.RegistryActiveKeys.Set(0)
}

func reapReason(err error) string {
	switch {
	case errors.Is(err, ErrSlowConsumer):
		return "slow_consumer"
	case errors.Is(err, ErrConnClosed):
		return "closed"
	default:
		return "send_error"
	}
}
