// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

package client

import (
	"context"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/worktrace/worktrace/internal/logging"
)

// Defaults for the token poll and reconnect backoff.
const (
	defaultPollInterval = time.Second
	defaultPollWindow   = 30 * time.Second
	defaultBackoffBase  = 500 * time.Millisecond
	defaultBackoffMax   = 30 * time.Second
)

// TokenSource supplies the current session token. TokenStore satisfies
// it; "" means logged out.
type TokenSource interface {
	Get() string
}

// RealtimeConfig configures a Realtime connection.
type RealtimeConfig struct {
	// Origin is the server base URL, e.g. "http://host:8473". The
	// scheme is rewritten to ws/wss for the upgrade.
	Origin string

	// Tokens supplies the session token for each connection attempt.
	Tokens TokenSource

	// PollInterval is how often the token source is consulted while
	// waiting for a session to appear. Default 1s.
	PollInterval time.Duration

	// PollWindow bounds how long the client polls for a token before
	// going dormant; Reconnect starts a fresh window. Default 30s.
	PollWindow time.Duration

	// BackoffBase and BackoffMax bound the exponential backoff applied
	// to transport-level reconnect attempts. Defaults 500ms and 30s.
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// Dialer overrides the websocket dialer. Default
	// websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Lifecycle hooks. All are optional and invoked from the client's
	// internal goroutines; OnMessage is called in arrival order, one
	// frame at a time.
	OnOpen    func()
	OnClose   func()
	OnError   func(error)
	OnMessage func(Frame)
}

// Realtime maintains a single logical websocket connection to the
// server's /ws endpoint. Connection attempts are driven by token
// availability: without a token the client idles, polling within a
// bounded window; transport failures while a token exists retry with
// capped exponential backoff and jitter.
type Realtime struct {
	cfg RealtimeConfig
	rng *rand.Rand

	mu        sync.Mutex
	conn      *websocket.Conn
	connToken string
	watchStop context.CancelFunc
	watchDone chan struct{}
	closed    bool

	connected atomic.Bool
}

// NewRealtime creates a Realtime client and starts the token watcher.
// Call Close when the consumer goes away; leaking the watcher keeps
// firing callbacks against a discarded view.
func NewRealtime(cfg RealtimeConfig) *Realtime {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollWindow <= 0 {
		cfg.PollWindow = defaultPollWindow
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = defaultBackoffMax
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	r := &Realtime{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	r.startWatcher()
	return r
}

// IsConnected reports whether the socket is currently open.
func (r *Realtime) IsConnected() bool {
	return r.connected.Load()
}

// Connect closes any existing connection and dials with the current
// token. With no token present it is a no-op and IsConnected stays
// false.
func (r *Realtime) Connect() error {
	token := r.cfg.Tokens.Get()
	if token == "" {
		return nil
	}
	r.closeConn()
	return r.dial(token)
}

// Reconnect restarts the token watcher with a fresh polling window and
// attempts a connection immediately.
func (r *Realtime) Reconnect() error {
	r.startWatcher()
	return r.Connect()
}

// Disconnect closes the connection if open. Idempotent; the token
// watcher keeps running and will redial while a token exists, so use
// Close for a full teardown.
func (r *Realtime) Disconnect() {
	r.closeConn()
}

// Close tears the client down: the watcher stops and the connection
// closes. The client is not reusable afterwards.
func (r *Realtime) Close() {
	r.mu.Lock()
	r.closed = true
	stop, done := r.watchStop, r.watchDone
	r.watchStop, r.watchDone = nil, nil
	r.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	r.closeConn()
}

// Send serializes v to JSON and transmits it if the connection is
// open. Otherwise it is a silent no-op: at-most-once, no queueing.
func (r *Realtime) Send(v interface{}) {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil || !r.connected.Load() {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		r.hookError(err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		r.hookError(err)
	}
}

// startWatcher launches the token poll loop, replacing a stopped or
// running one.
func (r *Realtime) startWatcher() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.watchStop != nil {
		stop, done := r.watchStop, r.watchDone
		r.mu.Unlock()
		stop()
		<-done

		r.mu.Lock()
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.watchStop, r.watchDone = cancel, done
	r.mu.Unlock()

	go r.watch(ctx, done)
}

// watch is the reactive loop: it notices token appearance, change, and
// removal, and drives connection attempts. The loop returns when the
// bounded polling window elapses with no token; an explicit Reconnect
// is then required.
func (r *Realtime) watch(ctx context.Context, done chan struct{}) {
	defer close(done)

	deadline := time.Now().Add(r.cfg.PollWindow)
	attempt := 0

	for {
		wait := r.cfg.PollInterval
		token := r.cfg.Tokens.Get()

		switch {
		case token == "":
			// Logged out: never let the server reject a dead token.
			if r.connected.Load() {
				r.closeConn()
			}
			attempt = 0
			if time.Now().After(deadline) {
				logging.Debug().Msg("Realtime token poll window elapsed, going dormant")
				return
			}

		case r.connected.Load():
			deadline = time.Now().Add(r.cfg.PollWindow)
			attempt = 0
			if r.currentToken() != token {
				// Session refreshed: tear down and redial next pass.
				r.closeConn()
			}

		default:
			deadline = time.Now().Add(r.cfg.PollWindow)
			if err := r.dial(token); err != nil {
				attempt++
				wait = r.backoffDelay(attempt)
				logging.Debug().Err(err).Dur("retry_in", wait).Msg("Realtime dial failed")
			} else {
				attempt = 0
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// backoffDelay returns the wait before reconnect attempt n (1-based):
// capped exponential growth with equal jitter, keeping the result in
// [d/2, d) for d = min(base<<(n-1), max).
func (r *Realtime) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := r.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= r.cfg.BackoffMax {
			d = r.cfg.BackoffMax
			break
		}
	}

	half := d / 2
	r.mu.Lock()
	jitter := time.Duration(r.rng.Int63n(int64(half) + 1))
	r.mu.Unlock()
	return half + jitter
}

// dial opens the socket and starts the read loop.
func (r *Realtime) dial(token string) error {
	endpoint, err := r.socketURL(token)
	if err != nil {
		r.hookError(err)
		return err
	}

	conn, _, err := r.cfg.Dialer.Dial(endpoint, nil)
	if err != nil {
		r.hookError(err)
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		conn.Close()
		return nil
	}
	old := r.conn
	r.conn = conn
	r.connToken = token
	r.mu.Unlock()
	if old != nil {
		old.Close()
	}

	r.connected.Store(true)
	if r.cfg.OnOpen != nil {
		r.cfg.OnOpen()
	}

	go r.readLoop(conn)
	return nil
}

// readLoop delivers frames in arrival order until the connection
// drops. Malformed payloads are logged and dropped, never surfaced.
func (r *Realtime) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if r.dropConn(conn) {
				if r.cfg.OnClose != nil {
					r.cfg.OnClose()
				}
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			logging.Debug().Err(err).Msg("Dropping malformed realtime frame")
			continue
		}
		if r.cfg.OnMessage != nil {
			r.cfg.OnMessage(frame)
		}
	}
}

// closeConn closes the current connection, if any.
func (r *Realtime) closeConn() {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.connToken = ""
	r.mu.Unlock()

	if conn != nil {
		r.connected.Store(false)
		conn.Close()
	}
}

// dropConn clears connection state when the read loop observes a
// failure, but only if conn is still the current connection; a
// replaced connection's read loop must not clobber its successor.
func (r *Realtime) dropConn(conn *websocket.Conn) bool {
	r.mu.Lock()
	current := r.conn == conn
	if current {
		r.conn = nil
		r.connToken = ""
	}
	r.mu.Unlock()

	if current {
		r.connected.Store(false)
	}
	return current
}

func (r *Realtime) currentToken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connToken
}

func (r *Realtime) hookError(err error) {
	if r.cfg.OnError != nil {
		r.cfg.OnError(err)
	}
}

// socketURL rewrites the configured origin to the websocket scheme and
// appends the token query parameter.
func (r *Realtime) socketURL(token string) (string, error) {
	u, err := url.Parse(r.cfg.Origin)
	if err != nil {
		return "", err
	}
	switch {
	case u.Scheme == "https":
		u.Scheme = "wss"
	case u.Scheme == "http":
		u.Scheme = "ws"
	case strings.HasPrefix(u.Scheme, "ws"):
		// Already a websocket scheme.
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
