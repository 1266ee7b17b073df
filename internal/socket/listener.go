// Package socket implements the push half of the alert delivery pipeline: a
// persistent WebSocket client that surfaces connection lifecycle and message
// events, and an alert source that feeds pushed alert frames into the
// console.
package socket

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State is the listener's connection state. It is not persisted; every Start
// begins from StateDisconnected.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// Reconnect backoff bounds used when auto-reconnect is enabled.
const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Events are the caller-supplied callbacks for connection lifecycle and
// inbound messages. All callbacks are optional and are invoked from the
// listener's read goroutine.
type Events struct {
	// OnOpen fires when the connection is established.
	OnOpen func()

	// OnMessage fires for every inbound frame. The payload is the parsed
	// JSON value when the frame is valid JSON, otherwise the raw text
	// unchanged. Malformed input never produces an error.
	OnMessage func(data interface{})

	// OnError fires on connection errors.
	OnError func(err error)

	// OnClose fires when the connection goes away.
	OnClose func()
}

// Listener is a persistent WebSocket client with an explicit Start/Stop
// lifecycle. The historical implementation kept the connection in ambient
// component state; here the listener owns it and releases it on Stop.
type Listener struct {
	url       string
	events    Events
	logger    *slog.Logger
	dialer    *websocket.Dialer
	reconnect bool

	mu    sync.Mutex
	conn  *websocket.Conn
	state State
	stop  chan struct{}
	done  chan struct{}
}

// NewListener creates a listener for the given endpoint. With reconnect
// enabled a dropped connection is re-dialed with capped exponential backoff
// and jitter; disabled (the default elsewhere) the listener just reports the
// disconnect, matching the documented behavior.
func NewListener(url string, events Events, reconnect bool, logger *slog.Logger) *Listener {
	return &Listener{
		url:       url,
		events:    events,
		logger:    logger,
		dialer:    websocket.DefaultDialer,
		reconnect: reconnect,
		state:     StateDisconnected,
	}
}

// State returns the current connection state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}

func (l *Listener) setState(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = s
}

// Start dials the endpoint and begins the read loop. Without reconnect a
// failed dial is returned to the caller; with reconnect the listener keeps
// trying in the background and Start only fails on a second Start.
func (l *Listener) Start() error {
	l.mu.Lock()
	if l.stop != nil {
		l.mu.Unlock()
		return errAlreadyStarted
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.mu.Unlock()

	l.setState(StateConnecting)

	conn, err := l.dial()
	if err != nil && !l.reconnect {
		l.setState(StateError)
		l.resetLifecycle()
		return err
	}

	go l.run(conn)
	return nil
}

// Stop closes the connection and waits for the read loop to exit. Safe to
// call on a listener that never connected.
func (l *Listener) Stop() error {
	l.mu.Lock()
	if l.stop == nil {
		l.mu.Unlock()
		return nil
	}
	stop, done := l.stop, l.done
	l.mu.Unlock()

	close(stop)

	// Re-read the connection after signalling: the read goroutine may have
	// just finished dialing
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	<-done

	l.resetLifecycle()
	l.setState(StateDisconnected)
	return nil
}

func (l *Listener) resetLifecycle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stop = nil
	l.done = nil
	l.conn = nil
}

// Send transmits a value while the connection is open: strings go out as text
// frames, everything else is JSON-encoded. A value sent while disconnected is
// silently dropped; the listener does not queue.
func (l *Listener) Send(v interface{}) {
	l.mu.Lock()
	conn := l.conn
	connected := l.state == StateConnected
	l.mu.Unlock()

	if !connected || conn == nil {
		return
	}

	var payload []byte
	switch msg := v.(type) {
	case string:
		payload = []byte(msg)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			l.logger.Warn("dropping unencodable outbound frame", slog.Any("error", err))
			return
		}
		payload = encoded
	}

	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		l.logger.Warn("outbound frame failed", slog.Any("error", err))
	}
}

func (l *Listener) dial() (*websocket.Conn, error) {
	conn, resp, err := l.dialer.Dial(l.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// run owns the connection: it reads frames until the connection drops, then
// either returns or re-dials depending on the reconnect setting.
func (l *Listener) run(conn *websocket.Conn) {
	defer close(l.done)

	backoff := initialBackoff

	for {
		if conn == nil {
			var err error
			conn, err = l.dial()
			if err != nil {
				l.setState(StateError)
				if l.events.OnError != nil {
					l.events.OnError(err)
				}
				if !l.reconnect {
					return
				}

				// Capped exponential backoff with jitter
				wait := backoff + time.Duration(rand.Int63n(int64(backoff/2+1)))
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}

				select {
				case <-l.stop:
					return
				case <-time.After(wait):
					continue
				}
			}
		}

		backoff = initialBackoff

		l.mu.Lock()
		l.conn = conn
		l.state = StateConnected
		l.mu.Unlock()

		// Stop may have fired while we were dialing, before it could see
		// the connection to close it
		select {
		case <-l.stop:
			_ = conn.Close()
			l.mu.Lock()
			l.conn = nil
			l.state = StateDisconnected
			l.mu.Unlock()
			return
		default:
		}

		if l.events.OnOpen != nil {
			l.events.OnOpen()
		}

		l.readLoop(conn)

		l.mu.Lock()
		l.conn = nil
		l.state = StateDisconnected
		l.mu.Unlock()

		if l.events.OnClose != nil {
			l.events.OnClose()
		}

		select {
		case <-l.stop:
			return
		default:
		}

		if !l.reconnect {
			return
		}
		conn = nil
	}
}

// readLoop reads frames until the connection errors or is closed.
func (l *Listener) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-l.stop:
				// Deliberate shutdown, not an error
			default:
				if l.events.OnError != nil {
					l.events.OnError(err)
				}
			}
			return
		}

		if l.events.OnMessage != nil {
			l.events.OnMessage(decodeFrame(data))
		}
	}
}

// decodeFrame attempts to parse a frame as JSON; anything unparseable passes
// through as the raw text unchanged.
func decodeFrame(data []byte) interface{} {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}
