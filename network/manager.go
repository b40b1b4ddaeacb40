package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/wfunc/gameclient/broadcast"
	"github.com/wfunc/gameclient/logger"
	"github.com/wfunc/gameclient/monitor"
	"github.com/wfunc/gameclient/timer"
)

const (
	DefaultReconnectDelay = 2 * time.Second
	DefaultDialTimeout    = 10 * time.Second
	DefaultDisplayName    = "Player"
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrNotConnected = errors.New("connection is not open")
)

type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Open
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	default:
		return "disconnected"
	}
}

// Event is produced by connection goroutines and handled on the owner's loop.
type Event interface {
	isEvent()
}

type Opened struct {
	Gen  uint64
	Conn Connection
}

type Closed struct {
	Gen uint64
	Err error
}

type Received struct {
	Gen  uint64
	Data []byte
}

type ReconnectDue struct {
	Seq uint64
}

func (Opened) isEvent()       {}
func (Closed) isEvent()       {}
func (Received) isEvent()     {}
func (ReconnectDue) isEvent() {}

// Poster delivers events to the loop that owns the Manager.
type Poster interface {
	Post(ev Event)
}

// Credentials is what the handshake needs from the identity store.
type Credentials interface {
	DeviceToken() string
	SessionToken() (string, bool)
	AccountName() string
	DisplayName() string
	SetDisplayName(name string)
	LastRoom() string
}

type Options struct {
	URL         string
	Dialer      Dialer
	Scheduler   timer.Scheduler
	Backoff     backoff.BackOff
	Credentials Credentials
	Events      Poster
	Broadcaster broadcast.Broadcaster
	Monitor     *monitor.Monitor
	DialTimeout time.Duration
}

// Manager owns the single server connection. All methods must be called from the owner's loop;
// dial and read goroutines only talk back through Events, tagged with the generation that
// started them so late events from a replaced connection are ignored.
type Manager struct {
	url         string
	dialer      Dialer
	scheduler   timer.Scheduler
	backoff     backoff.BackOff
	creds       Credentials
	events      Poster
	broadcaster broadcast.Broadcaster
	monitor     *monitor.Monitor
	dialTimeout time.Duration

	state        ConnState
	gen          uint64
	conn         Connection
	cancelDial   context.CancelFunc
	timerID      int64
	reconnectSeq uint64
	rejoin       string
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		url:         opts.URL,
		dialer:      opts.Dialer,
		scheduler:   opts.Scheduler,
		backoff:     opts.Backoff,
		creds:       opts.Credentials,
		events:      opts.Events,
		broadcaster: opts.Broadcaster,
		monitor:     opts.Monitor,
		dialTimeout: opts.DialTimeout,
	}
	if m.dialer == nil {
		m.dialer = WSDialer{}
	}
	if m.backoff == nil {
		m.backoff = backoff.NewConstantBackOff(DefaultReconnectDelay)
	}
	if m.monitor == nil {
		m.monitor = monitor.NewMonitor("gameclient")
	}
	if m.dialTimeout <= 0 {
		m.dialTimeout = DefaultDialTimeout
	}
	return m
}

func (m *Manager) State() ConnState {
	return m.state
}

// Generation identifies the current connection attempt.
func (m *Manager) Generation() uint64 {
	return m.gen
}

// ReconnectPending reports whether a reconnect timer is armed.
func (m *Manager) ReconnectPending() bool {
	return m.timerID != 0
}

// RejoinRoom is the room requested in the handshake of the attempt in progress.
func (m *Manager) RejoinRoom() string {
	return m.rejoin
}

// Connect replaces any existing connection with a new attempt. Without a stored session token it
// only signals auth-required and fails with ErrAuthRequired; the current connection is untouched.
func (m *Manager) Connect(displayName string) error {
	auth, ok := m.creds.SessionToken()
	if !ok {
		m.authRequired()
		return ErrAuthRequired
	}

	name := firstNonEmpty(displayName, m.creds.DisplayName(), m.creds.AccountName(), DefaultDisplayName)
	m.creds.SetDisplayName(name)
	if stored := m.creds.DisplayName(); stored != "" {
		name = stored
	}

	m.cancelReconnect()
	m.closeCurrent()
	m.gen++
	gen := m.gen
	m.rejoin = m.creds.LastRoom()

	rawURL, err := BuildURL(m.url, Params{
		Name:  name,
		Token: m.creds.DeviceToken(),
		Auth:  auth,
		Room:  m.rejoin,
	})
	if err != nil {
		m.setState(Disconnected)
		return fmt.Errorf("build server url: %w", err)
	}

	m.setState(Connecting)
	logger.Log.Infof("connecting as %s (room %q, attempt %d)", name, m.rejoin, gen)

	ctx, cancel := context.WithTimeout(context.Background(), m.dialTimeout)
	m.cancelDial = cancel
	dialer, events := m.dialer, m.events
	go func() {
		defer cancel()
		conn, err := dialer.Dial(ctx, rawURL)
		if err != nil {
			events.Post(Closed{Gen: gen, Err: err})
			return
		}
		events.Post(Opened{Gen: gen, Conn: conn})
	}()
	return nil
}

func (m *Manager) HandleOpened(ev Opened) {
	if ev.Gen != m.gen || m.state != Connecting {
		ev.Conn.Close()
		return
	}
	m.cancelDial = nil
	m.conn = ev.Conn
	m.rejoin = ""
	m.backoff.Reset()
	m.setState(Open)
	logger.Log.Infof("connected to %s (%v)", m.url, ev.Conn.RemoteAddr())

	go readPump(ev.Gen, ev.Conn, m.events)

	m.Send(LobbyList())
}

// HandleReceived returns the frame when it belongs to the current connection.
func (m *Manager) HandleReceived(ev Received) ([]byte, bool) {
	if ev.Gen != m.gen || m.state != Open {
		return nil, false
	}
	return ev.Data, true
}

// HandleClosed tears down the current connection and arms at most one reconnect timer.
func (m *Manager) HandleClosed(ev Closed) {
	if ev.Gen != m.gen || m.state == Disconnected {
		return
	}
	if ev.Err != nil {
		logger.Log.Warnf("connection closed: %v", ev.Err)
	}
	m.closeCurrent()
	m.setState(Disconnected)

	if _, ok := m.creds.SessionToken(); !ok {
		m.authRequired()
		return
	}
	if m.timerID != 0 {
		return
	}

	delay := m.backoff.NextBackOff()
	if delay == backoff.Stop || delay < 0 {
		delay = DefaultReconnectDelay
	}
	m.reconnectSeq++
	seq, events := m.reconnectSeq, m.events
	m.timerID = m.scheduler.AddTimer(delay, 0, func() {
		events.Post(ReconnectDue{Seq: seq})
	})
	m.monitor.IncReconnectAttempts()
	m.publish(broadcast.KindConnection, fmt.Sprintf("connection lost, retrying in %s", delay))
}

func (m *Manager) HandleReconnectDue(ev ReconnectDue) {
	if ev.Seq != m.reconnectSeq || m.timerID == 0 {
		return
	}
	m.timerID = 0
	if err := m.Connect(""); err != nil {
		logger.Log.Warnf("reconnect failed: %v", err)
	}
}

// Send writes env on the open connection. While not open the action is dropped.
func (m *Manager) Send(env Envelope) error {
	if m.state != Open || m.conn == nil {
		logger.Log.Warnf("connection not open, dropping %s", env.Type)
		m.monitor.IncSendsDropped()
		return ErrNotConnected
	}
	if err := m.conn.WriteJSON(env); err != nil {
		logger.Log.Warnf("send %s failed: %v", env.Type, err)
		return fmt.Errorf("send %s: %w", env.Type, err)
	}
	m.monitor.IncMessagesSent(env.Type)
	return nil
}

// Close drops the connection without scheduling a reconnect.
func (m *Manager) Close() {
	m.cancelReconnect()
	m.closeCurrent()
	m.gen++
	m.setState(Disconnected)
}

func readPump(gen uint64, conn Connection, events Poster) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			events.Post(Closed{Gen: gen, Err: err})
			return
		}
		events.Post(Received{Gen: gen, Data: data})
	}
}

func (m *Manager) cancelReconnect() {
	if m.timerID != 0 {
		m.scheduler.RemoveTimer(m.timerID)
		m.timerID = 0
	}
}

func (m *Manager) closeCurrent() {
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

func (m *Manager) setState(state ConnState) {
	m.state = state
	m.monitor.SetConnectionState(int(state))
}

func (m *Manager) authRequired() {
	logger.Log.Info("no session token, login required")
	m.publish(broadcast.KindAuthRequired, "login required")
}

func (m *Manager) publish(kind broadcast.Kind, message string) {
	if m.broadcaster != nil {
		m.broadcaster.Publish(broadcast.Update{Kind: kind, Message: message})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
