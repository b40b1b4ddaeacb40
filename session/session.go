// session/session.go
package session

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/wfunc/gameclient/auth"
	"github.com/wfunc/gameclient/broadcast"
	"github.com/wfunc/gameclient/identity"
	"github.com/wfunc/gameclient/logger"
	"github.com/wfunc/gameclient/monitor"
	"github.com/wfunc/gameclient/network"
	"github.com/wfunc/gameclient/room"
	"github.com/wfunc/gameclient/selection"
	"github.com/wfunc/gameclient/services"
	"github.com/wfunc/gameclient/state"
	"github.com/wfunc/gameclient/timer"
)

const DefaultEventBuffer = 256

var ErrClosed = errors.New("session closed")

// Authenticator is the account service.
type Authenticator interface {
	Authenticate(ctx context.Context, mode auth.Mode, username, password string) (*auth.Session, error)
	Profile(ctx context.Context, token string) (*auth.Profile, error)
}

type Options struct {
	ServerURL      string
	DisplayName    string
	ReconnectDelay time.Duration
	LogCapacity    int
	EventBuffer    int

	Identity  *identity.Store
	Auth      Authenticator
	Dialer    network.Dialer
	Scheduler timer.Scheduler
	Hub       broadcast.Broadcaster
	Monitor   *monitor.Monitor
}

type command struct {
	fn    func() error
	reply chan error
}

// Session owns the connection and all client state. Run is the only goroutine that touches
// them; everything else goes through Post or Exec.
type Session struct {
	ID        string
	CreatedAt time.Time

	identity    *identity.Store
	auth        Authenticator
	hub         broadcast.Broadcaster
	monitor     *monitor.Monitor
	displayName string

	conn       *network.Manager
	store      *state.Store
	cards      *selection.Controller
	defense    *selection.Negotiator
	lobby      *services.LobbyService
	dispatcher *Dispatcher

	events   chan network.Event
	commands chan command
	done     chan struct{}
}

func NewSession(opts Options) *Session {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = network.DefaultReconnectDelay
	}
	if opts.Identity == nil {
		opts.Identity = identity.NewStore(nil)
	}
	if opts.Monitor == nil {
		opts.Monitor = monitor.NewMonitor("gameclient")
	}
	if opts.Hub == nil {
		opts.Hub = broadcast.NewHub()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = timer.NewTimerManager(0)
	}

	s := &Session{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now(),
		identity:    opts.Identity,
		auth:        opts.Auth,
		hub:         opts.Hub,
		monitor:     opts.Monitor,
		displayName: opts.DisplayName,
		events:      make(chan network.Event, opts.EventBuffer),
		commands:    make(chan command),
		done:        make(chan struct{}),
	}

	s.conn = network.NewManager(network.Options{
		URL:         opts.ServerURL,
		Dialer:      opts.Dialer,
		Scheduler:   opts.Scheduler,
		Backoff:     backoff.NewConstantBackOff(opts.ReconnectDelay),
		Credentials: opts.Identity,
		Events:      s,
		Broadcaster: opts.Hub,
		Monitor:     opts.Monitor,
	})
	s.store = state.NewStore(opts.LogCapacity, room.NewDirectory())
	s.cards = selection.NewController(s.store, s.conn, opts.Monitor)
	s.defense = selection.NewNegotiator(s.conn)
	s.lobby = services.NewLobbyService(s.conn, s.store, s.cards, s.defense, opts.Identity)
	s.dispatcher = NewDispatcher(s.store, s.cards, s.defense, opts.Identity, opts.Hub, opts.Monitor)
	return s
}

// Post hands a connection event to the loop. It never blocks after the loop has stopped.
func (s *Session) Post(ev network.Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Exec runs fn on the loop and returns its error.
func (s *Session) Exec(ctx context.Context, fn func() error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events and commands one at a time until ctx ends.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	logger.Log.Infof("session %s started", s.ID)

	for {
		select {
		case <-ctx.Done():
			s.conn.Close()
			logger.Log.Infof("session %s stopped", s.ID)
			return nil
		case ev := <-s.events:
			s.handleEvent(ev)
		case cmd := <-s.commands:
			cmd.reply <- s.call(cmd.fn)
		}
	}
}

func (s *Session) handleEvent(ev network.Event) {
	switch e := ev.(type) {
	case network.Opened:
		s.conn.HandleOpened(e)
	case network.Closed:
		s.conn.HandleClosed(e)
	case network.Received:
		if data, ok := s.conn.HandleReceived(e); ok {
			s.dispatcher.Dispatch(data)
		}
	case network.ReconnectDue:
		s.conn.HandleReconnectDue(e)
	}
}

func (s *Session) call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("command panic: %v", r)
			err = errors.New("internal error")
		}
	}()
	return fn()
}

// Authenticate logs in or registers, stores the session and connects. A failure is reported
// once and never starts the reconnect loop.
func (s *Session) Authenticate(ctx context.Context, mode auth.Mode, username, password, displayName string) error {
	result, err := s.auth.Authenticate(ctx, mode, username, password)
	if err != nil {
		logger.Log.Warnf("%s failed: %v", mode, err)
		s.hub.Publish(broadcast.Update{Kind: broadcast.KindError, Message: err.Error()})
		return err
	}
	return s.Exec(ctx, func() error {
		s.identity.SetSession(result.Token, result.Username)
		name := firstNonEmpty(displayName, s.displayName, s.identity.DisplayName(), result.Username)
		return s.conn.Connect(name)
	})
}

// Restore reuses a stored session token. A token the server rejects is cleared and the user has
// to log in again; an unreachable server is left to the reconnect loop.
func (s *Session) Restore(ctx context.Context) error {
	token, ok := s.identity.SessionToken()
	if !ok {
		return s.Exec(ctx, func() error { return s.conn.Connect(s.displayName) })
	}

	profile, err := s.auth.Profile(ctx, token)
	if err != nil {
		var authErr *auth.Error
		if errors.As(err, &authErr) {
			logger.Log.Warnf("stored session rejected: %v", err)
			return s.Exec(ctx, func() error {
				s.identity.ClearSession()
				return s.conn.Connect("")
			})
		}
		logger.Log.Warnf("cannot verify session, connecting anyway: %v", err)
	}

	return s.Exec(ctx, func() error {
		if profile != nil {
			s.identity.SetSession(token, profile.Username)
		}
		return s.conn.Connect(s.displayName)
	})
}

// Logout forgets the session and drops the connection.
func (s *Session) Logout(ctx context.Context) error {
	return s.Exec(ctx, func() error {
		s.identity.ClearSession()
		s.conn.Close()
		s.store.LeaveRoom()
		s.defense.Cancel()
		s.cards.Clear()
		s.cards.ClearTarget()
		s.hub.Publish(broadcast.Update{Kind: broadcast.KindAuthRequired, Message: "logged out"})
		return nil
	})
}

// The accessors below must only be used inside Exec.

func (s *Session) Store() *state.Store            { return s.store }
func (s *Session) Cards() *selection.Controller   { return s.cards }
func (s *Session) Defense() *selection.Negotiator { return s.defense }
func (s *Session) Lobby() *services.LobbyService  { return s.lobby }
func (s *Session) Connection() *network.Manager   { return s.conn }
func (s *Session) Identity() *identity.Store      { return s.identity }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
