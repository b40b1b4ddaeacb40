package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/gameclient/broadcast"
	"github.com/wfunc/gameclient/models"
	"github.com/wfunc/gameclient/network"
	"github.com/wfunc/gameclient/selection"
	"github.com/wfunc/gameclient/session"
	"github.com/wfunc/gameclient/state"
)

func runningSession(t *testing.T) *session.Session {
	t.Helper()
	sess := session.NewSession(session.Options{ServerURL: "ws://game.test/ws"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return sess
}

func TestRunCommand(t *testing.T) {
	sess := runningSession(t)
	ctx := context.Background()
	var out bytes.Buffer

	assert.NoError(t, runCommand(ctx, sess, &out, "   "))
	assert.ErrorIs(t, runCommand(ctx, sess, &out, "QUIT"), errQuit)
	assert.ErrorIs(t, runCommand(ctx, sess, &out, "login al"), errBadArguments)
	assert.ErrorIs(t, runCommand(ctx, sess, &out, "dance"), errUnknown)
	assert.ErrorIs(t, runCommand(ctx, sess, &out, "join"), errBadArguments)
	assert.ErrorIs(t, runCommand(ctx, sess, &out, "card x"), errBadArguments)
	assert.ErrorIs(t, runCommand(ctx, sess, &out, "card 3"), selection.ErrUnknownCard)
	assert.ErrorIs(t, runCommand(ctx, sess, &out, "confirm"), selection.ErrNoPendingDefense)
	assert.ErrorIs(t, runCommand(ctx, sess, &out, "rooms"), network.ErrNotConnected)

	require.NoError(t, runCommand(ctx, sess, &out, "state"))
	assert.Contains(t, out.String(), "[LOBBY]")
	assert.Contains(t, out.String(), "0 rooms")
}

func TestDescribeSeat(t *testing.T) {
	store := state.NewStore(0, nil)
	host := 0
	store.ApplyWelcome(network.Welcome{RoomID: "r1", SeatIndex: 1, Status: models.StatusLobby, HostSeat: &host})

	out := false
	assert.Equal(t, "2: (empty)", describeSeat(models.Seat{Index: 2}, store))
	assert.Equal(t, "0: Al (host)", describeSeat(models.Seat{Index: 0, Name: "Al", Filled: true}, store))
	assert.Equal(t, "1: Bo (bot, you, out)", describeSeat(models.Seat{Index: 1, Name: "Bo", Filled: true, IsBot: true, Alive: &out}, store))
}

func TestPrintUpdates(t *testing.T) {
	updates := make(chan broadcast.Update, 3)
	updates <- broadcast.Update{Kind: broadcast.KindView}
	updates <- broadcast.Update{Kind: broadcast.KindTurn, Message: "your turn", Time: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)}
	close(updates)

	var out bytes.Buffer
	require.NoError(t, printUpdates(context.Background(), &out, updates))
	assert.Equal(t, "09:30:00 [turn] your turn\n", out.String())
}

func TestReadCommandsStopsOnQuit(t *testing.T) {
	sess := runningSession(t)
	hub := broadcast.NewHub()
	warnings, unsubscribe := hub.Subscribe(4)
	defer unsubscribe()

	var out bytes.Buffer
	err := readCommands(context.Background(), sess, hub, strings.NewReader("bogus\nquit\nstart\n"), &out)
	assert.ErrorIs(t, err, errQuit)

	select {
	case u := <-warnings:
		assert.Equal(t, broadcast.KindWarning, u.Kind)
		assert.Equal(t, errUnknown.Error(), u.Message)
	default:
		t.Fatal("expected a warning for the unknown command")
	}
}
