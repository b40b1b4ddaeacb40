package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/gameclient/models"
	"github.com/wfunc/gameclient/network"
	"github.com/wfunc/gameclient/selection"
	"github.com/wfunc/gameclient/state"
)

type fakeSender struct {
	sent []network.Envelope
}

func (s *fakeSender) Send(env network.Envelope) error {
	s.sent = append(s.sent, env)
	return nil
}

func (s *fakeSender) types() []string {
	var out []string
	for _, env := range s.sent {
		out = append(out, env.Type)
	}
	return out
}

type fakeBookmark struct {
	room string
}

func (b *fakeBookmark) SetLastRoom(roomID string) { b.room = roomID }

type fixture struct {
	service  *LobbyService
	sender   *fakeSender
	store    *state.Store
	cards    *selection.Controller
	defense  *selection.Negotiator
	bookmark *fakeBookmark
}

func newFixture() *fixture {
	f := &fixture{
		sender:   &fakeSender{},
		store:    state.NewStore(0, nil),
		bookmark: &fakeBookmark{room: "r1"},
	}
	f.cards = selection.NewController(f.store, f.sender, nil)
	f.defense = selection.NewNegotiator(f.sender)
	f.service = NewLobbyService(f.sender, f.store, f.cards, f.defense, f.bookmark)
	return f
}

func (f *fixture) joinRoom() {
	f.store.ApplyWelcome(network.Welcome{RoomID: "r1", SeatIndex: 0, Status: models.StatusLobby})
	f.store.ApplyRoomSnapshot(network.RoomSnapshot{Room: models.RoomState{
		RoomID: "r1",
		Status: models.StatusLobby,
		Seats: []models.Seat{
			{Index: 0, Name: "me", Filled: true},
			{Index: 1, Name: "Bot", Filled: true, IsBot: true},
			{Index: 2},
		},
	}})
}

func TestCreateRoom_DefaultName(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.service.CreateRoom("   "))
	require.NoError(t, f.service.CreateRoom(" Den "))

	assert.Equal(t, network.CreateRoomPayload{Name: DefaultRoomName}, f.sender.sent[0].Payload)
	assert.Equal(t, network.CreateRoomPayload{Name: "Den"}, f.sender.sent[1].Payload)
}

func TestJoinRoom(t *testing.T) {
	f := newFixture()
	assert.ErrorIs(t, f.service.JoinRoom(" "), ErrRoomIDRequired)
	require.NoError(t, f.service.JoinRoom("r7"))
	assert.Equal(t, network.JoinRoomPayload{RoomID: "r7"}, f.sender.sent[0].Payload)

	f.store.SetLobbyRooms([]models.RoomSummary{
		{RoomID: "full", Status: models.StatusLobby, Players: 4, Capacity: 4},
		{RoomID: "live", Status: models.StatusRunning, Players: 4, Capacity: 4},
	})
	assert.ErrorIs(t, f.service.JoinRoom("full"), ErrRoomFull)
	require.NoError(t, f.service.JoinRoom("live"))
	assert.Len(t, f.sender.sent, 2)
}

func TestQuickJoin(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.service.QuickJoin())
	assert.Equal(t, network.MsgRoomCreate, f.sender.sent[0].Type)

	f.store.SetLobbyRooms([]models.RoomSummary{
		{RoomID: "busy", Status: models.StatusRunning, Players: 1, Capacity: 4},
		{RoomID: "open", Status: models.StatusLobby, Players: 1, Capacity: 4},
	})
	require.NoError(t, f.service.QuickJoin())
	assert.Equal(t, network.JoinRoomPayload{RoomID: "open"}, f.sender.sent[1].Payload)
}

func TestLeaveRoom(t *testing.T) {
	f := newFixture()
	assert.ErrorIs(t, f.service.LeaveRoom(), ErrNotInRoom)

	f.joinRoom()
	f.defense.Prompt(&models.DefensePrompt{Options: []models.Card{{Index: 1}}})

	require.NoError(t, f.service.LeaveRoom())

	assert.Equal(t, []string{network.MsgRoomLeave, network.MsgLobbyList}, f.sender.types())
	assert.Equal(t, state.ViewLobby, f.store.ViewMode())
	assert.Nil(t, f.defense.Pending())
	assert.Empty(t, f.bookmark.room)
}

func TestBots(t *testing.T) {
	f := newFixture()
	assert.ErrorIs(t, f.service.AddBot(""), ErrNotInRoom)
	assert.ErrorIs(t, f.service.RemoveBot(1), ErrNotInRoom)

	f.joinRoom()
	require.NoError(t, f.service.AddBot(" Rex "))
	assert.Equal(t, network.AddBotPayload{Name: "Rex"}, f.sender.sent[0].Payload)

	assert.ErrorIs(t, f.service.RemoveBot(0), ErrNotBotSeat)
	assert.ErrorIs(t, f.service.RemoveBot(5), ErrNotBotSeat)
	require.NoError(t, f.service.RemoveBot(1))
	assert.Equal(t, network.RemoveBotPayload{Seat: 1}, f.sender.sent[1].Payload)
}

func TestStartGame(t *testing.T) {
	f := newFixture()
	assert.ErrorIs(t, f.service.StartGame(), ErrNotInRoom)
	f.joinRoom()
	require.NoError(t, f.service.StartGame())
	assert.Equal(t, []string{network.MsgStartGame}, f.sender.types())
}
