package network

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/gameclient/models"
)

func TestOutboundEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{"lobby list", LobbyList(), `{"type":"lobby_list","payload":{}}`},
		{"create", CreateRoom("den"), `{"type":"room_create","payload":{"name":"den"}}`},
		{"join", JoinRoom("r1"), `{"type":"room_join","payload":{"roomId":"r1"}}`},
		{"leave", LeaveRoom(), `{"type":"room_leave","payload":{}}`},
		{"bot without name", AddBot(""), `{"type":"room_add_bot","payload":{}}`},
		{"bot", AddBot("Rex"), `{"type":"room_add_bot","payload":{"name":"Rex"}}`},
		{"unbot", RemoveBot(3), `{"type":"room_remove_bot","payload":{"seat":3}}`},
		{"start", StartGame(), `{"type":"start_game","payload":{}}`},
		{"challenge sorted", Challenge(2, []int{4, 1}), `{"type":"action_challenge","payload":{"targetId":2,"cards":[1,4]}}`},
		{"empty defense", Defense(nil), `{"type":"action_defense","payload":{"cards":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.env)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestChallengeDoesNotReorderCaller(t *testing.T) {
	cards := []int{3, 0}
	Challenge(1, cards)
	assert.Equal(t, []int{3, 0}, cards)
}

func TestDecodeWelcome(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"welcome","payload":{"roomId":"r1","roomName":"Den","seatIndex":2,
		"status":"running","token":"token-x","capacity":6,"displayName":"Al","account":"al","userId":9,"hostSeat":0}}`))
	require.NoError(t, err)

	w, ok := msg.(Welcome)
	require.True(t, ok)
	assert.Equal(t, "r1", w.RoomID)
	assert.Equal(t, 2, w.SeatIndex)
	assert.Equal(t, models.StatusRunning, w.Status)
	require.NotNil(t, w.HostSeat)
	assert.Equal(t, 0, *w.HostSeat)

	msg, err = Decode([]byte(`{"type":"welcome","payload":{"token":"t"}}`))
	require.NoError(t, err)
	assert.Equal(t, -1, msg.(Welcome).SeatIndex)
	assert.Nil(t, msg.(Welcome).HostSeat)
}

func TestDecodePublicState(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"public_state","payload":{"roomId":"r1","roomName":"Den","status":"running",
		"hostSeat":1,"seats":[{"index":0,"name":"A","filled":true},{"index":1,"name":"B","filled":true,"isBot":true}],
		"publicGame":{"snapshot":{"round":2,"maxRounds":8,"players":[{"id":0,"name":"A","alive":true,"handSize":4}]},
		"currentTurn":0,"currentRound":2,"pendingType":"defense"}}}`))
	require.NoError(t, err)

	snap, ok := msg.(RoomSnapshot)
	require.True(t, ok)
	assert.True(t, snap.Public)
	assert.Equal(t, MsgPublicState, snap.MessageType())
	assert.Equal(t, 1, snap.Room.HostSeat)
	assert.Len(t, snap.Room.Seats, 2)
	require.NotNil(t, snap.Game)
	assert.Equal(t, 8, snap.Game.MaxRounds)
	assert.Equal(t, "defense", snap.Game.PendingType)
	assert.Len(t, snap.Game.Players, 1)

	msg, err = Decode([]byte(`{"type":"lobby_state","payload":{"roomId":"r1","status":"lobby","seats":[]}}`))
	require.NoError(t, err)
	snap = msg.(RoomSnapshot)
	assert.False(t, snap.Public)
	assert.Nil(t, snap.HostSeat)
	assert.Equal(t, -1, snap.Room.HostSeat)
	assert.Nil(t, snap.Game)
}

func TestDecodePrivateState(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"private_state","payload":{"snapshot":{"playerId":1,"name":"A",
		"identity":"人類","hand":[{"index":0,"kind":0,"suit":"♠","value":7,"label":"♠7"}]}}}`))
	require.NoError(t, err)
	ps := msg.(PrivateState)
	require.NotNil(t, ps.Snapshot)
	assert.Equal(t, models.IdentityHuman, ps.Snapshot.Identity)
	assert.Len(t, ps.Snapshot.Hand, 1)

	for _, raw := range []string{
		`{"type":"private_state","payload":{"snapshot":null}}`,
		`{"type":"private_state","payload":{"snapshot":{}}}`,
		`{"type":"private_state","payload":{}}`,
		`{"type":"private_state","payload":null}`,
		`{"type":"private_state","payload":{"snapshot":{"playerId":0,"name":"","identity":"","originalIdentity":"","hand":null}}}`,
		`{"type":"private_state","payload":{"snapshot":{"playerId":2,"identity":"人類","hand":[]}}}`,
	} {
		msg, err := Decode([]byte(raw))
		require.NoError(t, err, raw)
		assert.Nil(t, msg.(PrivateState).Snapshot, raw)
	}
}

func TestDecodeDefensePrompt(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"defense_prompt","payload":{"attackerId":3,"attackerName":"Z",
		"attackCards":[{"index":0,"kind":0,"suit":"♥","value":5}],"suit":"♥",
		"options":[{"index":1,"kind":0,"suit":"♥","value":9},{"index":4,"kind":3}]}}`))
	require.NoError(t, err)
	prompt := msg.(DefensePromptMsg).Prompt
	require.NotNil(t, prompt)
	assert.Equal(t, models.DefaultMaxSelectable, prompt.MaxSelectable)
	assert.Len(t, prompt.Options, 2)
	assert.Equal(t, "♥", prompt.Suit)

	msg, err = Decode([]byte(`{"type":"defense_prompt","payload":{"options":[],"maxSelectable":2}}`))
	require.NoError(t, err)
	require.NotNil(t, msg.(DefensePromptMsg).Prompt)
	assert.Equal(t, 2, msg.(DefensePromptMsg).Prompt.MaxSelectable)

	for _, raw := range []string{
		`{"type":"defense_prompt","payload":null}`,
		`{"type":"defense_prompt","payload":{"options":null}}`,
	} {
		msg, err := Decode([]byte(raw))
		require.NoError(t, err)
		assert.Nil(t, msg.(DefensePromptMsg).Prompt, raw)
	}
}

func TestDecodeMessages(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"turn_prompt","payload":{"playerId":2,"name":"B"}}`))
	require.NoError(t, err)
	assert.Equal(t, TurnPrompt{PlayerID: 2, Name: "B"}, msg)

	msg, err = Decode([]byte(`{"type":"error","payload":{"message":"room full"}}`))
	require.NoError(t, err)
	assert.Equal(t, Notice{Type: MsgError, Message: "room full"}, msg)

	msg, err = Decode([]byte(`{"type":"lobby_rooms","payload":{"rooms":[{"roomId":"r1","name":"Den","status":"lobby","players":1,"capacity":6}]}}`))
	require.NoError(t, err)
	assert.Len(t, msg.(LobbyRooms).Rooms, 1)
}

func TestDecodeUnknownAndMalformed(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"spectator_chat","payload":{"text":"hi"}}`))
	require.NoError(t, err)
	u, ok := msg.(Unknown)
	require.True(t, ok)
	assert.Equal(t, "spectator_chat", u.MessageType())

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Decode([]byte(`{"type":"log","payload":"plain string"}`))
	assert.Error(t, err)
}
