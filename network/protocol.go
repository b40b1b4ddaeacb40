package network

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/wfunc/gameclient/models"
)

// Outbound action types.
const (
	MsgLobbyList     = "lobby_list"
	MsgRoomCreate    = "room_create"
	MsgRoomJoin      = "room_join"
	MsgRoomLeave     = "room_leave"
	MsgRoomAddBot    = "room_add_bot"
	MsgRoomRemoveBot = "room_remove_bot"
	MsgStartGame     = "start_game"
	MsgChallenge     = "action_challenge"
	MsgDefense       = "action_defense"
)

// Inbound message types.
const (
	MsgWelcome       = "welcome"
	MsgLobbyRooms    = "lobby_rooms"
	MsgLobbyState    = "lobby_state"
	MsgPublicState   = "public_state"
	MsgPrivateState  = "private_state"
	MsgDefensePrompt = "defense_prompt"
	MsgTurnPrompt    = "turn_prompt"
	MsgLog           = "log"
	MsgError         = "error"
	MsgPrivateInfo   = "private_info"
)

var ErrMissingType = errors.New("message without type")

// Envelope is the {type, payload} frame used in both directions.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type rawEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type emptyPayload struct{}

type CreateRoomPayload struct {
	Name string `json:"name"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type AddBotPayload struct {
	Name string `json:"name,omitempty"`
}

type RemoveBotPayload struct {
	Seat int `json:"seat"`
}

type ChallengePayload struct {
	TargetID int   `json:"targetId"`
	Cards    []int `json:"cards"`
}

type DefensePayload struct {
	Cards []int `json:"cards"`
}

func LobbyList() Envelope {
	return Envelope{Type: MsgLobbyList, Payload: emptyPayload{}}
}

func CreateRoom(name string) Envelope {
	return Envelope{Type: MsgRoomCreate, Payload: CreateRoomPayload{Name: name}}
}

func JoinRoom(roomID string) Envelope {
	return Envelope{Type: MsgRoomJoin, Payload: JoinRoomPayload{RoomID: roomID}}
}

func LeaveRoom() Envelope {
	return Envelope{Type: MsgRoomLeave, Payload: emptyPayload{}}
}

func AddBot(name string) Envelope {
	return Envelope{Type: MsgRoomAddBot, Payload: AddBotPayload{Name: name}}
}

func RemoveBot(seat int) Envelope {
	return Envelope{Type: MsgRoomRemoveBot, Payload: RemoveBotPayload{Seat: seat}}
}

func StartGame() Envelope {
	return Envelope{Type: MsgStartGame, Payload: emptyPayload{}}
}

// Challenge builds an attack; the card indices are sent sorted ascending.
func Challenge(targetID int, cards []int) Envelope {
	return Envelope{Type: MsgChallenge, Payload: ChallengePayload{TargetID: targetID, Cards: sortedCopy(cards)}}
}

// Defense builds a defense response. An empty list means no defense.
func Defense(cards []int) Envelope {
	return Envelope{Type: MsgDefense, Payload: DefensePayload{Cards: sortedCopy(cards)}}
}

func sortedCopy(indices []int) []int {
	out := make([]int, len(indices))
	copy(out, indices)
	sort.Ints(out)
	return out
}

// Inbound is the closed set of decoded server messages.
type Inbound interface {
	MessageType() string
}

type Welcome struct {
	RoomID      string
	RoomName    string
	SeatIndex   int // -1 when not seated
	Status      models.Status
	Token       string
	Capacity    int
	DisplayName string
	Account     string
	UserID      int64
	HostSeat    *int
}

type LobbyRooms struct {
	Rooms []models.RoomSummary
}

// RoomSnapshot is a lobby_state (Public false) or public_state (Public true) message.
type RoomSnapshot struct {
	Public   bool
	Room     models.RoomState
	HostSeat *int
	Game     *models.PublicGameView
}

// PrivateState carries the own hand; a nil Snapshot means the hand was taken away. The server
// clears hands with a zero-valued snapshot and eliminated players keep an empty one, so any
// snapshot without cards decodes to nil.
type PrivateState struct {
	Snapshot *models.PrivateSnapshot
}

// DefensePromptMsg arms the defense negotiator; a nil Prompt withdraws it.
type DefensePromptMsg struct {
	Prompt *models.DefensePrompt
}

type TurnPrompt struct {
	PlayerID int
	Name     string
}

type LogLine struct {
	Message string
}

// Notice is an error or private_info message.
type Notice struct {
	Type    string
	Message string
}

// Unknown keeps messages from newer servers so they can be logged and skipped.
type Unknown struct {
	Type    string
	Payload json.RawMessage
}

func (Welcome) MessageType() string          { return MsgWelcome }
func (LobbyRooms) MessageType() string       { return MsgLobbyRooms }
func (PrivateState) MessageType() string     { return MsgPrivateState }
func (DefensePromptMsg) MessageType() string { return MsgDefensePrompt }
func (TurnPrompt) MessageType() string       { return MsgTurnPrompt }
func (LogLine) MessageType() string          { return MsgLog }
func (n Notice) MessageType() string         { return n.Type }
func (u Unknown) MessageType() string        { return u.Type }

func (r RoomSnapshot) MessageType() string {
	if r.Public {
		return MsgPublicState
	}
	return MsgLobbyState
}

type welcomePayload struct {
	RoomID      string        `json:"roomId"`
	RoomName    string        `json:"roomName"`
	SeatIndex   *int          `json:"seatIndex"`
	Status      models.Status `json:"status"`
	Token       string        `json:"token"`
	Capacity    int           `json:"capacity"`
	DisplayName string        `json:"displayName"`
	Account     string        `json:"account"`
	UserID      int64         `json:"userId"`
	HostSeat    *int          `json:"hostSeat"`
}

type roomStatePayload struct {
	RoomID     string             `json:"roomId"`
	RoomName   string             `json:"roomName"`
	Status     models.Status      `json:"status"`
	Seats      []models.Seat      `json:"seats"`
	HostSeat   *int               `json:"hostSeat"`
	PublicGame *publicGamePayload `json:"publicGame"`
}

type publicGamePayload struct {
	Snapshot struct {
		Round     int                   `json:"round"`
		MaxRounds int                   `json:"maxRounds"`
		Players   []models.PublicPlayer `json:"players"`
	} `json:"snapshot"`
	CurrentTurn  int    `json:"currentTurn"`
	CurrentRound int    `json:"currentRound"`
	PendingType  string `json:"pendingType"`
}

type defensePromptPayload struct {
	AttackerID    int            `json:"attackerId"`
	AttackerName  string         `json:"attackerName"`
	AttackCards   []models.Card  `json:"attackCards"`
	Suit          string         `json:"suit"`
	MaxSelectable int            `json:"maxSelectable"`
	Options       *[]models.Card `json:"options"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type turnPromptPayload struct {
	PlayerID int    `json:"playerId"`
	Name     string `json:"name"`
}

// Decode parses one frame into its Inbound variant. Unknown types decode to Unknown without error.
func Decode(data []byte) (Inbound, error) {
	var env rawEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}

	payload := bytes.TrimSpace(env.Payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		payload = []byte("{}")
	}

	msg, err := decodePayload(env.Type, payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return msg, nil
}

func decodePayload(msgType string, payload []byte) (Inbound, error) {
	switch msgType {
	case MsgWelcome:
		var p welcomePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		seat := -1
		if p.SeatIndex != nil {
			seat = *p.SeatIndex
		}
		return Welcome{
			RoomID:      p.RoomID,
			RoomName:    p.RoomName,
			SeatIndex:   seat,
			Status:      p.Status,
			Token:       p.Token,
			Capacity:    p.Capacity,
			DisplayName: p.DisplayName,
			Account:     p.Account,
			UserID:      p.UserID,
			HostSeat:    p.HostSeat,
		}, nil

	case MsgLobbyRooms:
		var p struct {
			Rooms []models.RoomSummary `json:"rooms"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return LobbyRooms{Rooms: p.Rooms}, nil

	case MsgLobbyState, MsgPublicState:
		var p roomStatePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		snap := RoomSnapshot{
			Public:   msgType == MsgPublicState,
			HostSeat: p.HostSeat,
			Room: models.RoomState{
				RoomID:   p.RoomID,
				RoomName: p.RoomName,
				Status:   p.Status,
				HostSeat: -1,
				Seats:    p.Seats,
			},
		}
		if p.HostSeat != nil {
			snap.Room.HostSeat = *p.HostSeat
		}
		if p.PublicGame != nil {
			snap.Game = &models.PublicGameView{
				Round:        p.PublicGame.Snapshot.Round,
				MaxRounds:    p.PublicGame.Snapshot.MaxRounds,
				Players:      p.PublicGame.Snapshot.Players,
				CurrentTurn:  p.PublicGame.CurrentTurn,
				CurrentRound: p.PublicGame.CurrentRound,
				PendingType:  p.PublicGame.PendingType,
			}
		}
		return snap, nil

	case MsgPrivateState:
		var p struct {
			Snapshot json.RawMessage `json:"snapshot"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		if isEmptyObject(p.Snapshot) {
			return PrivateState{}, nil
		}
		var snap models.PrivateSnapshot
		if err := json.Unmarshal(p.Snapshot, &snap); err != nil {
			return nil, err
		}
		if len(snap.Hand) == 0 {
			return PrivateState{}, nil
		}
		return PrivateState{Snapshot: &snap}, nil

	case MsgDefensePrompt:
		var p defensePromptPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		if p.Options == nil {
			return DefensePromptMsg{}, nil
		}
		maxSelectable := p.MaxSelectable
		if maxSelectable <= 0 {
			maxSelectable = models.DefaultMaxSelectable
		}
		return DefensePromptMsg{Prompt: &models.DefensePrompt{
			AttackerID:    p.AttackerID,
			AttackerName:  p.AttackerName,
			Suit:          p.Suit,
			AttackCards:   p.AttackCards,
			Options:       *p.Options,
			MaxSelectable: maxSelectable,
		}}, nil

	case MsgTurnPrompt:
		var p turnPromptPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return TurnPrompt{PlayerID: p.PlayerID, Name: p.Name}, nil

	case MsgLog:
		var p messagePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return LogLine{Message: p.Message}, nil

	case MsgError, MsgPrivateInfo:
		var p messagePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return Notice{Type: msgType, Message: p.Message}, nil

	default:
		return Unknown{Type: msgType, Payload: json.RawMessage(payload)}, nil
	}
}

func isEmptyObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	return len(fields) == 0
}
