// services/lobby_service.go
package services

import (
	"errors"
	"strings"

	"github.com/wfunc/gameclient/logger"
	"github.com/wfunc/gameclient/models"
	"github.com/wfunc/gameclient/network"
	"github.com/wfunc/gameclient/selection"
	"github.com/wfunc/gameclient/state"
)

const DefaultRoomName = "Untitled room"

var (
	ErrRoomIDRequired = errors.New("room id is required")
	ErrNotInRoom      = errors.New("not in a room")
	ErrNotBotSeat     = errors.New("seat does not hold a bot")
	ErrRoomFull       = errors.New("room is full")
)

// Bookmark remembers the room to rejoin after a reconnect.
type Bookmark interface {
	SetLastRoom(roomID string)
}

// LobbyService 大厅与房间操作. All methods run on the session loop.
type LobbyService struct {
	sender   selection.Sender
	store    *state.Store
	cards    *selection.Controller
	defense  *selection.Negotiator
	bookmark Bookmark
}

func NewLobbyService(sender selection.Sender, store *state.Store, cards *selection.Controller,
	defense *selection.Negotiator, bookmark Bookmark) *LobbyService {
	return &LobbyService{
		sender:   sender,
		store:    store,
		cards:    cards,
		defense:  defense,
		bookmark: bookmark,
	}
}

func (s *LobbyService) ListRooms() error {
	return s.sender.Send(network.LobbyList())
}

// CreateRoom 创建房间，空白名称使用默认名称
func (s *LobbyService) CreateRoom(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultRoomName
	}
	return s.sender.Send(network.CreateRoom(name))
}

func (s *LobbyService) JoinRoom(roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return ErrRoomIDRequired
	}
	// only a waiting room can be full; a running one may hold our seat
	if r, ok := s.store.Lobby().Get(roomID); ok && r.Status == models.StatusLobby && r.Capacity > 0 && r.Players >= r.Capacity {
		return ErrRoomFull
	}
	return s.sender.Send(network.JoinRoom(roomID))
}

// QuickJoin joins the first open room of the last listing, or creates one when none is open.
func (s *LobbyService) QuickJoin() error {
	if room, ok := s.store.Lobby().FindAvailable(); ok {
		logger.Log.Infof("quick join: %s (%d/%d)", room.RoomID, room.Players, room.Capacity)
		return s.JoinRoom(room.RoomID)
	}
	return s.CreateRoom("")
}

// LeaveRoom tells the server and returns to the lobby right away without waiting for a reply.
func (s *LobbyService) LeaveRoom() error {
	if s.store.RoomID() == "" {
		return ErrNotInRoom
	}
	err := s.sender.Send(network.LeaveRoom())

	s.store.LeaveRoom()
	s.defense.Cancel()
	s.cards.Clear()
	s.cards.ClearTarget()
	s.bookmark.SetLastRoom("")

	if err != nil {
		return err
	}
	return s.ListRooms()
}

func (s *LobbyService) AddBot(name string) error {
	if s.store.RoomID() == "" {
		return ErrNotInRoom
	}
	return s.sender.Send(network.AddBot(strings.TrimSpace(name)))
}

// RemoveBot 移除机器人，座位必须是机器人
func (s *LobbyService) RemoveBot(seat int) error {
	if s.store.RoomID() == "" {
		return ErrNotInRoom
	}
	if st, ok := s.store.Room().Seat(seat); !ok || !st.IsBot {
		return ErrNotBotSeat
	}
	return s.sender.Send(network.RemoveBot(seat))
}

func (s *LobbyService) StartGame() error {
	if s.store.RoomID() == "" {
		return ErrNotInRoom
	}
	return s.sender.Send(network.StartGame())
}
