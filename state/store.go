package state

import (
	"strings"

	"github.com/wfunc/gameclient/models"
	"github.com/wfunc/gameclient/network"
	"github.com/wfunc/gameclient/room"
)

// ViewMode is derived from the room status and membership.
type ViewMode string

const (
	ViewLobby ViewMode = "LOBBY"
	ViewRoom  ViewMode = "ROOM"
	ViewGame  ViewMode = "GAME"
)

const (
	DefaultLogCapacity = 200

	// MatchEndPrefix starts the server's end-of-match log line.
	MatchEndPrefix = "對局結束"

	defaultMatchEndedMessage = "Match ended"
)

// Change reports what an applied message did beyond replacing state.
type Change struct {
	RoomChanged bool // joined room differs from before
	MatchEnded  bool // first transition into finished for this episode
}

// Store is the client's view of the server. It is owned by the session loop and is not safe for
// concurrent use.
type Store struct {
	roomID    string
	roomName  string
	seatIndex int
	hostSeat  int
	capacity  int
	status    models.Status

	room    *models.RoomState
	game    *models.PublicGameView
	private *models.PrivateSnapshot
	lobby   *room.Directory

	log         []string
	logCapacity int
	postGame    string
	finished    bool
}

func NewStore(logCapacity int, lobby *room.Directory) *Store {
	if logCapacity <= 0 {
		logCapacity = DefaultLogCapacity
	}
	if lobby == nil {
		lobby = room.NewDirectory()
	}
	return &Store{
		seatIndex:   -1,
		hostSeat:    -1,
		logCapacity: logCapacity,
		lobby:       lobby,
	}
}

func (s *Store) ViewMode() ViewMode {
	switch {
	case s.status.InGame():
		return ViewGame
	case s.roomID != "":
		return ViewRoom
	default:
		return ViewLobby
	}
}

// ApplyWelcome records the handshake result. Joining a different room drops everything known
// about the old one.
func (s *Store) ApplyWelcome(w network.Welcome) Change {
	var change Change
	if w.RoomID != s.roomID {
		change.RoomChanged = true
		s.room = nil
		s.game = nil
		s.private = nil
		s.hostSeat = -1
		s.capacity = 0
		s.status = ""
		s.finished = false
		s.postGame = ""
	}
	s.roomID = w.RoomID
	s.roomName = w.RoomName
	s.seatIndex = w.SeatIndex
	if w.HostSeat != nil {
		s.hostSeat = *w.HostSeat
	}
	if w.Capacity > 0 {
		s.capacity = w.Capacity
	}
	if s.roomID == "" {
		s.setStatus("")
		return change
	}
	if w.Status != "" {
		change.MatchEnded = s.setStatus(w.Status)
	}
	return change
}

// ApplyRoomSnapshot replaces the room (and for public snapshots the game view). Snapshots for any
// room other than the joined one are ignored and reported as not applied.
func (s *Store) ApplyRoomSnapshot(snap network.RoomSnapshot) (Change, bool) {
	if s.roomID == "" || snap.Room.RoomID != s.roomID {
		return Change{}, false
	}

	next := snap.Room
	next.Seats = append([]models.Seat(nil), snap.Room.Seats...)
	if snap.HostSeat != nil {
		s.hostSeat = *snap.HostSeat
	}
	next.HostSeat = s.hostSeat
	if next.RoomName == "" {
		next.RoomName = s.roomName
	}
	s.roomName = next.RoomName
	if next.Status == "" {
		next.Status = s.status
	}
	if s.capacity == 0 {
		s.capacity = len(next.Seats)
	}
	s.room = &next

	if snap.Public {
		s.game = snap.Game
	} else if !next.Status.InGame() {
		s.game = nil
	}

	return Change{MatchEnded: s.setStatus(next.Status)}, true
}

// ApplyPrivate replaces the own snapshot; nil or a snapshot without cards clears the hand. Only
// a snapshot holding cards names the own seat.
func (s *Store) ApplyPrivate(snap *models.PrivateSnapshot) {
	if snap == nil || len(snap.Hand) == 0 {
		s.private = nil
		return
	}
	s.private = snap
	s.seatIndex = snap.PlayerID
}

func (s *Store) SetLobbyRooms(rooms []models.RoomSummary) {
	s.lobby.Replace(rooms)
}

// AppendLog keeps the newest lines up to the log capacity. The server's end-of-match summary
// becomes the post-game message; the match-ended announcement itself comes from the status.
func (s *Store) AppendLog(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	s.log = append(s.log, line)
	if over := len(s.log) - s.logCapacity; over > 0 {
		s.log = append(s.log[:0], s.log[over:]...)
	}
	if strings.HasPrefix(line, MatchEndPrefix) {
		s.postGame = line
	}
}

// LeaveRoom is the local half of leaving: back to the lobby with nothing room related kept.
func (s *Store) LeaveRoom() {
	s.roomID = ""
	s.roomName = ""
	s.seatIndex = -1
	s.hostSeat = -1
	s.capacity = 0
	s.room = nil
	s.game = nil
	s.private = nil
	s.setStatus("")
	s.postGame = ""
}

// setStatus is the only place status changes. Entering finished arms the match-ended message
// once; any other status disarms it.
func (s *Store) setStatus(next models.Status) bool {
	prev := s.status
	s.status = next

	if next == models.StatusFinished {
		if s.finished {
			return false
		}
		s.finished = true
		if s.postGame == "" {
			s.postGame = defaultMatchEndedMessage
		}
		return true
	}

	s.finished = false
	if prev == models.StatusFinished {
		s.postGame = ""
	}
	return false
}

func (s *Store) RoomID() string   { return s.roomID }
func (s *Store) RoomName() string { return s.roomName }
func (s *Store) SeatIndex() int   { return s.seatIndex }
func (s *Store) HostSeat() int    { return s.hostSeat }
func (s *Store) Capacity() int    { return s.capacity }

func (s *Store) Status() models.Status { return s.status }

func (s *Store) IsHost() bool {
	return s.seatIndex >= 0 && s.seatIndex == s.hostSeat
}

func (s *Store) Room() *models.RoomState          { return s.room }
func (s *Store) Game() *models.PublicGameView     { return s.game }
func (s *Store) Private() *models.PrivateSnapshot { return s.private }
func (s *Store) Lobby() *room.Directory           { return s.lobby }
func (s *Store) PostGameMessage() string          { return s.postGame }

// Hand returns the own cards, empty when no private snapshot is held.
func (s *Store) Hand() []models.Card {
	if s.private == nil {
		return nil
	}
	return s.private.Hand
}

func (s *Store) Identity() string {
	if s.private == nil {
		return ""
	}
	return s.private.Identity
}

// CurrentTurn is the seat whose turn it is, when a game view is held.
func (s *Store) CurrentTurn() (int, bool) {
	if s.game == nil {
		return 0, false
	}
	return s.game.CurrentTurn, true
}

// Seat looks a seat up in the room snapshot; liveness from the game view wins when present.
func (s *Store) Seat(index int) (models.Seat, bool) {
	seat, ok := s.room.Seat(index)
	if !ok {
		return models.Seat{}, false
	}
	if s.game != nil {
		for _, p := range s.game.Players {
			if p.ID == index {
				alive := p.Alive
				seat.Alive = &alive
				break
			}
		}
	}
	return seat, true
}

// Log returns a copy of the rolling log, oldest first.
func (s *Store) Log() []string {
	return append([]string(nil), s.log...)
}
