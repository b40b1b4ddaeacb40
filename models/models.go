// models/models.go
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status is the lifecycle state of a room as reported by the server.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
)

// InGame reports whether the status belongs to the game view.
func (s Status) InGame() bool {
	return s == StatusRunning || s == StatusFinished
}

// Kind 牌的功能类别
type Kind int

const (
	KindNumber  Kind = iota
	KindZombie       // attack only, zombies only
	KindShotgun      // attack only
	KindVaccine      // defense only
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindZombie:
		return "zombie"
	case KindShotgun:
		return "shotgun"
	case KindVaccine:
		return "vaccine"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Special reports whether the kind is one of the single-use special cards.
func (k Kind) Special() bool {
	return k == KindZombie || k == KindShotgun || k == KindVaccine
}

// UnmarshalJSON accepts both 2 and "2".
func (k *Kind) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*k = Kind(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("card kind: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("card kind %q: %w", s, err)
	}
	*k = Kind(n)
	return nil
}

// Card is one card in a hand, an attack or a defense option. Its identity is Index.
type Card struct {
	Index int    `json:"index"`
	Kind  Kind   `json:"kind"`
	Suit  string `json:"suit,omitempty"`
	Value int    `json:"value,omitempty"`
	Label string `json:"label,omitempty"`
}

func (c Card) String() string {
	if c.Label != "" {
		return c.Label
	}
	if c.Kind == KindNumber {
		return fmt.Sprintf("%s%d", c.Suit, c.Value)
	}
	return c.Kind.String()
}

// Identities as sent by the server.
const (
	IdentityHuman  = "人類"
	IdentityZombie = "僵屍"
)

// IsZombie reports whether an identity string names the zombie role.
func IsZombie(identity string) bool {
	return identity == IdentityZombie || strings.EqualFold(strings.TrimSpace(identity), "zombie")
}

// Seat 房间内固定座位
type Seat struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Filled bool   `json:"filled"`
	IsBot  bool   `json:"isBot"`
	IsHost bool   `json:"isHost"`
	Alive  *bool  `json:"alive,omitempty"`
	Hand   *int   `json:"hand,omitempty"`
}

// IsAlive treats a missing alive flag as alive; the server only sends it during games.
func (s Seat) IsAlive() bool {
	return s.Alive == nil || *s.Alive
}

// RoomState is a complete room snapshot. It is replaced, never merged.
type RoomState struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
	Status   Status `json:"status"`
	HostSeat int    `json:"hostSeat"`
	Seats    []Seat `json:"seats"`
}

// Seat looks a seat up by its index.
func (r *RoomState) Seat(index int) (Seat, bool) {
	if r == nil {
		return Seat{}, false
	}
	for _, s := range r.Seats {
		if s.Index == index {
			return s, true
		}
	}
	return Seat{}, false
}

// PublicPlayer is the public per-player summary inside a game snapshot.
type PublicPlayer struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Alive    bool   `json:"alive"`
	HandSize int    `json:"handSize"`
}

// PublicGameView exists only while a game is active.
type PublicGameView struct {
	Round        int
	MaxRounds    int
	CurrentTurn  int
	CurrentRound int
	PendingType  string
	Players      []PublicPlayer
}

// PrivateSnapshot is the owning player's own view of the game.
type PrivateSnapshot struct {
	PlayerID         int    `json:"playerId"`
	Name             string `json:"name"`
	Identity         string `json:"identity"`
	OriginalIdentity string `json:"originalIdentity"`
	Hand             []Card `json:"hand"`
}

// Card finds a hand card by index.
func (p *PrivateSnapshot) Card(index int) (Card, bool) {
	if p == nil {
		return Card{}, false
	}
	for _, c := range p.Hand {
		if c.Index == index {
			return c, true
		}
	}
	return Card{}, false
}

// DefaultMaxSelectable applies when a prompt does not say how many cards may be chosen.
const DefaultMaxSelectable = 5

// DefensePrompt 防守提示
type DefensePrompt struct {
	AttackerID    int
	AttackerName  string
	Suit          string
	AttackCards   []Card
	Options       []Card
	MaxSelectable int
}

// RoomSummary is one entry of the lobby listing.
type RoomSummary struct {
	RoomID   string `json:"roomId"`
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Players  int    `json:"players"`
	Capacity int    `json:"capacity"`
	Host     string `json:"host"`
}
