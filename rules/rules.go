// Package rules mirrors the server's card-combination legality checks so the client can reject a
// play before sending it. The server stays authoritative.
package rules

import (
	"errors"
	"fmt"

	"github.com/wfunc/gameclient/models"
)

// Mode tells the validator which side is playing.
type Mode int

const (
	Attack Mode = iota
	Defense
)

func (m Mode) String() string {
	if m == Defense {
		return "defense"
	}
	return "attack"
}

// MaxCards is the largest combination that may be played at once.
const MaxCards = 5

var (
	ErrEmptySelection     = errors.New("select at least one card")
	ErrTooManyCards       = fmt.Errorf("at most %d cards", MaxCards)
	ErrDefenseOnly        = errors.New("vaccine cards can only be played in defense")
	ErrAttackOnly         = errors.New("this card cannot be played in defense")
	ErrRestrictedIdentity = errors.New("only zombies can play zombie cards")
	ErrMixedKinds         = errors.New("number cards cannot be mixed with special cards")
	ErrSuitMismatch       = errors.New("number cards must share one suit")
	ErrSpecialAlone       = errors.New("special cards must be played alone")
	ErrIncompatible       = errors.New("incompatible card types")
)

// SuitError names the suit every number card in the selection has to match.
type SuitError struct {
	Suit string
}

func (e *SuitError) Error() string {
	return fmt.Sprintf("select cards of the same suit (%s)", e.Suit)
}

func (e *SuitError) Unwrap() error {
	return ErrSuitMismatch
}

// Validate checks cards, in selection order, against the legality grammar. The first failing
// rule wins; nil means the combination is legal.
func Validate(cards []models.Card, mode Mode, identity string) error {
	if len(cards) == 0 {
		return ErrEmptySelection
	}
	if len(cards) > MaxCards {
		return ErrTooManyCards
	}

	first := cards[0]
	switch {
	case mode == Attack && first.Kind == models.KindVaccine:
		return ErrDefenseOnly
	case mode == Defense && (first.Kind == models.KindShotgun || first.Kind == models.KindZombie):
		return ErrAttackOnly
	}

	if first.Kind == models.KindZombie && !models.IsZombie(identity) {
		return ErrRestrictedIdentity
	}

	if first.Kind == models.KindNumber {
		for _, c := range cards[1:] {
			if c.Kind != models.KindNumber {
				return ErrMixedKinds
			}
			if c.Suit != first.Suit {
				return &SuitError{Suit: first.Suit}
			}
		}
		return nil
	}

	if first.Kind.Special() {
		if len(cards) > 1 {
			return ErrSpecialAlone
		}
		return nil
	}

	for _, c := range cards[1:] {
		if c.Kind != first.Kind {
			return ErrIncompatible
		}
	}
	return nil
}

// Rule returns a short stable name for a validation error, used as a metrics label.
func Rule(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptySelection):
		return "empty"
	case errors.Is(err, ErrTooManyCards):
		return "too_many"
	case errors.Is(err, ErrDefenseOnly):
		return "defense_only"
	case errors.Is(err, ErrAttackOnly):
		return "attack_only"
	case errors.Is(err, ErrRestrictedIdentity):
		return "identity"
	case errors.Is(err, ErrMixedKinds):
		return "mixed"
	case errors.Is(err, ErrSuitMismatch):
		return "suit"
	case errors.Is(err, ErrSpecialAlone):
		return "special_alone"
	case errors.Is(err, ErrIncompatible):
		return "incompatible"
	default:
		return "other"
	}
}
