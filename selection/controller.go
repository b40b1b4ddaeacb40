// Package selection holds the local, not yet submitted choices of the player: attack cards and
// target, and the defense response to a pending prompt.
package selection

import (
	"errors"
	"sort"

	"github.com/wfunc/gameclient/models"
	"github.com/wfunc/gameclient/monitor"
	"github.com/wfunc/gameclient/network"
	"github.com/wfunc/gameclient/rules"
)

var (
	ErrUnknownCard      = errors.New("card is not in hand")
	ErrTargetNotFound   = errors.New("no such seat")
	ErrTargetEmpty      = errors.New("seat is empty")
	ErrTargetEliminated = errors.New("player has been eliminated")
	ErrTargetSelf       = errors.New("cannot challenge yourself")
	ErrGameNotRunning   = errors.New("game is not running")
	ErrNoTarget         = errors.New("choose a target first")
	ErrNoCards          = errors.New("choose cards first")
	ErrNotYourTurn      = errors.New("not your turn")
)

// View is the part of the view state the controller reads.
type View interface {
	Hand() []models.Card
	Identity() string
	SeatIndex() int
	Seat(index int) (models.Seat, bool)
	Status() models.Status
	CurrentTurn() (int, bool)
}

// Sender delivers outbound actions.
type Sender interface {
	Send(env network.Envelope) error
}

// Controller keeps the attack selection. Only the session loop may call it.
type Controller struct {
	view    View
	sender  Sender
	monitor *monitor.Monitor

	selected  []int // ascending
	target    int
	hasTarget bool
}

func NewController(view View, sender Sender, m *monitor.Monitor) *Controller {
	return &Controller{view: view, sender: sender, monitor: m}
}

// ToggleCard removes a selected card, or adds it when the grown selection stays legal.
func (c *Controller) ToggleCard(index int) error {
	if pos := c.position(index); pos >= 0 {
		c.selected = append(c.selected[:pos], c.selected[pos+1:]...)
		return nil
	}

	card, ok := findCard(c.view.Hand(), index)
	if !ok {
		return ErrUnknownCard
	}
	prospective := append(c.Selected(), card)
	if err := rules.Validate(prospective, rules.Attack, c.view.Identity()); err != nil {
		c.rejected(err)
		return err
	}

	c.selected = append(c.selected, index)
	sort.Ints(c.selected)
	return nil
}

// SetTarget picks the seat to challenge.
func (c *Controller) SetTarget(seat int) error {
	if err := c.checkTarget(seat); err != nil {
		return err
	}
	c.target = seat
	c.hasTarget = true
	return nil
}

func (c *Controller) ClearTarget() {
	c.target = 0
	c.hasTarget = false
}

// Clear drops the card selection.
func (c *Controller) Clear() {
	c.selected = nil
}

// Selected returns the selected hand cards in index order.
func (c *Controller) Selected() []models.Card {
	hand := c.view.Hand()
	cards := make([]models.Card, 0, len(c.selected))
	for _, idx := range c.selected {
		if card, ok := findCard(hand, idx); ok {
			cards = append(cards, card)
		}
	}
	return cards
}

func (c *Controller) SelectedIndices() []int {
	return append([]int(nil), c.selected...)
}

func (c *Controller) Target() (int, bool) {
	return c.target, c.hasTarget
}

// TargetValid re-checks the chosen target against the current view.
func (c *Controller) TargetValid() bool {
	return c.hasTarget && c.checkTarget(c.target) == nil
}

func (c *Controller) CanSubmit() bool {
	return c.checkSubmit() == nil
}

// Submit sends the challenge and clears the card selection; the target is kept.
func (c *Controller) Submit() error {
	if err := c.checkSubmit(); err != nil {
		return err
	}
	if err := c.sender.Send(network.Challenge(c.target, c.selected)); err != nil {
		return err
	}
	c.selected = nil
	return nil
}

// OnPrivateSnapshot reacts to a new hand. Card indices are reissued per snapshot, so a new hand
// resets the whole selection; losing the hand only drops the cards.
func (c *Controller) OnPrivateSnapshot(empty bool) {
	c.selected = nil
	if !empty {
		c.ClearTarget()
	}
}

func (c *Controller) checkSubmit() error {
	if c.view.Status() != models.StatusRunning {
		return ErrGameNotRunning
	}
	if !c.hasTarget {
		return ErrNoTarget
	}
	if err := c.checkTarget(c.target); err != nil {
		return err
	}
	cards := c.Selected()
	if len(cards) == 0 {
		return ErrNoCards
	}
	if turn, ok := c.view.CurrentTurn(); !ok || turn != c.view.SeatIndex() {
		return ErrNotYourTurn
	}
	if err := rules.Validate(cards, rules.Attack, c.view.Identity()); err != nil {
		c.rejected(err)
		return err
	}
	return nil
}

func (c *Controller) checkTarget(index int) error {
	seat, ok := c.view.Seat(index)
	switch {
	case !ok:
		return ErrTargetNotFound
	case !seat.Filled:
		return ErrTargetEmpty
	case !seat.IsAlive():
		return ErrTargetEliminated
	case index == c.view.SeatIndex():
		return ErrTargetSelf
	}
	return nil
}

func (c *Controller) position(index int) int {
	for i, idx := range c.selected {
		if idx == index {
			return i
		}
	}
	return -1
}

func (c *Controller) rejected(err error) {
	if c.monitor != nil {
		c.monitor.IncValidationRejections(rules.Rule(err))
	}
}

func findCard(cards []models.Card, index int) (models.Card, bool) {
	for _, card := range cards {
		if card.Index == index {
			return card, true
		}
	}
	return models.Card{}, false
}
