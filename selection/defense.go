package selection

import (
	"errors"
	"sort"

	"github.com/wfunc/gameclient/logger"
	"github.com/wfunc/gameclient/models"
	"github.com/wfunc/gameclient/network"
	"github.com/wfunc/gameclient/state"
)

var (
	ErrDefenseLimit     = errors.New("defense selection is full")
	ErrUnknownOption    = errors.New("card is not a defense option")
	ErrNoPendingDefense = errors.New("no defense is pending")
)

const (
	DefenseIdle      = "idle"
	DefensePrompted  = "prompted"
	DefenseConfirmed = "confirmed"
	DefensePassed    = "passed"
)

// 防守状态
type defenseState struct {
	state.BaseState
}

func (s *defenseState) OnEnter() {
	logger.Log.Debugf("defense: %s", s.ID)
}

// Negotiator answers defense prompts. Confirmed and passed are passed through on the way back to
// idle, so between calls the machine is either idle or prompted.
type Negotiator struct {
	sender  Sender
	machine *state.BaseStateMachine

	idle, prompted, confirmed, passed *defenseState

	prompt   *models.DefensePrompt
	selected []int // ascending
}

func NewNegotiator(sender Sender) *Negotiator {
	n := &Negotiator{
		sender:    sender,
		idle:      &defenseState{state.BaseState{ID: DefenseIdle}},
		prompted:  &defenseState{state.BaseState{ID: DefensePrompted}},
		confirmed: &defenseState{state.BaseState{ID: DefenseConfirmed}},
		passed:    &defenseState{state.BaseState{ID: DefensePassed}},
	}
	n.machine = state.NewGuardedStateMachine(n.idle)
	n.machine.AddTransition(n.idle, n.prompted, nil)
	n.machine.AddTransition(n.prompted, n.prompted, nil)
	n.machine.AddTransition(n.prompted, n.confirmed, nil)
	n.machine.AddTransition(n.prompted, n.passed, nil)
	n.machine.AddTransition(n.prompted, n.idle, nil)
	n.machine.AddTransition(n.confirmed, n.idle, nil)
	n.machine.AddTransition(n.passed, n.idle, nil)
	return n
}

// State is the id of the current state.
func (n *Negotiator) State() string {
	return n.machine.GetCurrentState().GetID()
}

// Prompt arms the negotiator with a fresh prompt, dropping any earlier selection. A nil prompt
// withdraws whatever is pending.
func (n *Negotiator) Prompt(p *models.DefensePrompt) {
	if p == nil {
		n.Cancel()
		return
	}
	if err := n.machine.ChangeState(n.prompted); err != nil {
		logger.Log.Warnf("defense prompt ignored: %v", err)
		return
	}
	if p.MaxSelectable <= 0 {
		p.MaxSelectable = models.DefaultMaxSelectable
	}
	n.prompt = p
	n.selected = nil
}

// ToggleOption adds or removes an offered card, never growing past MaxSelectable.
func (n *Negotiator) ToggleOption(index int) error {
	if n.prompt == nil {
		return ErrNoPendingDefense
	}
	if _, ok := findCard(n.prompt.Options, index); !ok {
		return ErrUnknownOption
	}
	for i, idx := range n.selected {
		if idx == index {
			n.selected = append(n.selected[:i], n.selected[i+1:]...)
			return nil
		}
	}
	if len(n.selected) >= n.prompt.MaxSelectable {
		return ErrDefenseLimit
	}
	n.selected = append(n.selected, index)
	sort.Ints(n.selected)
	return nil
}

// Confirm sends the current, possibly empty, selection.
func (n *Negotiator) Confirm() error {
	return n.resolve(n.confirmed, n.selected)
}

// Pass declines to defend.
func (n *Negotiator) Pass() error {
	return n.resolve(n.passed, nil)
}

// Cancel dismisses a pending prompt locally without answering it.
func (n *Negotiator) Cancel() {
	if n.machine.GetCurrentState() == n.idle {
		return
	}
	n.reset()
}

func (n *Negotiator) Pending() *models.DefensePrompt {
	return n.prompt
}

func (n *Negotiator) Selected() []int {
	return append([]int(nil), n.selected...)
}

func (n *Negotiator) resolve(via *defenseState, cards []int) error {
	if !n.machine.CanChange(via) {
		return ErrNoPendingDefense
	}
	if err := n.machine.ChangeState(via); err != nil {
		return err
	}
	err := n.sender.Send(network.Defense(cards))
	n.reset()
	return err
}

// reset returns the machine to idle and forgets the prompt, answered or not.
func (n *Negotiator) reset() {
	if err := n.machine.ChangeState(n.idle); err != nil {
		logger.Log.Debugf("defense: cannot leave %s: %v", n.State(), err)
	}
	n.prompt = nil
	n.selected = nil
}
