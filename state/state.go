package state

import (
	"errors"
	"sync"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	GetID() string
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 基础状态机实现
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	guarded      bool
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

// NewGuardedStateMachine only allows transitions registered with AddTransition.
func NewGuardedStateMachine(initialState State) *BaseStateMachine {
	machine := NewBaseStateMachine(initialState)
	machine.guarded = true
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	// 检查是否有转换条件
	condition, exists := sm.transitions[currentID][newID]
	if !exists && sm.guarded {
		return ErrTransitionNotAllowed
	}
	if condition != nil && !condition() {
		return ErrTransitionNotAllowed
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

// CanChange reports whether ChangeState(to) would be accepted right now.
func (sm *BaseStateMachine) CanChange(to State) bool {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	condition, exists := sm.transitions[sm.currentState.GetID()][to.GetID()]
	if !exists {
		return !sm.guarded
	}
	return condition == nil || condition()
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// BaseState is a State with no-op hooks; embed it and override what is needed.
type BaseState struct {
	ID string
}

func (s *BaseState) GetID() string {
	return s.ID
}

func (s *BaseState) OnEnter() {}

func (s *BaseState) OnExit() {}
