package fsm

import (
	"fmt"
	"sync"
)

type State string
type Event string

// Handler is executed after a transition has been committed.
type Handler func(event Event, args ...interface{}) error

// Observer is notified of every committed transition.
type Observer func(from, to State, event Event)

// ErrInvalidTransition is returned by Fire when the current state has no
// transition for the event.
type ErrInvalidTransition struct {
	From  State
	Event Event
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid transition from %s via %s", e.From, e.Event)
}

type StateMachine struct {
	mu          sync.RWMutex
	current     State
	transitions map[State]map[Event]State
	callbacks   map[State]map[Event]Handler
	terminal    map[State]bool
	observers   []Observer
}

func New(initial State) *StateMachine {
	return &StateMachine{
		current:     initial,
		transitions: make(map[State]map[Event]State),
		callbacks:   make(map[State]map[Event]Handler),
		terminal:    make(map[State]bool),
	}
}

func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

func (sm *StateMachine) AddTransition(from, to State, event Event, callback Handler) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.transitions[from]; !ok {
		sm.transitions[from] = make(map[Event]State)
		sm.callbacks[from] = make(map[Event]Handler)
	}
	sm.transitions[from][event] = to
	sm.callbacks[from][event] = callback
}

// SetTerminal marks a state from which no event is accepted, even if a
// transition was registered for it.
func (sm *StateMachine) SetTerminal(s State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.terminal[s] = true
}

// Observe registers fn to be called after every committed transition.
func (sm *StateMachine) Observe(fn Observer) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.observers = append(sm.observers, fn)
}

// Can reports whether event is accepted in the current state.
func (sm *StateMachine) Can(event Event) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.next(event)
	return ok
}

func (sm *StateMachine) next(event Event) (State, bool) {
	if sm.terminal[sm.current] {
		return "", false
	}
	to, ok := sm.transitions[sm.current][event]
	return to, ok
}

// Fire triggers a state transition. It is thread-safe.
// The new state is committed before the handler runs, so handlers observe the
// target state and may fire follow-up events. A handler error is returned but
// does not roll the transition back.
func (sm *StateMachine) Fire(event Event, args ...interface{}) error {
	sm.mu.Lock()
	from := sm.current
	next, ok := sm.next(event)
	if !ok {
		sm.mu.Unlock()
		return &ErrInvalidTransition{From: from, Event: event}
	}
	handler := sm.callbacks[from][event]
	sm.current = next
	observers := append([]Observer(nil), sm.observers...)
	sm.mu.Unlock()

	for _, obs := range observers {
		obs(from, next, event)
	}

	if handler != nil {
		return handler(event, args...)
	}
	return nil
}

// Personal.AI order the ending
