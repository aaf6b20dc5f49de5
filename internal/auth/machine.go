package auth

import (
	"context"
	"sync"

	"github.com/qmuntal/stateless"
)

// TransitionCallback is called when a state transition occurs.
type TransitionCallback func(ctx context.Context, from, to State)

// Machine wraps the stateless state machine with login-handshake behavior.
// Triggers are the states the native client asserts; the configured graph
// covers the documented handshake order, the skip paths a resumed session
// takes, and re-assertion of the same wait state after a failed attempt.
type Machine struct {
	sm          *stateless.StateMachine
	callbacks   []TransitionCallback
	callbacksMu sync.RWMutex
}

// trigger is the "client asserted state X" event for the machine.
type trigger State

// NewMachine creates a new state machine in the Starting state.
func NewMachine() *Machine {
	m := &Machine{}

	sm := stateless.NewStateMachine(StateStarting)

	// The first asserted state of a fresh session is WaitParameters; a
	// resumed session can surface deeper in the handshake.
	sm.Configure(StateStarting).
		Permit(trigger(StateWaitParameters), StateWaitParameters).
		Permit(trigger(StateWaitEncryptionKey), StateWaitEncryptionKey).
		Permit(trigger(StateWaitPhoneNumber), StateWaitPhoneNumber).
		Permit(trigger(StateReady), StateReady).
		Permit(trigger(StateClosed), StateClosed)

	sm.Configure(StateWaitParameters).
		PermitReentry(trigger(StateWaitParameters)).
		Permit(trigger(StateWaitEncryptionKey), StateWaitEncryptionKey).
		Permit(trigger(StateClosing), StateClosing).
		Permit(trigger(StateClosed), StateClosed)

	sm.Configure(StateWaitEncryptionKey).
		PermitReentry(trigger(StateWaitEncryptionKey)).
		Permit(trigger(StateWaitPhoneNumber), StateWaitPhoneNumber).
		Permit(trigger(StateReady), StateReady).
		Permit(trigger(StateClosing), StateClosing).
		Permit(trigger(StateClosed), StateClosed)

	sm.Configure(StateWaitPhoneNumber).
		PermitReentry(trigger(StateWaitPhoneNumber)).
		Permit(trigger(StateWaitCode), StateWaitCode).
		Permit(trigger(StateClosing), StateClosing).
		Permit(trigger(StateClosed), StateClosed)

	sm.Configure(StateWaitCode).
		PermitReentry(trigger(StateWaitCode)).
		Permit(trigger(StateWaitPassword), StateWaitPassword).
		Permit(trigger(StateReady), StateReady).
		Permit(trigger(StateClosing), StateClosing).
		Permit(trigger(StateClosed), StateClosed)

	sm.Configure(StateWaitPassword).
		PermitReentry(trigger(StateWaitPassword)).
		Permit(trigger(StateReady), StateReady).
		Permit(trigger(StateClosing), StateClosing).
		Permit(trigger(StateClosed), StateClosed)

	sm.Configure(StateReady).
		PermitReentry(trigger(StateReady)).
		Permit(trigger(StateLoggingOut), StateLoggingOut).
		Permit(trigger(StateClosing), StateClosing).
		Permit(trigger(StateClosed), StateClosed)

	sm.Configure(StateLoggingOut).
		Permit(trigger(StateClosing), StateClosing).
		Permit(trigger(StateClosed), StateClosed)

	sm.Configure(StateClosing).
		Permit(trigger(StateClosed), StateClosed)

	sm.Configure(StateClosed)
	// No transitions out of Closed.

	sm.OnTransitioned(func(ctx context.Context, t stateless.Transition) {
		m.callbacksMu.RLock()
		callbacks := make([]TransitionCallback, len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.callbacksMu.RUnlock()

		from := t.Source.(State)
		to := t.Destination.(State)
		for _, cb := range callbacks {
			cb(ctx, from, to)
		}
	})

	m.sm = sm
	return m
}

// Assert transitions the machine to the state asserted by the native client.
func (m *Machine) Assert(ctx context.Context, to State) error {
	return m.sm.FireCtx(ctx, trigger(to))
}

// CanAssert returns true if the asserted state is reachable from the
// current one.
func (m *Machine) CanAssert(ctx context.Context, to State) (bool, error) {
	return m.sm.CanFireCtx(ctx, trigger(to))
}

// State returns the current state.
func (m *Machine) State(ctx context.Context) (State, error) {
	state, err := m.sm.State(ctx)
	if err != nil {
		return "", err
	}
	return state.(State), nil
}

// MustState returns the current state, panicking on error.
func (m *Machine) MustState() State {
	state, err := m.State(context.Background())
	if err != nil {
		panic(err)
	}
	return state
}

// IsReady returns true if the handshake has completed.
func (m *Machine) IsReady() bool {
	return m.MustState() == StateReady
}

// OnTransition registers a callback to be called on state transitions.
func (m *Machine) OnTransition(cb TransitionCallback) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}
