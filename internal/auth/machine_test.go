package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMachine(t *testing.T) {
	m := NewMachine()
	require.NotNil(t, m)

	state, err := m.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateStarting, state)
}

func TestMachine_FullHandshake(t *testing.T) {
	ctx := context.Background()
	m := NewMachine()

	// The documented handshake order, as asserted by the native client.
	sequence := []State{
		StateWaitParameters,
		StateWaitEncryptionKey,
		StateWaitPhoneNumber,
		StateWaitCode,
		StateWaitPassword,
		StateReady,
	}

	for _, st := range sequence {
		err := m.Assert(ctx, st)
		require.NoError(t, err, "asserting %s", st)
		got, _ := m.State(ctx)
		assert.Equal(t, st, got)
	}

	assert.True(t, m.IsReady())
}

func TestMachine_HandshakeWithoutPassword(t *testing.T) {
	ctx := context.Background()
	m := NewMachine()

	_ = m.Assert(ctx, StateWaitParameters)
	_ = m.Assert(ctx, StateWaitEncryptionKey)
	_ = m.Assert(ctx, StateWaitPhoneNumber)
	_ = m.Assert(ctx, StateWaitCode)

	// Accounts without two-step verification go straight to Ready.
	err := m.Assert(ctx, StateReady)
	require.NoError(t, err)
	assert.True(t, m.IsReady())
}

func TestMachine_ResumedSession(t *testing.T) {
	ctx := context.Background()
	m := NewMachine()

	// An existing session skips the interactive states entirely.
	_ = m.Assert(ctx, StateWaitParameters)
	_ = m.Assert(ctx, StateWaitEncryptionKey)

	err := m.Assert(ctx, StateReady)
	require.NoError(t, err)
	assert.True(t, m.IsReady())
}

func TestMachine_WaitStateReassertion(t *testing.T) {
	ctx := context.Background()
	m := NewMachine()

	_ = m.Assert(ctx, StateWaitParameters)
	_ = m.Assert(ctx, StateWaitEncryptionKey)
	_ = m.Assert(ctx, StateWaitPhoneNumber)
	_ = m.Assert(ctx, StateWaitCode)

	// A wrong code makes the client re-assert WaitCode.
	err := m.Assert(ctx, StateWaitCode)
	require.NoError(t, err)
	got, _ := m.State(ctx)
	assert.Equal(t, StateWaitCode, got)
}

func TestMachine_Shutdown(t *testing.T) {
	ctx := context.Background()
	m := NewMachine()

	_ = m.Assert(ctx, StateWaitParameters)
	_ = m.Assert(ctx, StateWaitEncryptionKey)
	_ = m.Assert(ctx, StateReady)

	require.NoError(t, m.Assert(ctx, StateLoggingOut))
	require.NoError(t, m.Assert(ctx, StateClosing))
	require.NoError(t, m.Assert(ctx, StateClosed))

	got, _ := m.State(ctx)
	assert.Equal(t, StateClosed, got)
	assert.True(t, got.IsTerminal())
}

func TestMachine_InvalidAssertion(t *testing.T) {
	ctx := context.Background()
	m := NewMachine()

	// WaitPassword cannot be the first asserted state.
	err := m.Assert(ctx, StateWaitPassword)
	assert.Error(t, err)

	got, _ := m.State(ctx)
	assert.Equal(t, StateStarting, got)
}

func TestMachine_CanAssert(t *testing.T) {
	ctx := context.Background()
	m := NewMachine()

	can, err := m.CanAssert(ctx, StateWaitParameters)
	require.NoError(t, err)
	assert.True(t, can)

	can, err = m.CanAssert(ctx, StateWaitCode)
	require.NoError(t, err)
	assert.False(t, can)
}

func TestMachine_OnTransitionCallback(t *testing.T) {
	ctx := context.Background()
	m := NewMachine()

	var transitions []struct{ from, to State }
	m.OnTransition(func(ctx context.Context, from, to State) {
		transitions = append(transitions, struct{ from, to State }{from, to})
	})

	_ = m.Assert(ctx, StateWaitParameters)
	_ = m.Assert(ctx, StateWaitEncryptionKey)

	require.Len(t, transitions, 2)
	assert.Equal(t, StateStarting, transitions[0].from)
	assert.Equal(t, StateWaitParameters, transitions[0].to)
	assert.Equal(t, StateWaitEncryptionKey, transitions[1].to)
}

func TestFromTag(t *testing.T) {
	tests := []struct {
		tag  string
		want State
	}{
		{"authorizationStateWaitTdlibParameters", StateWaitParameters},
		{"authorizationStateWaitEncryptionKey", StateWaitEncryptionKey},
		{"authorizationStateWaitPhoneNumber", StateWaitPhoneNumber},
		{"authorizationStateWaitCode", StateWaitCode},
		{"authorizationStateWaitPassword", StateWaitPassword},
		{"authorizationStateReady", StateReady},
		{"authorizationStateLoggingOut", StateLoggingOut},
		{"authorizationStateClosing", StateClosing},
		{"authorizationStateClosed", StateClosed},
		{"authorizationStateWaitOtherDeviceConfirmation", StateUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, FromTag(tt.tag))
		})
	}
}
