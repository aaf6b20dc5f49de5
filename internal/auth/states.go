// Package auth provides the finite state machine for the Telegram login handshake.
package auth

// State represents one state of the authorization handshake. The native
// client is authoritative: states change only when it asserts a new
// authorization state on the update stream.
type State string

const (
	// StateStarting is the machine's state before the first update arrives.
	StateStarting State = "starting"

	StateWaitParameters    State = "wait_parameters"
	StateWaitEncryptionKey State = "wait_encryption_key"
	StateWaitPhoneNumber   State = "wait_phone_number"
	StateWaitCode          State = "wait_code"
	StateWaitPassword      State = "wait_password"
	StateReady             State = "ready"
	StateLoggingOut        State = "logging_out"
	StateClosing           State = "closing"
	StateClosed            State = "closed"

	// StateUnknown is reported for authorization-state tags the bridge does
	// not recognize. The machine never enters it.
	StateUnknown State = "unknown"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true once the client connection is gone for good.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// IsOperational returns true if message traffic may be processed.
func (s State) IsOperational() bool {
	return s == StateReady
}

// FromTag maps a wire authorization-state tag to a State.
func FromTag(tag string) State {
	switch tag {
	case "authorizationStateWaitTdlibParameters":
		return StateWaitParameters
	case "authorizationStateWaitEncryptionKey":
		return StateWaitEncryptionKey
	case "authorizationStateWaitPhoneNumber":
		return StateWaitPhoneNumber
	case "authorizationStateWaitCode":
		return StateWaitCode
	case "authorizationStateWaitPassword":
		return StateWaitPassword
	case "authorizationStateReady":
		return StateReady
	case "authorizationStateLoggingOut":
		return StateLoggingOut
	case "authorizationStateClosing":
		return StateClosing
	case "authorizationStateClosed":
		return StateClosed
	default:
		return StateUnknown
	}
}
