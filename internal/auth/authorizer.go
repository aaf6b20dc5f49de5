package auth

import (
	"context"
	"fmt"
	"log/slog"

	"tgcord/internal/event"
	"tgcord/internal/tdjson"
)

// Prompter collects operator input during the interactive authorization
// phase. All methods block on the operator.
type Prompter interface {
	PhoneNumber() (string, error)
	Code(hint string) (string, error)
	Password(hint string) (string, error)
}

// Sender is the outbound half of the tdjson transport.
type Sender interface {
	Send(ctx context.Context, req any) error
}

// Credentials holds what the backend-initialization request needs.
type Credentials struct {
	APIID       int32
	APIHash     string
	DatabaseDir string
	FilesDir    string
}

// Authorizer drives the login handshake: each authorization update triggers
// exactly one outbound action. Action failures are logged, never retried;
// the native client re-asserts the wait state it is stuck in.
type Authorizer struct {
	machine  *Machine
	sender   Sender
	prompter Prompter
	creds    Credentials
	log      *slog.Logger
}

// NewAuthorizer creates an authorizer around a fresh state machine.
func NewAuthorizer(sender Sender, prompter Prompter, creds Credentials, log *slog.Logger) *Authorizer {
	if log == nil {
		log = slog.Default()
	}
	return &Authorizer{
		machine:  NewMachine(),
		sender:   sender,
		prompter: prompter,
		creds:    creds,
		log:      log.With("component", "auth"),
	}
}

// Machine exposes the underlying state machine.
func (a *Authorizer) Machine() *Machine {
	return a.machine
}

// State returns the current handshake state.
func (a *Authorizer) State() State {
	return a.machine.MustState()
}

// Handle consumes one authorization update and performs the follow-up
// action for the asserted state. It returns the state the machine is in
// afterwards; the caller stops its loop once that state is terminal.
func (a *Authorizer) Handle(ctx context.Context, upd event.AuthUpdate) State {
	st := FromTag(upd.State.Tag)
	if st == StateUnknown {
		a.log.Warn("unrecognized authorization state", "tag", upd.State.Tag)
		return a.machine.MustState()
	}

	if err := a.machine.Assert(ctx, st); err != nil {
		// The native client is authoritative; note the mismatch but still
		// perform the action it is waiting on.
		a.log.Warn("unexpected authorization transition",
			"from", a.machine.MustState(), "asserted", st, "error", err)
	}

	if err := a.act(ctx, st, upd.State); err != nil {
		a.log.Error("authorization action failed", "state", st, "error", err)
	}

	return a.machine.MustState()
}

func (a *Authorizer) act(ctx context.Context, st State, wire event.AuthorizationState) error {
	switch st {
	case StateWaitParameters:
		return a.sender.Send(ctx, tdjson.NewSetTdlibParameters(
			a.creds.APIID, a.creds.APIHash, a.creds.DatabaseDir, a.creds.FilesDir))

	case StateWaitEncryptionKey:
		return a.sender.Send(ctx, tdjson.NewCheckDatabaseEncryptionKey())

	case StateWaitPhoneNumber:
		phone, err := a.prompter.PhoneNumber()
		if err != nil {
			return fmt.Errorf("read phone number: %w", err)
		}
		return a.sender.Send(ctx, tdjson.NewSetAuthenticationPhoneNumber(phone))

	case StateWaitCode:
		code, err := a.prompter.Code(codeHint(wire))
		if err != nil {
			return fmt.Errorf("read code: %w", err)
		}
		return a.sender.Send(ctx, tdjson.NewCheckAuthenticationCode(code))

	case StateWaitPassword:
		password, err := a.prompter.Password(passwordHint(wire))
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		return a.sender.Send(ctx, tdjson.NewCheckAuthenticationPassword(password))

	case StateReady:
		a.log.Info("authorization complete")
		return nil

	case StateLoggingOut, StateClosing:
		a.log.Info("authorization winding down", "state", st)
		return nil

	case StateClosed:
		a.log.Info("native client closed")
		return nil
	}
	return nil
}

func codeHint(wire event.AuthorizationState) string {
	hint := "enter the authentication code"
	if wire.CodePhone != "" {
		hint += " sent to " + wire.CodePhone
	}
	if wire.CodeLength > 0 {
		hint += fmt.Sprintf(" (%d digits)", wire.CodeLength)
	}
	if wire.CodeType != "" {
		hint += " via " + wire.CodeType
	}
	return hint
}

func passwordHint(wire event.AuthorizationState) string {
	hint := "enter the two-step verification password"
	if wire.PasswordHint != "" {
		hint += " (hint: " + wire.PasswordHint + ")"
	}
	if wire.HasRecoveryEmail && wire.RecoveryPattern != "" {
		hint += ", recovery email " + wire.RecoveryPattern
	}
	return hint
}
