// Package console provides the interactive operator prompts used during
// the one-time authorization phase.
package console

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
)

// Prompter reads phone numbers, login codes, and passwords from the
// terminal. It is only used before the steady-state run loop starts.
type Prompter struct {
	rl *readline.Instance
}

// NewPrompter creates a terminal-backed prompter.
func NewPrompter() (*Prompter, error) {
	rl, err := readline.New("> ")
	if err != nil {
		return nil, fmt.Errorf("console: init readline: %w", err)
	}
	return &Prompter{rl: rl}, nil
}

// Close releases the terminal.
func (p *Prompter) Close() error {
	return p.rl.Close()
}

// PhoneNumber reads the login phone number.
func (p *Prompter) PhoneNumber() (string, error) {
	return p.readLine("phone number (international format): ")
}

// Code displays the delivered code hint and reads the code.
func (p *Prompter) Code(hint string) (string, error) {
	return p.readLine(hint + ": ")
}

// Password displays the password hint and reads the password without echo.
func (p *Prompter) Password(hint string) (string, error) {
	data, err := p.rl.ReadPassword(hint + ": ")
	if err != nil {
		return "", fmt.Errorf("console: read password: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (p *Prompter) readLine(prompt string) (string, error) {
	p.rl.SetPrompt(prompt)
	line, err := p.rl.Readline()
	if err != nil {
		return "", fmt.Errorf("console: read line: %w", err)
	}
	return strings.TrimSpace(line), nil
}
