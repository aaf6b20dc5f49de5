package discord

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
)

// InboundMessage is one message received from the Discord gateway.
type InboundMessage struct {
	ChannelID   string
	SenderID    string
	DisplayName string
	Text        string
	Attachments []string
}

// MessageHandler receives inbound gateway messages. It runs on the session
// library's event thread and must not block indefinitely.
type MessageHandler func(msg InboundMessage)

// Session wraps the discordgo gateway session. It is started once and runs
// for the process lifetime.
type Session struct {
	dg  *discordgo.Session
	log *slog.Logger
}

// NewSession creates a gateway session with the intents the bridge needs.
func NewSession(token string, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	return &Session{
		dg:  dg,
		log: log.With("component", "discord"),
	}, nil
}

// Start registers the message handler and opens the gateway connection,
// retrying with exponential backoff while the gateway is unreachable.
func (s *Session) Start(onMessage MessageHandler) error {
	s.dg.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		if s.dg.State != nil && s.dg.State.User != nil && m.Author.ID == s.dg.State.User.ID {
			return
		}

		name := m.Author.Username
		if m.Member != nil && m.Member.Nick != "" {
			name = m.Member.Nick
		}

		attachments := make([]string, 0, len(m.Attachments))
		for _, a := range m.Attachments {
			attachments = append(attachments, a.URL)
		}

		onMessage(InboundMessage{
			ChannelID:   m.ChannelID,
			SenderID:    m.Author.ID,
			DisplayName: name,
			Text:        m.Content,
			Attachments: attachments,
		})
	})

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 2 * time.Minute

	err := backoff.RetryNotify(
		s.dg.Open,
		bo,
		func(err error, delay time.Duration) {
			s.log.Warn("gateway open failed, retrying", "error", err, "delay", delay)
		},
	)
	if err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}

	s.log.Info("gateway connected")
	return nil
}

// SendPlain sends a message under the bridge's own bot identity. Used for
// fallback delivery and the reverse direction.
func (s *Session) SendPlain(channelID, content string) error {
	if _, err := s.dg.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("discord: plain send: %w", err)
	}
	return nil
}

// Close shuts the gateway connection down.
func (s *Session) Close() error {
	return s.dg.Close()
}
