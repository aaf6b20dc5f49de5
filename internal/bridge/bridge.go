// Package bridge is the orchestrator: it authorizes the native Telegram
// client, then runs the receive loop that decodes updates and moves messages
// between Telegram and Discord.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tgcord/internal/auth"
	"tgcord/internal/discord"
	"tgcord/internal/event"
	"tgcord/internal/store"
	"tgcord/internal/tdjson"
	"tgcord/internal/translate"
)

// resolvePolls bounds how many receive polls a single identity lookup may
// consume before the sender is delivered as unresolved.
const resolvePolls = 10

// Webhook delivers spoofed payloads to the Discord channel.
type Webhook interface {
	Deliver(ctx context.Context, msg *discord.SpoofedMessage) error
}

// PlainSender sends under the bridge's own bot identity. It is the fallback
// path when spoofed delivery fails, and the reverse-direction target.
type PlainSender interface {
	SendPlain(channelID, content string) error
}

// Options wires the bridge's collaborators and the settings it runs under.
type Options struct {
	Transport  tdjson.Transport
	Authorizer *auth.Authorizer
	Decoder    *event.Decoder
	Pipeline   *translate.Pipeline
	Webhook    Webhook
	Plain      PlainSender
	Cache      *translate.UserCache
	Users      store.UserRepository
	Files      store.FileRepository
	Log        *slog.Logger

	TelegramChatID   int64
	DiscordChannelID string
	ReceiveTimeout   time.Duration
	PollInterval     time.Duration
}

type pendingMessage struct {
	msg  event.NewMessage
	user translate.UserInfo
}

// Bridge owns the update loop. Authorize must complete before Run; both run
// on the same goroutine, so backlog, pending and senders need no locking.
// HandleInbound runs on the gateway's event thread and only touches
// concurrency-safe collaborators.
type Bridge struct {
	transport  tdjson.Transport
	authorizer *auth.Authorizer
	decoder    *event.Decoder
	pipeline   *translate.Pipeline
	webhook    Webhook
	plain      PlainSender
	cache      *translate.UserCache
	users      store.UserRepository
	files      store.FileRepository
	health     *Health
	log        *slog.Logger

	telegramChatID   int64
	discordChannelID string
	receiveTimeout   time.Duration
	pollInterval     time.Duration

	// Envelopes pulled off the transport out of turn, waiting for the run
	// loop. Kept in arrival order.
	backlog [][]byte

	// Messages whose attachment has no URL yet, keyed by file id.
	pending map[int32][]pendingMessage

	// Sender of each delivered message, so edits can reuse the identity.
	senders map[int64]int64
}

// New creates a bridge from its wired collaborators.
func New(opts Options) *Bridge {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		transport:        opts.Transport,
		authorizer:       opts.Authorizer,
		decoder:          opts.Decoder,
		pipeline:         opts.Pipeline,
		webhook:          opts.Webhook,
		plain:            opts.Plain,
		cache:            opts.Cache,
		users:            opts.Users,
		files:            opts.Files,
		health:           NewHealth(),
		log:              log.With("component", "bridge"),
		telegramChatID:   opts.TelegramChatID,
		discordChannelID: opts.DiscordChannelID,
		receiveTimeout:   opts.ReceiveTimeout,
		pollInterval:     opts.PollInterval,
		pending:          make(map[int32][]pendingMessage),
		senders:          make(map[int64]int64),
	}
}

// Health returns the bridge's activity counters.
func (b *Bridge) Health() *Health {
	return b.health
}

// Authorize drives the login handshake to completion. It consumes only
// authorization updates; anything else that arrives meanwhile is queued for
// the run loop. Returns once the client is operational, or an error when the
// client closes or the context is cancelled.
func (b *Bridge) Authorize(ctx context.Context) error {
	b.log.Info("starting authorization")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := b.transport.Receive(b.receiveTimeout)
		if err != nil {
			return fmt.Errorf("receive during authorization: %w", err)
		}
		if raw == nil {
			continue
		}

		upd, ok := b.decoder.Decode(raw).(event.AuthUpdate)
		if !ok {
			b.backlog = append(b.backlog, raw)
			continue
		}

		switch st := b.authorizer.Handle(ctx, upd); {
		case st.IsOperational():
			return nil
		case st.IsTerminal():
			return errors.New("native client closed during authorization")
		}
	}
}

// Run is the steady-state loop: drain the backlog, receive, decode,
// dispatch. It returns when the context is cancelled or the transport dies.
func (b *Bridge) Run(ctx context.Context) error {
	b.log.Info("bridge running", "chat_id", b.telegramChatID, "channel_id", b.discordChannelID)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var raw []byte
		if len(b.backlog) > 0 {
			raw, b.backlog = b.backlog[0], b.backlog[1:]
		} else {
			var err error
			raw, err = b.transport.Receive(b.receiveTimeout)
			if err != nil {
				if errors.Is(err, tdjson.ErrClosed) {
					b.log.Info("transport closed, stopping")
					return nil
				}
				return fmt.Errorf("receive update: %w", err)
			}
			if raw == nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(b.pollInterval):
				}
				continue
			}
		}

		b.health.markReceived()
		b.dispatch(ctx, b.decoder.Decode(raw))

		if b.authorizer.State().IsTerminal() {
			b.log.Info("native client closed, stopping")
			return nil
		}
	}
}

func (b *Bridge) dispatch(ctx context.Context, ev event.Event) {
	switch ev := ev.(type) {
	case event.NewMessage:
		b.handleNewMessage(ctx, ev)
	case event.EditedMessage:
		b.handleEditedMessage(ctx, ev)
	case event.UserUpdate:
		b.handleUserUpdate(ctx, ev)
	case event.FileUpdate:
		b.handleFileUpdate(ctx, ev)
	case event.NewChat:
		b.log.Info("chat discovered", "chat_id", ev.ChatID, "title", ev.Title, "type", ev.ChatType)
	case event.AuthUpdate:
		// Authorization churn after startup, e.g. a logout from another
		// device. Keep the machine in step.
		b.authorizer.Handle(ctx, ev)
	case event.Unknown:
		b.log.Debug("ignoring update", "type", ev.TypeTag)
	}
}

func (b *Bridge) handleNewMessage(ctx context.Context, msg event.NewMessage) {
	if msg.ChatID != b.telegramChatID {
		return
	}
	if msg.IsOutgoing {
		// Our own sends come back as updates too; forwarding them would
		// echo every reverse-direction message.
		return
	}

	b.senders[msg.MessageID] = msg.SenderID

	user := b.resolveUser(ctx, msg.SenderID)
	res := b.pipeline.Translate(msg, user)

	if res.Deferred {
		b.pending[res.PendingFileID] = append(b.pending[res.PendingFileID], pendingMessage{msg: msg, user: user})
		b.health.markDeferred()
		if err := b.transport.Send(ctx, tdjson.NewDownloadFile(res.PendingFileID)); err != nil {
			b.log.Error("download request failed", "file_id", res.PendingFileID, "error", err)
		}
		return
	}
	if res.Payload == nil {
		return
	}

	b.deliver(ctx, res.Payload)
}

func (b *Bridge) handleEditedMessage(ctx context.Context, msg event.EditedMessage) {
	if msg.ChatID != b.telegramChatID {
		return
	}

	var user translate.UserInfo
	if senderID, ok := b.senders[msg.MessageID]; ok {
		user = b.resolveUser(ctx, senderID)
	}

	res := b.pipeline.Translate(event.NewMessage{
		ChatID:    msg.ChatID,
		MessageID: msg.MessageID,
		Content:   msg.Content,
	}, user)
	if res.Payload == nil {
		if res.Deferred {
			b.log.Debug("edited attachment not downloaded, skipping", "message_id", msg.MessageID)
		}
		return
	}

	res.Payload.Content = strings.TrimSpace(res.Payload.Content + " (edited)")
	b.deliver(ctx, res.Payload)
}

func (b *Bridge) handleUserUpdate(ctx context.Context, upd event.UserUpdate) {
	info := translate.UserInfo{
		UserID:    upd.UserID,
		FirstName: upd.FirstName,
		LastName:  upd.LastName,
		Username:  upd.Username,
		AvatarURL: upd.AvatarURL,
	}
	b.cache.Put(info)

	err := b.users.Upsert(ctx, &store.User{
		ID:        upd.UserID,
		FirstName: upd.FirstName,
		LastName:  upd.LastName,
		Username:  upd.Username,
		AvatarURL: upd.AvatarURL,
	})
	if err != nil {
		b.log.Error("persist identity failed", "user_id", upd.UserID, "error", err)
	}
}

func (b *Bridge) handleFileUpdate(ctx context.Context, upd event.FileUpdate) {
	err := b.files.Upsert(ctx, &store.File{
		ID:        upd.FileID,
		Size:      upd.Size,
		LocalPath: upd.LocalPath,
		State:     string(upd.State),
	})
	if err != nil {
		b.log.Error("persist file failed", "file_id", upd.FileID, "error", err)
	}

	if upd.State != event.DownloadCompleted || upd.LocalPath == "" {
		return
	}

	waiting := b.pending[upd.FileID]
	if len(waiting) == 0 {
		return
	}
	delete(b.pending, upd.FileID)

	for _, p := range waiting {
		p.msg.Content = withLocalPath(p.msg.Content, upd.LocalPath)
		res := b.pipeline.Translate(p.msg, p.user)
		if res.Payload == nil {
			b.log.Warn("deferred message still unresolved, dropping",
				"message_id", p.msg.MessageID, "file_id", upd.FileID)
			b.health.markDropped()
			continue
		}
		b.deliver(ctx, res.Payload)
	}
}

// deliver posts the spoofed payload; on failure it falls back to exactly one
// plain send under the bot identity, then gives up.
func (b *Bridge) deliver(ctx context.Context, payload *discord.SpoofedMessage) {
	err := b.webhook.Deliver(ctx, payload)
	if err == nil {
		b.health.markDelivered()
		return
	}

	b.log.Warn("spoofed delivery failed, falling back", "error", err)
	fallback := "**" + payload.Username + "**: " + fallbackText(payload)
	if perr := b.plain.SendPlain(b.discordChannelID, fallback); perr != nil {
		b.log.Error("fallback delivery failed, dropping message", "error", perr)
		b.health.markDropped()
		return
	}
	b.health.markFallback()
}

// resolveUser finds a sender identity: cache, then store, then a bounded
// live lookup against the native client. Envelopes that arrive during the
// lookup but don't answer it go to the backlog, preserving order.
func (b *Bridge) resolveUser(ctx context.Context, userID int64) translate.UserInfo {
	if u, ok := b.cache.Get(userID); ok {
		return u
	}

	if rec, err := b.users.GetByID(ctx, userID); err == nil {
		u := translate.UserInfo{
			UserID:    rec.ID,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			Username:  rec.Username,
			AvatarURL: rec.AvatarURL,
		}
		b.cache.Put(u)
		return u
	}

	if err := b.transport.Send(ctx, tdjson.NewGetUser(userID)); err != nil {
		b.log.Warn("identity lookup failed", "user_id", userID, "error", err)
		return unresolvedUser(userID)
	}

	for i := 0; i < resolvePolls; i++ {
		raw, err := b.transport.Receive(b.receiveTimeout)
		if err != nil {
			break
		}
		if raw == nil {
			continue
		}

		if uu, ok := b.decoder.Decode(raw).(event.UserUpdate); ok && uu.UserID == userID {
			b.handleUserUpdate(ctx, uu)
			u, _ := b.cache.Get(userID)
			return u
		}
		b.backlog = append(b.backlog, raw)
	}

	b.log.Warn("sender identity unresolved", "user_id", userID)
	return unresolvedUser(userID)
}

func unresolvedUser(userID int64) translate.UserInfo {
	return translate.UserInfo{UserID: userID, FirstName: fmt.Sprintf("User %d", userID)}
}

// HandleInbound forwards a Discord message to the bridged Telegram chat.
// Runs on the gateway's event thread.
func (b *Bridge) HandleInbound(msg discord.InboundMessage) {
	if msg.ChannelID != b.discordChannelID {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" && len(msg.Attachments) == 0 {
		return
	}

	lines := make([]string, 0, 1+len(msg.Attachments))
	if text != "" {
		lines = append(lines, msg.DisplayName+": "+text)
	} else {
		lines = append(lines, msg.DisplayName+":")
	}
	lines = append(lines, msg.Attachments...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := b.transport.Send(ctx, tdjson.NewSendMessage(b.telegramChatID, strings.Join(lines, "\n"))); err != nil {
		b.log.Error("forward to chat failed", "sender", msg.SenderID, "error", err)
		return
	}
	b.health.markForwarded()
}

func fallbackText(payload *discord.SpoofedMessage) string {
	parts := []string{}
	if payload.Content != "" {
		parts = append(parts, payload.Content)
	}
	for _, e := range payload.Embeds {
		if e.Image != nil {
			parts = append(parts, e.Image.URL)
		}
	}
	return strings.Join(parts, "\n")
}

func withLocalPath(c event.MessageContent, path string) event.MessageContent {
	switch c := c.(type) {
	case event.Attachment:
		c.Info.LocalPath = path
		return c
	case event.TextWithAttachment:
		c.Info.LocalPath = path
		return c
	}
	return c
}
