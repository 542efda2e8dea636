package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"maestro/internal/auditlog"
	"maestro/internal/config"
	"maestro/internal/destination"
	"maestro/internal/dispatch"
	"maestro/internal/metrics"
	"maestro/internal/platform"
	"maestro/internal/report"
)

type Bot struct {
	cfg        config.Config
	logger     *zap.Logger
	session    *discordgo.Session
	client     platform.Client
	resolver   *destination.Resolver
	dispatcher *dispatch.Dispatcher
	events     events
	cache      *MessageCache
	metrics    *metrics.Metrics
}

func New(cfg config.Config, logger *zap.Logger, store destination.Store, m *metrics.Metrics) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentGuildModeration |
		discordgo.IntentMessageContent
	session.State.MaxMessageCount = 0

	client := platform.NewSession(session)
	resolver := destination.NewResolver(store, client)
	correlator := auditlog.New(client, logger)
	builder := report.NewBuilder(client, correlator, logger, time.Duration(cfg.Dispatch.AuditMaxAgeSeconds)*time.Second)

	opts := dispatch.Options{
		Timeout:         time.Duration(cfg.Dispatch.TimeoutSeconds) * time.Second,
		BulkConcurrency: cfg.Dispatch.BulkConcurrency,
	}
	if m != nil {
		opts.Observer = m
	}

	return &Bot{
		cfg:        cfg,
		logger:     logger,
		session:    session,
		client:     client,
		resolver:   resolver,
		dispatcher: dispatch.New(resolver, client, logger, opts),
		events:     newEvents(builder),
		cache:      NewMessageCache(cfg.StateMaxMessages),
		metrics:    m,
	}, nil
}

func (b *Bot) Start() error {
	handlers := []interface{}{
		b.onReady,
		b.onMessageCreate,
		b.onMessageUpdate,
		b.onMessageDelete,
		b.onMessageDeleteBulk,
		b.onGuildMemberAdd,
		b.onGuildMemberRemove,
		b.onGuildBanAdd,
		b.onGuildBanRemove,
		b.onChannelDelete,
		b.onThreadDelete,
		b.onEvent,
		b.onInteractionCreate,
	}
	for _, handler := range handlers {
		b.session.AddHandler(handler)
	}

	if err := b.session.Open(); err != nil {
		return err
	}

	return b.registerCommands()
}

// Close disconnects from the gateway, giving up when ctx ends first.
func (b *Bot) Close(ctx context.Context) error {
	if b.session == nil {
		return nil
	}
	return closeWithin(ctx, b.session.Close)
}

func closeWithin(ctx context.Context, closeFn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- closeFn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
