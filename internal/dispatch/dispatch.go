// Package dispatch routes one platform event through guild extraction,
// destination resolution, report building and the final send.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"maestro/internal/destination"
	"maestro/internal/report"
)

type Outcome int

const (
	NoGuild Outcome = iota
	Unconfigured
	Misconfigured
	Skipped
	Sent
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NoGuild:
		return "no_guild"
	case Unconfigured:
		return "unconfigured"
	case Misconfigured:
		return "misconfigured"
	case Skipped:
		return "skipped"
	case Sent:
		return "sent"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type Resolver interface {
	Resolve(ctx context.Context, guildID string) (*destination.Destination, error)
}

type Sender interface {
	Send(ctx context.Context, channelID string, msg *discordgo.MessageSend) error
}

// Observer receives one call per finished dispatch.
type Observer interface {
	Observe(event, outcome string, elapsed time.Duration)
}

type Options struct {
	Timeout         time.Duration
	BulkConcurrency int
	Observer        Observer
}

// Handler binds one event kind to its guild extraction and report builder.
// Build returning a nil report means the event carries nothing to report.
type Handler[T any] struct {
	Event string
	Guild func(T) string
	Build func(ctx context.Context, dest *destination.Destination, payload T) (*report.Report, error)
}

type Dispatcher struct {
	resolver Resolver
	sender   Sender
	logger   *zap.Logger
	opts     Options
}

func New(resolver Resolver, sender Sender, logger *zap.Logger, opts Options) *Dispatcher {
	if opts.BulkConcurrency <= 0 {
		opts.BulkConcurrency = 1
	}
	return &Dispatcher{resolver: resolver, sender: sender, logger: logger, opts: opts}
}

// Dispatch runs payload through h. It never panics and never returns an
// error; failures are logged and reflected in the outcome.
func Dispatch[T any](ctx context.Context, d *Dispatcher, h Handler[T], payload T) (outcome Outcome) {
	started := time.Now()
	logger := d.logger.With(zap.String("dispatch_id", uuid.NewString()), zap.String("event", h.Event))

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("dispatch panic", zap.Any("panic", recovered), zap.Stack("stack"))
			outcome = Failed
		}
		if d.opts.Observer != nil {
			d.opts.Observer.Observe(h.Event, outcome.String(), time.Since(started))
		}
	}()

	guildID := h.Guild(payload)
	if guildID == "" {
		return NoGuild
	}
	logger = logger.With(zap.String("guild_id", guildID))

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	dest, err := d.resolver.Resolve(ctx, guildID)
	switch {
	case err != nil && destination.IsMisconfigured(err):
		logger.Warn("log channel unusable", zap.Error(err))
		return Misconfigured
	case err != nil:
		logger.Error("resolve destination failed", zap.Error(err))
		return Failed
	case dest == nil:
		logger.Debug("guild has no log channel")
		return Unconfigured
	}

	r, err := h.Build(ctx, dest, payload)
	if err != nil {
		logger.Error("build report failed", zap.Error(err))
		return Failed
	}
	if r == nil {
		return Skipped
	}

	if err := d.sender.Send(ctx, dest.ChannelID, r.MessageSend()); err != nil {
		logger.Error("send report failed", zap.String("channel_id", dest.ChannelID), zap.Error(err))
		return Failed
	}
	return Sent
}

// DispatchAll dispatches every payload independently, at most
// BulkConcurrency at a time. Outcomes are returned in payload order.
func DispatchAll[T any](ctx context.Context, d *Dispatcher, h Handler[T], payloads []T) []Outcome {
	outcomes := make([]Outcome, len(payloads))
	var group errgroup.Group
	group.SetLimit(d.opts.BulkConcurrency)
	for i, payload := range payloads {
		i, payload := i, payload
		group.Go(func() error {
			outcomes[i] = Dispatch(ctx, d, h, payload)
			return nil
		})
	}
	_ = group.Wait()
	return outcomes
}

// Guard wraps a guild extractor so nil pointer payloads yield no guild.
func Guard[T any](extract func(*T) string) func(*T) string {
	return func(payload *T) string {
		if payload == nil {
			return ""
		}
		return extract(payload)
	}
}
