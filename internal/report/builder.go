package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"maestro/internal/auditlog"
	"maestro/internal/utils"
)

const (
	ColorMessageDeleted = 0xff3e3e
	ColorMessageEdited  = 0xffd300
	ColorMemberJoined   = 0x41e208
	ColorMemberLeft     = 0xe20808
	ColorMemberBanned   = 0x550707
	ColorMemberUnbanned = 0x175507
	ColorChannelDeleted = 0xff0000
	ColorThreadDeleted  = 0xce5858
	ColorAuditEntry     = 0xff3e3e
)

const auditLogHint = "Couldn't get the server's Audit Log to get extra info. Please make sure I have the \"View Audit Log\" permission."

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Client is the subset of the platform the builders read from.
type Client interface {
	BotUserID() string
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	Message(ctx context.Context, channelID, messageID string) (*discordgo.Message, error)
	User(ctx context.Context, userID string) (*discordgo.User, error)
	Webhook(ctx context.Context, webhookID string) (*discordgo.Webhook, error)
	GuildBan(ctx context.Context, guildID, userID string) (*discordgo.GuildBan, error)
}

// Builder holds the collaborators every report builder may consult. Each
// builder returns (nil, nil) when the event has nothing worth reporting.
type Builder struct {
	client      Client
	correlator  *auditlog.Correlator
	logger      *zap.Logger
	clock       Clock
	auditMaxAge time.Duration
}

func NewBuilder(client Client, correlator *auditlog.Correlator, logger *zap.Logger, auditMaxAge time.Duration) *Builder {
	return &Builder{
		client:      client,
		correlator:  correlator,
		logger:      logger,
		clock:       systemClock{},
		auditMaxAge: auditMaxAge,
	}
}

func (b *Builder) WithClock(clock Clock) {
	b.clock = clock
}

// channel falls back to a bare reference when the channel can't be fetched.
func (b *Builder) channel(ctx context.Context, channelID string) *discordgo.Channel {
	channel, err := b.client.Channel(ctx, channelID)
	if err != nil || channel == nil {
		return &discordgo.Channel{ID: channelID}
	}
	return channel
}

func (b *Builder) user(ctx context.Context, userID string) *discordgo.User {
	user, err := b.client.User(ctx, userID)
	if err != nil || user == nil {
		b.logger.Debug("user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return &discordgo.User{ID: userID}
	}
	return user
}

// attribution renders the executor line for a correlated audit entry, the
// remediation hint when the lookup failed, or nothing.
func attribution(guildID, verb string, c auditlog.Correlation) string {
	switch {
	case c.Failed:
		return auditLogHint
	case c.Found() && c.Executor != nil:
		return fmt.Sprintf("🛡️ %s by %s\n-# Taken from the most recent matching entry in the [Audit Log](%s), which may not have full details.",
			verb, utils.UserInfo(c.Executor), utils.AuditLogURL(guildID))
	}
	return ""
}

func joinLines(lines ...string) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// createdAt reads the creation time packed into a snowflake id.
func (b *Builder) createdAt(id string) time.Time {
	if ts, err := discordgo.SnowflakeTimestamp(id); err == nil {
		return ts
	}
	return b.clock.Now()
}
