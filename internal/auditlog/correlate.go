// Package auditlog attributes events to the audit-trail entry that most
// plausibly caused them. Lookups are best effort: failures are reported as a
// flag on the result, never as an error.
package auditlog

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"maestro/internal/platform"
)

// Criteria selects the entry. TargetID is compared first; ChannelID is
// compared against the entry's extra options, and is the only check when
// TargetID is empty.
type Criteria struct {
	TargetID  string
	ChannelID string
	MaxAge    time.Duration
}

type Correlation struct {
	Entry    *discordgo.AuditLogEntry
	Executor *discordgo.User
	Failed   bool
}

func (c Correlation) Found() bool {
	return c.Entry != nil
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Correlator struct {
	client platform.Client
	logger *zap.Logger
	clock  Clock
}

func New(client platform.Client, logger *zap.Logger) *Correlator {
	return &Correlator{client: client, logger: logger, clock: realClock{}}
}

func (c *Correlator) WithClock(clock Clock) {
	c.clock = clock
}

// Correlate fetches the single most recent entry of action for the guild and
// returns it when it matches criteria.
func (c *Correlator) Correlate(ctx context.Context, guildID string, action discordgo.AuditLogAction, criteria Criteria) Correlation {
	logs, err := c.client.AuditLog(ctx, guildID, action, 1)
	if err != nil {
		c.logger.Debug("audit log lookup failed", zap.String("guild_id", guildID), zap.Int("action", int(action)), zap.Error(err))
		return Correlation{Failed: true}
	}
	if logs == nil || len(logs.AuditLogEntries) == 0 {
		return Correlation{}
	}
	entry := logs.AuditLogEntries[0]
	if entry == nil || !c.matches(entry, action, criteria) {
		return Correlation{}
	}
	return Correlation{Entry: entry, Executor: c.executor(ctx, logs, entry.UserID)}
}

func (c *Correlator) matches(entry *discordgo.AuditLogEntry, action discordgo.AuditLogAction, criteria Criteria) bool {
	if entry.ActionType != nil && *entry.ActionType != action {
		return false
	}
	if criteria.MaxAge > 0 {
		created, err := discordgo.SnowflakeTimestamp(entry.ID)
		if err == nil && c.clock.Now().Sub(created) > criteria.MaxAge {
			return false
		}
	}

	entryChannel := ""
	if entry.Options != nil {
		entryChannel = entry.Options.ChannelID
	}

	if criteria.TargetID != "" && entry.TargetID != "" {
		if entry.TargetID != criteria.TargetID {
			return false
		}
		if criteria.ChannelID != "" && entryChannel != "" && entryChannel != criteria.ChannelID {
			return false
		}
		return true
	}

	if criteria.ChannelID == "" {
		return false
	}
	return entryChannel == criteria.ChannelID
}

func (c *Correlator) executor(ctx context.Context, logs *discordgo.GuildAuditLog, userID string) *discordgo.User {
	if userID == "" {
		return nil
	}
	for _, user := range logs.Users {
		if user != nil && user.ID == userID {
			return user
		}
	}
	user, err := c.client.User(ctx, userID)
	if err != nil {
		return &discordgo.User{ID: userID}
	}
	return user
}
