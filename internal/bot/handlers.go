package bot

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"maestro/internal/dispatch"
	"maestro/internal/report"
	"maestro/internal/utils"
)

const auditLogEntryCreate = "GUILD_AUDIT_LOG_ENTRY_CREATE"

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("logged in", zap.String("user", utils.UserTag(event.User)), zap.Int("guilds", len(event.Guilds)))
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Message == nil || msg.GuildID == "" {
		return
	}
	b.cache.Put(msg.Message)
	b.trackCache()
}

func (b *Bot) onMessageUpdate(session *discordgo.Session, ev *discordgo.MessageUpdate) {
	if ev.Message == nil {
		return
	}
	ev.BeforeUpdate, ev.Message = b.cache.Swap(ev.Message)
	b.trackCache()
	dispatch.Dispatch(context.Background(), b.dispatcher, b.events.messageUpdate, ev)
}

func (b *Bot) onMessageDelete(session *discordgo.Session, ev *discordgo.MessageDelete) {
	if ev.Message == nil {
		return
	}
	ev.BeforeDelete = b.cache.Delete(ev.ChannelID, ev.ID)
	b.trackCache()
	dispatch.Dispatch(context.Background(), b.dispatcher, b.events.messageDelete, ev)
}

// onMessageDeleteBulk reports each message of a bulk deletion on its own.
func (b *Bot) onMessageDeleteBulk(session *discordgo.Session, ev *discordgo.MessageDeleteBulk) {
	snapshots := b.cache.DeleteBulk(ev.ChannelID, ev.Messages)
	b.trackCache()

	payloads := make([]*discordgo.MessageDelete, len(ev.Messages))
	for i, id := range ev.Messages {
		payloads[i] = &discordgo.MessageDelete{
			Message:      &discordgo.Message{ID: id, ChannelID: ev.ChannelID, GuildID: ev.GuildID},
			BeforeDelete: snapshots[i],
		}
	}
	outcomes := dispatch.DispatchAll(context.Background(), b.dispatcher, b.events.messageDelete, payloads)

	sent := 0
	for _, outcome := range outcomes {
		if outcome == dispatch.Sent {
			sent++
		}
	}
	b.logger.Debug("bulk delete dispatched", zap.String("guild_id", ev.GuildID), zap.String("channel_id", ev.ChannelID), zap.Int("messages", len(payloads)), zap.Int("sent", sent))
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, ev *discordgo.GuildMemberAdd) {
	dispatch.Dispatch(context.Background(), b.dispatcher, b.events.memberJoin, ev)
}

func (b *Bot) onGuildMemberRemove(session *discordgo.Session, ev *discordgo.GuildMemberRemove) {
	dispatch.Dispatch(context.Background(), b.dispatcher, b.events.memberLeave, ev)
}

func (b *Bot) onGuildBanAdd(session *discordgo.Session, ev *discordgo.GuildBanAdd) {
	dispatch.Dispatch(context.Background(), b.dispatcher, b.events.banAdd, ev)
}

func (b *Bot) onGuildBanRemove(session *discordgo.Session, ev *discordgo.GuildBanRemove) {
	dispatch.Dispatch(context.Background(), b.dispatcher, b.events.banRemove, ev)
}

func (b *Bot) onChannelDelete(session *discordgo.Session, ev *discordgo.ChannelDelete) {
	if ev.Channel != nil {
		b.cache.DropChannel(ev.ID)
		b.trackCache()
	}
	dispatch.Dispatch(context.Background(), b.dispatcher, b.events.channelDelete, ev)
}

func (b *Bot) onThreadDelete(session *discordgo.Session, ev *discordgo.ThreadDelete) {
	if ev.Channel != nil {
		b.cache.DropChannel(ev.ID)
		b.trackCache()
	}
	dispatch.Dispatch(context.Background(), b.dispatcher, b.events.threadDelete, ev)
}

// onEvent picks audit-trail entries off the raw event stream, since the
// typed payload does not carry the guild the entry belongs to.
func (b *Bot) onEvent(session *discordgo.Session, event *discordgo.Event) {
	if event.Type != auditLogEntryCreate || !b.cfg.Dispatch.AuditEntryEvents {
		return
	}
	created, ok := event.Struct.(*discordgo.GuildAuditLogEntryCreate)
	if !ok || created.AuditLogEntry == nil {
		return
	}
	guildID, err := guildIDFromRaw(event.RawData)
	if err != nil {
		b.logger.Warn("audit entry without guild", zap.Error(err))
		return
	}
	dispatch.Dispatch(context.Background(), b.dispatcher, b.events.auditEntry, report.AuditEntry{GuildID: guildID, Entry: created.AuditLogEntry})
}

func guildIDFromRaw(raw json.RawMessage) (string, error) {
	var payload struct {
		GuildID string `json:"guild_id"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", err
	}
	return payload.GuildID, nil
}

func (b *Bot) trackCache() {
	if b.metrics != nil {
		b.metrics.CachedMessages.Set(float64(b.cache.Len()))
	}
}
