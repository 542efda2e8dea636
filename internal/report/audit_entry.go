package report

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"maestro/internal/destination"
	"maestro/internal/utils"
)

const auditEntryFooter = "Audit Log entry sent"

// AuditEntry is a pushed audit-trail entry together with the guild it was
// recorded in, which the platform library does not keep on the entry.
type AuditEntry struct {
	GuildID string
	Entry   *discordgo.AuditLogEntry
}

// AuditEntry routes an entry to the builder for its action kind. Unknown
// kinds, and entries missing the executor or target, are skipped.
func (b *Builder) AuditEntry(ctx context.Context, dest *destination.Destination, ev AuditEntry) (*Report, error) {
	entry := ev.Entry
	if entry == nil || entry.ActionType == nil || entry.UserID == "" || entry.TargetID == "" {
		return nil, nil
	}
	switch *entry.ActionType {
	case discordgo.AuditLogActionChannelDelete:
		return b.auditNamedDelete(ctx, entry, "Channel")
	case discordgo.AuditLogActionThreadDelete:
		return b.auditNamedDelete(ctx, entry, "Thread")
	case discordgo.AuditLogActionMemberBanAdd:
		return b.auditBan(ctx, entry)
	case discordgo.AuditLogActionMessageDelete:
		return b.auditMessageDelete(ctx, dest, entry)
	}
	return nil, nil
}

func (b *Builder) auditReport(title string, entry *discordgo.AuditLogEntry) *Report {
	r := New("Audit Log • "+title, ColorAuditEntry, b.createdAt(entry.ID))
	r.Footer = auditEntryFooter
	return r
}

func (b *Builder) auditNamedDelete(ctx context.Context, entry *discordgo.AuditLogEntry, kind string) (*Report, error) {
	name := deletedName(entry)
	if name == "" {
		return nil, nil
	}
	executor := b.user(ctx, entry.UserID)
	r := b.auditReport(kind+" Deleted", entry)
	r.SetDescription(fmt.Sprintf("%s **%s (%s)** was deleted by %s.", kind, utils.EscapeMarkdown(name), entry.TargetID, utils.UserInfo(executor)))
	return r, nil
}

func (b *Builder) auditBan(ctx context.Context, entry *discordgo.AuditLogEntry) (*Report, error) {
	executor := b.user(ctx, entry.UserID)
	target := b.user(ctx, entry.TargetID)
	r := b.auditReport("Member Banned", entry)
	r.Thumbnail = utils.AvatarURL(target)
	r.SetDescription(fmt.Sprintf("%s was banned by %s.", utils.UserInfo(target), utils.UserInfo(executor)))
	if entry.Reason != "" {
		r.AddField("Reason", entry.Reason)
	}
	return r, nil
}

func (b *Builder) auditMessageDelete(ctx context.Context, dest *destination.Destination, entry *discordgo.AuditLogEntry) (*Report, error) {
	executor := b.user(ctx, entry.UserID)
	target := b.user(ctx, entry.TargetID)

	where := ""
	if entry.Options != nil && entry.Options.ChannelID != "" {
		where = " in " + utils.ChannelInfo(b.channel(ctx, entry.Options.ChannelID))
	}
	count := ""
	if entry.Options != nil && entry.Options.Count != "" && entry.Options.Count != "1" {
		count = fmt.Sprintf(" (%s messages so far)", entry.Options.Count)
	}

	r := b.auditReport("Message Deleted", entry)
	r.Thumbnail = utils.AvatarURL(target)
	r.SetDescription(fmt.Sprintf("A message from %s was deleted by %s%s%s.\n\n-# Discord does not send specific details about the deleted message itself in the Audit Log. Cross-reference with other logs or [open the Audit Log](%s) in Discord for more information.",
		utils.UserInfo(target), utils.UserInfo(executor), where, count, utils.AuditLogURL(dest.GuildID)))
	return r, nil
}

// deletedName reads the name a deleted object had from the entry's changes.
func deletedName(entry *discordgo.AuditLogEntry) string {
	for _, change := range entry.Changes {
		if change == nil || change.Key == nil || *change.Key != discordgo.AuditLogChangeKeyName {
			continue
		}
		if name, ok := change.OldValue.(string); ok && name != "" {
			return name
		}
	}
	return ""
}
