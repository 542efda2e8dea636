package report

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"maestro/internal/auditlog"
	"maestro/internal/destination"
	"maestro/internal/utils"
)

func (b *Builder) ChannelDelete(ctx context.Context, dest *destination.Destination, ev *discordgo.ChannelDelete) (*Report, error) {
	if ev == nil || ev.Channel == nil || utils.IsDMBased(ev.Type) {
		return nil, nil
	}
	channel := ev.Channel
	correlation := b.correlator.Correlate(ctx, dest.GuildID, discordgo.AuditLogActionChannelDelete, auditlog.Criteria{
		TargetID: channel.ID,
		MaxAge:   b.auditMaxAge,
	})

	r := New("Channel Deleted", ColorChannelDeleted, b.clock.Now())
	description := fmt.Sprintf("%s **%s (%s)** was deleted.", utils.ChannelTypeName(channel.Type), utils.EscapeMarkdown(channel.Name), channel.ID)
	if line := attribution(dest.GuildID, "Deleted", correlation); line != "" {
		description += "\n" + line
	}
	r.SetDescription(description)
	return r, nil
}

// ThreadDelete reports a deleted thread. The platform sends only ids for
// this event, so the name is shown when the cache had it.
func (b *Builder) ThreadDelete(ctx context.Context, dest *destination.Destination, ev *discordgo.ThreadDelete) (*Report, error) {
	if ev == nil || ev.Channel == nil {
		return nil, nil
	}
	thread := ev.Channel
	correlation := b.correlator.Correlate(ctx, dest.GuildID, discordgo.AuditLogActionThreadDelete, auditlog.Criteria{
		TargetID: thread.ID,
		MaxAge:   b.auditMaxAge,
	})

	name := "unknown thread"
	if thread.Name != "" {
		name = utils.EscapeMarkdown(thread.Name)
	}
	description := fmt.Sprintf("**💬#%s (%s)** was deleted", name, thread.ID)
	if thread.ParentID != "" {
		description += fmt.Sprintf(" from <#%s>", thread.ParentID)
	}
	description += "."
	if line := attribution(dest.GuildID, "Deleted", correlation); line != "" {
		description += "\n" + line
	}

	r := New("Thread Deleted", ColorThreadDeleted, b.clock.Now())
	r.SetDescription(description)
	return r, nil
}
