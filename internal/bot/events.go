package bot

import (
	"github.com/bwmarrin/discordgo"

	"maestro/internal/dispatch"
	"maestro/internal/report"
)

// events is the static registration table: one dispatch handler per
// reported event kind.
type events struct {
	messageDelete dispatch.Handler[*discordgo.MessageDelete]
	messageUpdate dispatch.Handler[*discordgo.MessageUpdate]
	memberJoin    dispatch.Handler[*discordgo.GuildMemberAdd]
	memberLeave   dispatch.Handler[*discordgo.GuildMemberRemove]
	banAdd        dispatch.Handler[*discordgo.GuildBanAdd]
	banRemove     dispatch.Handler[*discordgo.GuildBanRemove]
	channelDelete dispatch.Handler[*discordgo.ChannelDelete]
	threadDelete  dispatch.Handler[*discordgo.ThreadDelete]
	auditEntry    dispatch.Handler[report.AuditEntry]
}

func newEvents(builder *report.Builder) events {
	return events{
		messageDelete: dispatch.Handler[*discordgo.MessageDelete]{
			Event: "message_delete",
			Guild: dispatch.Guard(func(ev *discordgo.MessageDelete) string {
				if ev.Message == nil {
					return ""
				}
				if ev.GuildID == "" && ev.BeforeDelete != nil {
					return ev.BeforeDelete.GuildID
				}
				return ev.GuildID
			}),
			Build: builder.MessageDelete,
		},
		messageUpdate: dispatch.Handler[*discordgo.MessageUpdate]{
			Event: "message_update",
			Guild: dispatch.Guard(func(ev *discordgo.MessageUpdate) string {
				if ev.Message == nil {
					return ""
				}
				return ev.GuildID
			}),
			Build: builder.MessageUpdate,
		},
		memberJoin: dispatch.Handler[*discordgo.GuildMemberAdd]{
			Event: "member_join",
			Guild: dispatch.Guard(func(ev *discordgo.GuildMemberAdd) string {
				if ev.Member == nil {
					return ""
				}
				return ev.GuildID
			}),
			Build: builder.MemberJoin,
		},
		memberLeave: dispatch.Handler[*discordgo.GuildMemberRemove]{
			Event: "member_leave",
			Guild: dispatch.Guard(func(ev *discordgo.GuildMemberRemove) string {
				if ev.Member == nil {
					return ""
				}
				return ev.GuildID
			}),
			Build: builder.MemberLeave,
		},
		banAdd: dispatch.Handler[*discordgo.GuildBanAdd]{
			Event: "ban_add",
			Guild: dispatch.Guard(func(ev *discordgo.GuildBanAdd) string { return ev.GuildID }),
			Build: builder.BanAdd,
		},
		banRemove: dispatch.Handler[*discordgo.GuildBanRemove]{
			Event: "ban_remove",
			Guild: dispatch.Guard(func(ev *discordgo.GuildBanRemove) string { return ev.GuildID }),
			Build: builder.BanRemove,
		},
		channelDelete: dispatch.Handler[*discordgo.ChannelDelete]{
			Event: "channel_delete",
			Guild: dispatch.Guard(func(ev *discordgo.ChannelDelete) string {
				if ev.Channel == nil {
					return ""
				}
				return ev.GuildID
			}),
			Build: builder.ChannelDelete,
		},
		threadDelete: dispatch.Handler[*discordgo.ThreadDelete]{
			Event: "thread_delete",
			Guild: dispatch.Guard(func(ev *discordgo.ThreadDelete) string {
				if ev.Channel == nil {
					return ""
				}
				return ev.GuildID
			}),
			Build: builder.ThreadDelete,
		},
		auditEntry: dispatch.Handler[report.AuditEntry]{
			Event: "audit_entry",
			Guild: func(ev report.AuditEntry) string { return ev.GuildID },
			Build: builder.AuditEntry,
		},
	}
}
