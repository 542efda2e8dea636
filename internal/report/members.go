package report

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"maestro/internal/auditlog"
	"maestro/internal/destination"
	"maestro/internal/utils"
)

func (b *Builder) MemberJoin(ctx context.Context, dest *destination.Destination, ev *discordgo.GuildMemberAdd) (*Report, error) {
	if ev == nil || ev.Member == nil || ev.User == nil {
		return nil, nil
	}
	user := ev.User
	r := New("Member Joined", ColorMemberJoined, b.clock.Now())
	r.Thumbnail = utils.AvatarURL(user)
	r.SetDescription(fmt.Sprintf("%s joined the server.\n-# Account created <t:%d:R>", utils.UserInfo(user), b.createdAt(user.ID).Unix()))
	return r, nil
}

func (b *Builder) MemberLeave(ctx context.Context, dest *destination.Destination, ev *discordgo.GuildMemberRemove) (*Report, error) {
	if ev == nil || ev.Member == nil || ev.User == nil {
		return nil, nil
	}
	user := ev.User
	r := New("Member Left", ColorMemberLeft, b.clock.Now())
	r.Thumbnail = utils.AvatarURL(user)
	r.SetDescription(fmt.Sprintf("%s left the server.", utils.UserInfo(user)))
	return r, nil
}

func (b *Builder) BanAdd(ctx context.Context, dest *destination.Destination, ev *discordgo.GuildBanAdd) (*Report, error) {
	if ev == nil || ev.User == nil {
		return nil, nil
	}
	reason := ""
	if ban, err := b.client.GuildBan(ctx, dest.GuildID, ev.User.ID); err == nil && ban != nil {
		reason = ban.Reason
	} else if err != nil {
		b.logger.Debug("ban lookup failed", zap.String("user_id", ev.User.ID), zap.Error(err))
	}
	correlation := b.correlator.Correlate(ctx, dest.GuildID, discordgo.AuditLogActionMemberBanAdd, auditlog.Criteria{
		TargetID: ev.User.ID,
		MaxAge:   b.auditMaxAge,
	})
	return b.banReport("Member Banned", ColorMemberBanned, "was banned from the server.", "Banned", dest.GuildID, ev.User, reason, correlation), nil
}

func (b *Builder) BanRemove(ctx context.Context, dest *destination.Destination, ev *discordgo.GuildBanRemove) (*Report, error) {
	if ev == nil || ev.User == nil {
		return nil, nil
	}
	correlation := b.correlator.Correlate(ctx, dest.GuildID, discordgo.AuditLogActionMemberBanRemove, auditlog.Criteria{
		TargetID: ev.User.ID,
		MaxAge:   b.auditMaxAge,
	})
	return b.banReport("Member Unbanned", ColorMemberUnbanned, "was unbanned from the server.", "Unbanned", dest.GuildID, ev.User, "", correlation), nil
}

func (b *Builder) banReport(title string, color int, what, verb, guildID string, user *discordgo.User, reason string, correlation auditlog.Correlation) *Report {
	if reason == "" && correlation.Found() {
		reason = correlation.Entry.Reason
	}
	r := New(title, color, b.clock.Now())
	r.Thumbnail = utils.AvatarURL(user)
	description := fmt.Sprintf("%s %s", utils.UserInfo(user), what)
	if line := attribution(guildID, verb, correlation); line != "" {
		description += "\n" + line
	}
	r.SetDescription(description)
	if reason != "" {
		r.AddField("Reason", reason)
	}
	return r
}
