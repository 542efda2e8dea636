package platform

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Session adapts a discordgo session to Client. Reads go to the state cache
// first and fall back to REST.
type Session struct {
	session *discordgo.Session
}

func NewSession(session *discordgo.Session) *Session {
	return &Session{session: session}
}

func (s *Session) BotUserID() string {
	if s.session.State == nil || s.session.State.User == nil {
		return ""
	}
	return s.session.State.User.ID
}

func (s *Session) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if s.session.State != nil {
		if channel, err := s.session.State.Channel(channelID); err == nil && channel != nil {
			return channel, nil
		}
	}
	channel, err := s.session.Channel(channelID, discordgo.WithContext(ctx))
	return channel, classify("fetch channel", err)
}

func (s *Session) ChannelPermissions(ctx context.Context, userID, channelID string) (int64, error) {
	perms, err := s.session.UserChannelPermissions(userID, channelID, discordgo.WithContext(ctx))
	return perms, classify("channel permissions", err)
}

func (s *Session) GuildPermissions(ctx context.Context, guildID, userID string) (int64, error) {
	member, err := s.member(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}
	guild, err := s.guild(ctx, guildID)
	if err != nil {
		return 0, err
	}
	if guild.OwnerID == userID {
		return discordgo.PermissionAll, nil
	}
	perms := memberPermissions(guild, member)
	if perms&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll, nil
	}
	return perms, nil
}

func (s *Session) member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if s.session.State != nil {
		if member, err := s.session.State.Member(guildID, userID); err == nil && member != nil {
			return member, nil
		}
	}
	member, err := s.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	return member, classify("fetch member", err)
}

func (s *Session) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if s.session.State != nil {
		if guild, err := s.session.State.Guild(guildID); err == nil && guild != nil && len(guild.Roles) > 0 {
			return guild, nil
		}
	}
	guild, err := s.session.Guild(guildID, discordgo.WithContext(ctx))
	return guild, classify("fetch guild", err)
}

func memberPermissions(guild *discordgo.Guild, member *discordgo.Member) int64 {
	if guild == nil || member == nil {
		return 0
	}
	perms := int64(0)
	roleMap := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		roleMap[role.ID] = role
		if role.ID == guild.ID {
			perms |= role.Permissions
		}
	}
	for _, roleID := range member.Roles {
		if role := roleMap[roleID]; role != nil {
			perms |= role.Permissions
		}
	}
	return perms
}

func (s *Session) Message(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	if s.session.State != nil {
		if msg, err := s.session.State.Message(channelID, messageID); err == nil && msg != nil {
			return msg, nil
		}
	}
	msg, err := s.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	return msg, classify("fetch message", err)
}

func (s *Session) User(ctx context.Context, userID string) (*discordgo.User, error) {
	user, err := s.session.User(userID, discordgo.WithContext(ctx))
	return user, classify("fetch user", err)
}

func (s *Session) Webhook(ctx context.Context, webhookID string) (*discordgo.Webhook, error) {
	webhook, err := s.session.Webhook(webhookID, discordgo.WithContext(ctx))
	return webhook, classify("fetch webhook", err)
}

func (s *Session) GuildBan(ctx context.Context, guildID, userID string) (*discordgo.GuildBan, error) {
	ban, err := s.session.GuildBan(guildID, userID, discordgo.WithContext(ctx))
	return ban, classify("fetch ban", err)
}

func (s *Session) AuditLog(ctx context.Context, guildID string, action discordgo.AuditLogAction, limit int) (*discordgo.GuildAuditLog, error) {
	logs, err := s.session.GuildAuditLog(guildID, "", "", int(action), limit, discordgo.WithContext(ctx))
	return logs, classify("fetch audit log", err)
}

func (s *Session) Send(ctx context.Context, channelID string, msg *discordgo.MessageSend) error {
	_, err := s.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
	return classify("send message", err)
}
