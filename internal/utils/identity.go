package utils

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var channelTypeNames = map[discordgo.ChannelType]string{
	discordgo.ChannelTypeGuildText:          "Text Channel",
	discordgo.ChannelTypeDM:                 "DM Channel",
	discordgo.ChannelTypeGuildVoice:         "Voice Channel",
	discordgo.ChannelTypeGroupDM:            "Group DM",
	discordgo.ChannelTypeGuildCategory:      "Channel Category",
	discordgo.ChannelTypeGuildNews:          "Announcement Channel",
	discordgo.ChannelTypeGuildNewsThread:    "Thread in an Announcement Channel",
	discordgo.ChannelTypeGuildPublicThread:  "Thread",
	discordgo.ChannelTypeGuildPrivateThread: "Private Thread",
	discordgo.ChannelTypeGuildStageVoice:    "Stage Channel",
	discordgo.ChannelType(14):               "Hub Directory",
	discordgo.ChannelType(15):               "Forum",
	discordgo.ChannelType(16):               "Media Channel",
}

func ChannelTypeName(kind discordgo.ChannelType) string {
	if name, ok := channelTypeNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Channel (type %d)", kind)
}

func IsThread(kind discordgo.ChannelType) bool {
	switch kind {
	case discordgo.ChannelTypeGuildNewsThread, discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread:
		return true
	}
	return false
}

func IsDMBased(kind discordgo.ChannelType) bool {
	return kind == discordgo.ChannelTypeDM || kind == discordgo.ChannelTypeGroupDM
}

// UserTag is "name#1234" for legacy accounts and just the username otherwise.
func UserTag(user *discordgo.User) string {
	if user == nil {
		return "unknown user"
	}
	if user.Discriminator == "" || user.Discriminator == "0" {
		return user.Username
	}
	return user.Username + "#" + user.Discriminator
}

// UserInfo renders "<@id> ([SYSTEM] [BOT] tag id)" in bold.
func UserInfo(user *discordgo.User) string {
	if user == nil {
		return "**an unknown user**"
	}
	parts := make([]string, 0, 4)
	if user.System {
		parts = append(parts, "[SYSTEM]")
	}
	if user.Bot {
		parts = append(parts, "[BOT]")
	}
	parts = append(parts, EscapeMarkdown(UserTag(user)), user.ID)
	return fmt.Sprintf("**<@%s> (%s)**", user.ID, strings.Join(parts, " "))
}

// ChannelInfo renders "<#id> (💬#name)"; the marker appears for threads only.
func ChannelInfo(channel *discordgo.Channel) string {
	if channel == nil {
		return "an unknown channel"
	}
	if channel.Name == "" {
		return fmt.Sprintf("<#%s>", channel.ID)
	}
	marker := ""
	if IsThread(channel.Type) {
		marker = "💬"
	}
	return fmt.Sprintf("<#%s> (%s#%s)", channel.ID, marker, EscapeMarkdown(channel.Name))
}

func AvatarURL(user *discordgo.User) string {
	if user == nil {
		return ""
	}
	return user.AvatarURL("128")
}
