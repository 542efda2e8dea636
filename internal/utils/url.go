package utils

import "fmt"

const baseURL = "https://discord.com"

func MessageURL(guildID, channelID, messageID string) string {
	return fmt.Sprintf("%s/channels/%s/%s/%s", baseURL, guildID, channelID, messageID)
}

// AuditLogURL opens the server's audit log inside the desktop client.
func AuditLogURL(guildID string) string {
	return fmt.Sprintf("discord://-/guilds/%s/settings/audit-log", guildID)
}

func StickerURL(stickerID string) string {
	return fmt.Sprintf("https://media.discordapp.net/stickers/%s.png", stickerID)
}
