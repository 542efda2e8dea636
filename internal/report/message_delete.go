package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"maestro/internal/auditlog"
	"maestro/internal/destination"
	"maestro/internal/platform"
	"maestro/internal/utils"
)

const (
	attachmentsMovedNotice = "A list of attachment file names, types, and old links have been added above this report."
	maxDeletedEmbeds       = 5
)

// Message kinds newer than the platform library's named constants.
const (
	messageTypeAutoModerationAction     discordgo.MessageType = 24
	messageTypeRoleSubscriptionPurchase discordgo.MessageType = 25
	messageTypeStageStart               discordgo.MessageType = 27
	messageTypeStageEnd                 discordgo.MessageType = 28
	messageTypeStageSpeaker             discordgo.MessageType = 29
	messageTypeStageTopic               discordgo.MessageType = 31
)

var messageTypeNotes = map[discordgo.MessageType]string{
	discordgo.MessageTypeChannelPinnedMessage:                  "This was a pinned message system notification.",
	discordgo.MessageTypeGuildMemberJoin:                       "This was a member join system notification.",
	discordgo.MessageTypeUserPremiumGuildSubscription:          "This was a server boost notification.",
	discordgo.MessageTypeUserPremiumGuildSubscriptionTierOne:   "This was a tier 1 server boost notification.",
	discordgo.MessageTypeUserPremiumGuildSubscriptionTierTwo:   "This was a tier 2 server boost notification.",
	discordgo.MessageTypeUserPremiumGuildSubscriptionTierThree: "This was a tier 3 server boost notification.",
	discordgo.MessageTypeChannelFollowAdd:                      "This was a following channel notification.",
	discordgo.MessageTypeThreadCreated:                         "This was a thread created system notification.",
	discordgo.MessageTypeChatInputCommand:                      "This message is a bot's response to a chat command.",
	discordgo.MessageTypeContextMenuCommand:                    "This message is a bot's response to a context menu command.",
	messageTypeAutoModerationAction:                            ":no_entry_sign: **This was an AutoMod notification that flagged this user's message.**",
	messageTypeRoleSubscriptionPurchase:                        "This message was a role subscription purchase notification.",
	messageTypeStageStart:                                      "This message was a stage start system notification.",
	messageTypeStageEnd:                                        "This message was a stage end system notification.",
	messageTypeStageSpeaker:                                    "This message was a stage speaker system notification.",
	messageTypeStageTopic:                                      "This message was a stage topic system notification.",
}

// MessageDelete reports a deleted message. Messages the bot never saw get a
// degraded report that can only name the channel and, when the audit trail
// allows it, who deleted something there.
func (b *Builder) MessageDelete(ctx context.Context, dest *destination.Destination, ev *discordgo.MessageDelete) (*Report, error) {
	if ev == nil || ev.Message == nil {
		return nil, nil
	}
	msg := ev.BeforeDelete
	if msg == nil || msg.Author == nil {
		return b.partialMessageDelete(ctx, dest, ev.Message)
	}
	if msg.Author.ID == b.client.BotUserID() {
		return nil, nil
	}
	channelID := msg.ChannelID
	if channelID == "" {
		channelID = ev.ChannelID
	}

	channel := b.channel(ctx, channelID)
	content := msg.Content
	if utils.IsBlank(content) {
		content = "(this message was empty)"
	}

	r := New("Message Deleted", ColorMessageDeleted, msg.Timestamp)
	if msg.Timestamp.IsZero() {
		r.Timestamp = b.createdAt(msg.ID)
	}
	r.SetDescription(content)
	r.Footer = fmt.Sprintf("Message ID: %s • Deleted message was originally sent", msg.ID)
	r.Thumbnail = utils.AvatarURL(msg.Author)

	lines := []string{fmt.Sprintf("A message from %s was deleted in %s", utils.UserInfo(msg.Author), utils.ChannelInfo(channel))}
	lines = append(lines, messageNotes(msg)...)
	if note := b.typeNote(ctx, dest.GuildID, msg); note != "" {
		lines = append(lines, note)
	}
	correlation := b.correlator.Correlate(ctx, dest.GuildID, discordgo.AuditLogActionMessageDelete, auditlog.Criteria{
		TargetID:  msg.Author.ID,
		ChannelID: channelID,
	})
	if line := attribution(dest.GuildID, "Deleted", correlation); line != "" {
		lines = append(lines, "\n"+line)
	}
	r.AddField("===== Message Report =====", joinLines(lines...))

	if msg.Interaction != nil {
		r.AddField("User Interaction", fmt.Sprintf("This message responded to the following command:\n**%s**", utils.EscapeMarkdown(msg.Interaction.Name)))
	}
	if msg.Thread != nil {
		r.AddField("Thread", fmt.Sprintf("This was the start of the <#%s> **(%s %s)** thread.", msg.Thread.ID, utils.EscapeMarkdown(msg.Thread.Name), msg.Thread.ID))
	} else if msg.Flags&discordgo.MessageFlagsHasThread != 0 {
		r.AddField("Thread", "This was the start of a thread.")
	}
	if msg.WebhookID != "" && msg.Interaction == nil {
		r.AddField("Webhook", b.webhookNote(ctx, msg.WebhookID))
	}

	if count := len(msg.Attachments); count > 0 {
		r.AddFieldOverflow("Contained "+utils.Pluralize(count, "attachment"), attachmentList(msg.Attachments), Overflow{
			Name:     utils.Pluralize(count, "attachment"),
			FileName: "attachments.txt",
			Notice:   attachmentsMovedNotice,
		})
	}

	if count := len(msg.Embeds); count > 0 {
		text := "They will be appended to the end of this report."
		switch {
		case count > maxDeletedEmbeds:
			text = fmt.Sprintf("Appending the first %d to the end of this report.", maxDeletedEmbeds)
		case count == 1:
			text = "It will be appended to the end of this report."
		}
		r.AddField("Included "+utils.Pluralize(count, "embed"), text)
		r.AppendEmbeds(msg.Embeds, maxDeletedEmbeds)
	}

	return r, nil
}

func (b *Builder) partialMessageDelete(ctx context.Context, dest *destination.Destination, ref *discordgo.Message) (*Report, error) {
	if ref.ChannelID == "" {
		return nil, nil
	}
	channel := b.channel(ctx, ref.ChannelID)

	r := New("Message Deleted", ColorMessageDeleted, b.createdAt(ref.ID))
	r.Footer = fmt.Sprintf("Message ID: %s • Deleted message was originally sent", ref.ID)

	correlation := b.correlator.Correlate(ctx, dest.GuildID, discordgo.AuditLogActionMessageDelete, auditlog.Criteria{
		ChannelID: ref.ChannelID,
	})
	description := fmt.Sprintf("A message was deleted in %s, but it was sent before I started keeping track of it, so no accurate author or content data is available.", utils.ChannelInfo(channel))
	if line := attribution(dest.GuildID, "Deleted", correlation); line != "" {
		description += "\n\n" + line
	}
	r.SetDescription(description)
	return r, nil
}

// messageNotes describes flags and metadata that need no lookups.
func messageNotes(msg *discordgo.Message) []string {
	var notes []string
	if msg.Flags&discordgo.MessageFlagsCrossPosted != 0 {
		notes = append(notes, "This message was published to servers following this channel.")
	}
	if msg.Flags&discordgo.MessageFlagsIsCrossPosted != 0 {
		notes = append(notes, "This message was sent from a followed channel.")
	}
	if msg.Flags&discordgo.MessageFlagsUrgent != 0 {
		notes = append(notes, "This message was an official message from Discord.")
	}
	if msg.Flags&discordgo.MessageFlagsLoading != 0 {
		notes = append(notes, "This was an interaction from a bot that didn't finish responding.")
	}
	if msg.Activity != nil {
		if strings.Contains(msg.Activity.PartyID, "spotify") {
			notes = append(notes, "This message contained a Spotify listen along invite.")
		} else {
			notes = append(notes, "This message contained a game invite.")
		}
	}
	if msg.Application != nil && msg.Application.ID != "" {
		notes = append(notes, fmt.Sprintf("This message was sent by an application (%s).", msg.Application.ID))
	}
	if msg.Pinned {
		notes = append(notes, "This was a pinned message.")
	}
	if len(msg.StickerItems) > 0 {
		links := make([]string, 0, len(msg.StickerItems))
		for _, sticker := range msg.StickerItems {
			if sticker == nil {
				continue
			}
			links = append(links, fmt.Sprintf("[%s](%s)", utils.EscapeMarkdown(sticker.Name), utils.StickerURL(sticker.ID)))
		}
		notes = append(notes, "This message had stickers: "+strings.Join(links, ", "))
	}
	if msg.Author != nil && msg.Author.System {
		notes = append(notes, "This message was a system notification.")
	}
	return notes
}

func (b *Builder) typeNote(ctx context.Context, guildID string, msg *discordgo.Message) string {
	if msg.Type == discordgo.MessageTypeReply {
		return b.replyNote(ctx, guildID, msg)
	}
	return messageTypeNotes[msg.Type]
}

// replyNote names the replied-to message, falling back to a fixed line when
// it can no longer be fetched.
func (b *Builder) replyNote(ctx context.Context, guildID string, msg *discordgo.Message) string {
	ref := msg.ReferencedMessage
	if ref == nil {
		if msg.MessageReference == nil || msg.MessageReference.MessageID == "" {
			return ""
		}
		channelID := msg.MessageReference.ChannelID
		if channelID == "" {
			channelID = msg.ChannelID
		}
		fetched, err := b.client.Message(ctx, channelID, msg.MessageReference.MessageID)
		if err != nil || fetched == nil {
			return "This message was a reply to a message that got deleted."
		}
		ref = fetched
	}
	channelID := ref.ChannelID
	if channelID == "" {
		channelID = msg.ChannelID
	}
	return fmt.Sprintf("This message was a reply to %s's message (id: %s). [(jump to message)](%s)",
		utils.UserInfo(ref.Author), ref.ID, utils.MessageURL(guildID, channelID, ref.ID))
}

func (b *Builder) webhookNote(ctx context.Context, webhookID string) string {
	webhook, err := b.client.Webhook(ctx, webhookID)
	switch {
	case err == nil && webhook != nil:
		return fmt.Sprintf("This message was sent by the **%s (%s)** webhook.", utils.EscapeMarkdown(webhook.Name), webhookID)
	case errors.Is(err, platform.ErrForbidden):
		return "This message was sent from a webhook, but I don't have the **\"Manage Webhooks\"** permission to fetch its name."
	default:
		b.logger.Error("webhook lookup failed", zap.String("webhook_id", webhookID), zap.Error(err))
		return "This message was sent from a webhook, but there was an error fetching its name."
	}
}

// attachmentList renders one line per attachment: name, type, size, links.
func attachmentList(attachments []*discordgo.MessageAttachment) string {
	var b strings.Builder
	for _, attachment := range attachments {
		if attachment == nil {
			continue
		}
		fileType := attachment.ContentType
		if fileType == "" {
			fileType = "(unknown type)"
		}
		fmt.Fprintf(&b, "_**%s**_ - %s (%dB) [(cdn link)](%s) [(proxy link)](%s)\n",
			utils.EscapeMarkdown(utils.TruncateFileName(attachment.Filename)), fileType, attachment.Size, attachment.URL, attachment.ProxyURL)
	}
	return b.String()
}
