package report

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"maestro/internal/destination"
	"maestro/internal/textdiff"
	"maestro/internal/utils"
)

const (
	maxInlineDiff     = 3900
	maxEditedEmbeds   = 8
	diffMovedNotice   = "The message changes have been added to the top of this report because of their length."
	untrackedOldNotes = "(message was sent too long ago, I wasn't keeping track of it)"
)

// MessageUpdate reports an edit. Link previews the platform attaches to a
// user's message also arrive as edits; those are dropped unless the text or
// attachments changed too.
func (b *Builder) MessageUpdate(ctx context.Context, dest *destination.Destination, ev *discordgo.MessageUpdate) (*Report, error) {
	if ev == nil || ev.Message == nil {
		return nil, nil
	}
	updated, old := ev.Message, ev.BeforeUpdate
	if updated.GuildID == "" {
		return nil, nil
	}
	author := updated.Author
	if author == nil && old != nil {
		author = old.Author
	}
	if author == nil {
		return nil, nil
	}
	botID := b.client.BotUserID()
	if author.ID == botID || (old != nil && old.Author != nil && old.Author.ID == botID) {
		return nil, nil
	}

	textChanged := old == nil || old.Content != updated.Content

	var removed, added []*discordgo.MessageAttachment
	embedsChanged := false
	if old != nil {
		removed, added = diffAttachments(old.Attachments, updated.Attachments)
		embedsChanged = !cmp.Equal(old.Embeds, updated.Embeds, cmpopts.EquateEmpty())
	}
	botEmbedChange := embedsChanged && author.Bot

	if !textChanged && len(removed) == 0 && len(added) == 0 && !botEmbedChange {
		return nil, nil
	}

	r := New("Message Edited", ColorMessageEdited, b.clock.Now())
	r.Thumbnail = utils.AvatarURL(author)
	r.Link("Jump to Message", utils.MessageURL(dest.GuildID, updated.ChannelID, updated.ID))

	changes := editSummary(old, updated)
	if textChanged && utils.RuneLen(changes) > maxInlineDiff {
		oldContent := untrackedOldNotes
		if old != nil {
			oldContent = old.Content
		}
		r.AttachFile("message.txt", fmt.Sprintf("Old message:\n%s\n\nNew message:\n%s", oldContent, updated.Content))
		changes = diffMovedNotice
	}
	channel := b.channel(ctx, updated.ChannelID)
	r.SetDescription(fmt.Sprintf("%s edited a message in %s\n\n%s", utils.UserInfo(author), utils.ChannelInfo(channel), changes))

	if len(removed) > 0 {
		r.AddFieldOverflow("Removed "+utils.Pluralize(len(removed), "attachment"), attachmentList(removed), Overflow{
			Name:     utils.Pluralize(len(removed), "attachment"),
			FileName: "attachments.txt",
			Notice:   attachmentsMovedNotice,
		})
	}
	if len(added) > 0 {
		r.AddFieldOverflow("Added "+utils.Pluralize(len(added), "attachment"), attachmentList(added), Overflow{
			Name:     utils.Pluralize(len(added), "attachment"),
			FileName: "added-attachments.txt",
			Notice:   attachmentsMovedNotice,
		})
	}

	if botEmbedChange {
		text := "The embeds from the old message will be appended to the end of this report."
		switch {
		case len(old.Embeds) == 0:
			text = "The new message added embeds. Jump to the message to see them."
		case len(old.Embeds) > maxEditedEmbeds:
			text = fmt.Sprintf("Appending the first %d embeds from the old message to the end of this report.", maxEditedEmbeds)
		}
		r.AddField("Embeds Changed", text)
		r.AppendEmbeds(old.Embeds, maxEditedEmbeds)
	}

	return r, nil
}

// editSummary renders the text change: a word diff when both sides have
// text, the two versions verbatim otherwise.
func editSummary(old, updated *discordgo.Message) string {
	if old != nil && old.Content == updated.Content {
		summary := "(messages were the same)"
		if old.Content != "" {
			summary += utils.CodeBlock(old.Content)
		}
		return summary
	}

	if old == nil || utils.IsBlank(old.Content) || utils.IsBlank(updated.Content) {
		var summary string
		switch {
		case old == nil:
			summary = untrackedOldNotes
		case utils.IsBlank(old.Content):
			summary = "(old message was blank)"
		default:
			summary = utils.CodeBlock(old.Content)
		}
		summary += "\n\nNew message:\n"
		if utils.IsBlank(updated.Content) {
			summary += "(new message was blank)"
		} else {
			summary += utils.CodeBlock(updated.Content)
		}
		return summary
	}

	return textdiff.RenderANSI(textdiff.Words(old.Content, updated.Content))
}

// diffAttachments splits the symmetric difference of two attachment sets,
// keyed by attachment id.
func diffAttachments(before, after []*discordgo.MessageAttachment) (removed, added []*discordgo.MessageAttachment) {
	ids := func(list []*discordgo.MessageAttachment) map[string]bool {
		set := make(map[string]bool, len(list))
		for _, a := range list {
			if a != nil {
				set[a.ID] = true
			}
		}
		return set
	}
	beforeIDs, afterIDs := ids(before), ids(after)
	for _, a := range before {
		if a != nil && !afterIDs[a.ID] {
			removed = append(removed, a)
		}
	}
	for _, a := range after {
		if a != nil && !beforeIDs[a.ID] {
			added = append(added, a)
		}
	}
	return removed, added
}
