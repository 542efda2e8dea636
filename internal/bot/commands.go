package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"maestro/internal/destination"
)

const commandColor = 0x58d858

func (b *Bot) registerCommands() error {
	manageGuild := int64(discordgo.PermissionManageServer)
	guildOnly := false
	commands := []*discordgo.ApplicationCommand{
		{
			Name:                     "config",
			Description:              "View or change where server events are logged.",
			DefaultMemberPermissions: &manageGuild,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "view",
					Description: "Check which channel logs are sent to and whether I have the correct permissions.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set-logchannel",
					Description: "Set the channel where server events will be sent.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "channel",
							Description:  "A text channel",
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
							Required:     true,
						},
					},
				},
			},
		},
		{
			Name:         "ping",
			Description:  "Check if I'm paying attention.",
			DMPermission: &guildOnly,
		},
	}

	appID := b.session.State.User.ID
	guildID := b.cfg.DevGuildID
	existing, err := b.session.ApplicationCommands(appID, guildID)
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, guildID, current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, guildID, cmd.ID)
	}
	return nil
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	b.logger.Debug("command received", zap.String("interaction_id", interaction.ID), zap.String("command", data.Name), zap.String("user_id", interactionUserID(interaction)))

	if interaction.GuildID == "" {
		b.respond(session, interaction, textResponse("Sorry, I couldn't grab your server's ID. Try again later."))
		return
	}

	switch data.Name {
	case "config":
		if len(data.Options) == 0 {
			b.respond(session, interaction, textResponse("Please provide a valid subcommand to run (view, set-logchannel)."))
			return
		}
		sub := data.Options[0]
		switch sub.Name {
		case "view":
			b.respond(session, interaction, b.configView(ctx, interaction.GuildID))
		case "set-logchannel":
			b.respond(session, interaction, b.setLogChannel(ctx, interaction.GuildID, channelOption(sub.Options)))
		default:
			b.respond(session, interaction, textResponse("Please provide a valid subcommand to run (view, set-logchannel)."))
		}
	case "ping":
		b.respond(session, interaction, b.ping(interactionUserID(interaction), session.HeartbeatLatency()))
	}
}

// configView explains where reports go, or why they currently cannot.
func (b *Bot) configView(ctx context.Context, guildID string) *discordgo.InteractionResponseData {
	channelID, err := b.resolver.ConfiguredChannel(ctx, guildID)
	if err != nil {
		b.logger.Error("log channel lookup failed", zap.String("guild_id", guildID), zap.Error(err))
		return textResponse("Sorry, I couldn't look up this server's configuration. Try again later.")
	}
	if channelID == "" {
		return textResponse("No log channel has been set for this server.")
	}

	dest, err := b.resolver.Validate(ctx, guildID, channelID)
	var channelErr *destination.ChannelError
	var permErr *destination.PermissionsError
	switch {
	case errors.As(err, &channelErr):
		return embedResponse(fmt.Sprintf("The log channel <#%s> has become misconfigured since it was last set:\n%s\n\nPick a new one with `/config set-logchannel`. The following permissions are required for me to send logs to it:\n%s\n\nOptional Permissions:\n%s",
			channelID, channelErr.Reason, permissionList(destination.Required, nil), permissionList(destination.Optional, nil)))
	case errors.As(err, &permErr):
		missing := make(map[int64]bool, len(permErr.Missing))
		for _, perm := range permErr.Missing {
			missing[perm.Bit] = true
		}
		return embedResponse(fmt.Sprintf("The log channel <#%s> has become misconfigured since it was last set:\n%s\n\nThe following permissions are required for me to send logs to this channel:\n%s\n\nOptional Permissions:\n%s",
			channelID, permErr.Error(), permissionList(destination.Required, func(p destination.Permission) bool { return !missing[p.Bit] }), permissionList(destination.Optional, nil)))
	case err != nil:
		b.logger.Error("log channel validation failed", zap.String("guild_id", guildID), zap.String("channel_id", channelID), zap.Error(err))
		return textResponse(fmt.Sprintf("Sorry, I got an unexpected error while trying to validate if <#%s>'s permissions are set up for me to post in.", channelID))
	}

	perms, err := b.client.GuildPermissions(ctx, guildID, b.client.BotUserID())
	if err != nil {
		b.logger.Debug("guild permission lookup failed", zap.String("guild_id", guildID), zap.Error(err))
	}
	granted := func(p destination.Permission) bool { return perms&p.Bit == p.Bit }
	return embedResponse(fmt.Sprintf("Server logs are currently being sent to <#%s>.\n\nAll required permissions are set up for me to send logs to this channel.\n\nOptional Permissions:\n%s",
		dest.ChannelID, permissionList(destination.Optional, granted)))
}

func (b *Bot) setLogChannel(ctx context.Context, guildID, channelID string) *discordgo.InteractionResponseData {
	if channelID == "" {
		return textResponse("Please pick a text channel.")
	}
	dest, err := b.resolver.Configure(ctx, guildID, channelID)
	switch {
	case err == nil:
		b.logger.Info("log channel configured", zap.String("guild_id", guildID), zap.String("channel_id", dest.ChannelID))
		return textResponse(fmt.Sprintf("Server events will now be sent to <#%s>.", dest.ChannelID))
	case destination.IsMisconfigured(err):
		return textResponse("Sorry, I couldn't update which channel to send server events to. " + err.Error())
	default:
		b.logger.Error("configure log channel failed", zap.String("guild_id", guildID), zap.String("channel_id", channelID), zap.Error(err))
		return textResponse("Sorry, I couldn't update which channel to send server events to. Try again later.")
	}
}

func (b *Bot) ping(userID string, latency time.Duration) *discordgo.InteractionResponseData {
	if b.cfg.OwnerID != "" && userID == b.cfg.OwnerID {
		return textResponse("wow")
	}
	return &discordgo.InteractionResponseData{
		Flags: discordgo.MessageFlagsEphemeral,
		Embeds: []*discordgo.MessageEmbed{{
			Description: "...",
			Color:       commandColor,
			Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%dms", latency.Milliseconds())},
		}},
	}
}

// permissionList renders one bullet per permission with its note. When
// granted is set each bullet also carries a check or cross mark.
func permissionList(perms []destination.Permission, granted func(destination.Permission) bool) string {
	lines := make([]string, 0, len(perms)*2)
	for _, perm := range perms {
		line := "- **" + perm.Name + "**"
		if granted != nil {
			if granted(perm) {
				line += ": ✅"
			} else {
				line += ": ❌"
			}
		}
		lines = append(lines, line)
		if perm.Note != "" {
			lines = append(lines, "-# "+perm.Note)
		}
	}
	return strings.Join(lines, "\n")
}

func channelOption(options []*discordgo.ApplicationCommandInteractionDataOption) string {
	for _, opt := range options {
		if opt.Name != "channel" {
			continue
		}
		if id, ok := opt.Value.(string); ok {
			return id
		}
	}
	return ""
}

func interactionUserID(interaction *discordgo.InteractionCreate) string {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User.ID
	}
	if interaction.User != nil {
		return interaction.User.ID
	}
	return ""
}

func textResponse(content string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral}
}

func embedResponse(description string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Flags: discordgo.MessageFlagsEphemeral,
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Config Overview",
			Description: description,
			Color:       commandColor,
		}},
	}
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Warn("interaction response failed", zap.String("interaction_id", interaction.ID), zap.Error(err))
	}
}
