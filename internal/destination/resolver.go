// Package destination resolves a guild's configured log channel and checks
// that it can still receive reports.
package destination

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"maestro/internal/platform"
	"maestro/internal/utils"
)

type Permission struct {
	Bit  int64
	Name string
	Note string
}

// Required are checked individually so the caller can name each missing one.
var Required = []Permission{
	{Bit: discordgo.PermissionViewChannel, Name: "View Channel"},
	{Bit: discordgo.PermissionSendMessages, Name: "Send Messages"},
	{Bit: discordgo.PermissionEmbedLinks, Name: "Embed Links", Note: "Used to send rich embeds in the log channel."},
	{Bit: discordgo.PermissionAttachFiles, Name: "Attach Files", Note: "Used to attach files when log messages are too long to fit in one message."},
}

// Optional guild-level permissions that enrich reports when granted.
var Optional = []Permission{
	{Bit: discordgo.PermissionViewAuditLogs, Name: "View Audit Log", Note: "Used to add context to things like deleted messages when available (such as who deleted it)."},
	{Bit: discordgo.PermissionManageWebhooks, Name: "Manage Webhooks", Note: "Used to attribute deleted messages to the webhook that posted them."},
}

type Store interface {
	LogChannel(ctx context.Context, guildID string) (string, error)
	SetLogChannel(ctx context.Context, guildID, channelID string) error
}

// Destination is a validated, sendable log channel for one guild.
type Destination struct {
	GuildID     string
	ChannelID   string
	Channel     *discordgo.Channel
	Permissions int64
}

type Resolver struct {
	store  Store
	client platform.Client
}

func NewResolver(store Store, client platform.Client) *Resolver {
	return &Resolver{store: store, client: client}
}

// Resolve returns (nil, nil) when the guild has no log channel configured.
// A configured but unusable channel yields *ChannelError or
// *PermissionsError.
func (r *Resolver) Resolve(ctx context.Context, guildID string) (*Destination, error) {
	channelID, err := r.store.LogChannel(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("lookup log channel: %w", err)
	}
	if channelID == "" {
		return nil, nil
	}
	return r.Validate(ctx, guildID, channelID)
}

// Validate runs the same checks as Resolve against an explicit channel.
func (r *Resolver) Validate(ctx context.Context, guildID, channelID string) (*Destination, error) {
	channel, err := r.client.Channel(ctx, channelID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) || errors.Is(err, platform.ErrForbidden) {
			return nil, &ChannelError{ChannelID: channelID, Reason: "I don't have access to view that channel (or it was just deleted)."}
		}
		return nil, err
	}
	if channel == nil {
		return nil, &ChannelError{ChannelID: channelID, Reason: "I don't have access to view that channel (or it was just deleted)."}
	}
	if utils.IsDMBased(channel.Type) {
		return nil, &ChannelError{ChannelID: channelID, Reason: fmt.Sprintf("<#%s> is a DM channel, not a server text channel.", channelID)}
	}
	if channel.Type != discordgo.ChannelTypeGuildText {
		return nil, &ChannelError{ChannelID: channelID, Reason: fmt.Sprintf("<#%s> is a %s, not a server text channel.", channelID, utils.ChannelTypeName(channel.Type))}
	}
	if channel.GuildID != guildID {
		return nil, &ChannelError{ChannelID: channelID, Reason: fmt.Sprintf("<#%s> belongs to a different server.", channelID)}
	}

	perms, err := r.client.ChannelPermissions(ctx, r.client.BotUserID(), channelID)
	if err != nil {
		return nil, fmt.Errorf("I couldn't check if I have permission to send messages in <#%s>: %w", channelID, err)
	}
	var missing []Permission
	for _, perm := range Required {
		if perms&perm.Bit != perm.Bit {
			missing = append(missing, perm)
		}
	}
	if len(missing) > 0 {
		return nil, &PermissionsError{ChannelID: channelID, Missing: missing}
	}

	return &Destination{GuildID: guildID, ChannelID: channelID, Channel: channel, Permissions: perms}, nil
}

// Configure validates channelID and stores it as the guild's log channel.
func (r *Resolver) Configure(ctx context.Context, guildID, channelID string) (*Destination, error) {
	dest, err := r.Validate(ctx, guildID, channelID)
	if err != nil {
		return nil, err
	}
	if err := r.store.SetLogChannel(ctx, guildID, channelID); err != nil {
		return nil, fmt.Errorf("store log channel: %w", err)
	}
	return dest, nil
}

// ConfiguredChannel exposes the raw stored id, for operators inspecting a
// misconfiguration.
func (r *Resolver) ConfiguredChannel(ctx context.Context, guildID string) (string, error) {
	return r.store.LogChannel(ctx, guildID)
}

// IsMisconfigured reports whether err came from a channel or permission
// check rather than an unexpected failure.
func IsMisconfigured(err error) bool {
	var channelErr *ChannelError
	var permErr *PermissionsError
	return errors.As(err, &channelErr) || errors.As(err, &permErr)
}
