// Package platformtest provides an in-memory platform.Client for tests.
package platformtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"maestro/internal/platform"
)

type Sent struct {
	ChannelID string
	Message   *discordgo.MessageSend
}

// Client answers from maps; a missing entry is platform.ErrNotFound unless
// an error is registered for that id.
type Client struct {
	mu sync.Mutex

	BotID       string
	Channels    map[string]*discordgo.Channel
	Perms       map[string]int64
	GuildPerms  map[string]int64
	Messages    map[string]*discordgo.Message
	Users       map[string]*discordgo.User
	Webhooks    map[string]*discordgo.Webhook
	Bans        map[string]*discordgo.GuildBan
	AuditLogs   map[discordgo.AuditLogAction]*discordgo.GuildAuditLog
	Errors      map[string]error
	SendErr     error
	AuditErr    error
	PermsErr    error
	SentReports []Sent
	AuditCalls  int
}

func New(botID string) *Client {
	return &Client{
		BotID:      botID,
		Channels:   make(map[string]*discordgo.Channel),
		Perms:      make(map[string]int64),
		GuildPerms: make(map[string]int64),
		Messages:   make(map[string]*discordgo.Message),
		Users:      make(map[string]*discordgo.User),
		Webhooks:   make(map[string]*discordgo.Webhook),
		Bans:       make(map[string]*discordgo.GuildBan),
		AuditLogs:  make(map[discordgo.AuditLogAction]*discordgo.GuildAuditLog),
		Errors:     make(map[string]error),
	}
}

func (c *Client) BotUserID() string { return c.BotID }

func (c *Client) lookupErr(kind, id string) error {
	if err, ok := c.Errors[kind+":"+id]; ok {
		return err
	}
	return fmt.Errorf("%s %s: %w", kind, id, platform.ErrNotFound)
}

func (c *Client) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if channel, ok := c.Channels[channelID]; ok {
		return channel, nil
	}
	return nil, c.lookupErr("channel", channelID)
}

func (c *Client) ChannelPermissions(ctx context.Context, userID, channelID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PermsErr != nil {
		return 0, c.PermsErr
	}
	return c.Perms[channelID], nil
}

func (c *Client) GuildPermissions(ctx context.Context, guildID, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.GuildPerms[guildID], nil
}

func (c *Client) Message(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg, ok := c.Messages[messageID]; ok {
		return msg, nil
	}
	return nil, c.lookupErr("message", messageID)
}

func (c *Client) User(ctx context.Context, userID string) (*discordgo.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if user, ok := c.Users[userID]; ok {
		return user, nil
	}
	return nil, c.lookupErr("user", userID)
}

func (c *Client) Webhook(ctx context.Context, webhookID string) (*discordgo.Webhook, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if webhook, ok := c.Webhooks[webhookID]; ok {
		return webhook, nil
	}
	return nil, c.lookupErr("webhook", webhookID)
}

func (c *Client) GuildBan(ctx context.Context, guildID, userID string) (*discordgo.GuildBan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ban, ok := c.Bans[userID]; ok {
		return ban, nil
	}
	return nil, c.lookupErr("ban", userID)
}

func (c *Client) AuditLog(ctx context.Context, guildID string, action discordgo.AuditLogAction, limit int) (*discordgo.GuildAuditLog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.AuditCalls++
	if c.AuditErr != nil {
		return nil, c.AuditErr
	}
	if logs, ok := c.AuditLogs[action]; ok {
		return logs, nil
	}
	return &discordgo.GuildAuditLog{}, nil
}

func (c *Client) Send(ctx context.Context, channelID string, msg *discordgo.MessageSend) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.SentReports = append(c.SentReports, Sent{ChannelID: channelID, Message: msg})
	return nil
}

func (c *Client) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.SentReports...)
}

// Store is an in-memory destination store.
type Store struct {
	mu       sync.Mutex
	Channels map[string]string
	Err      error
}

func NewStore() *Store {
	return &Store{Channels: make(map[string]string)}
}

func (s *Store) LogChannel(ctx context.Context, guildID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	return s.Channels[guildID], nil
}

func (s *Store) SetLogChannel(ctx context.Context, guildID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Channels[guildID] = channelID
	return nil
}

// AllPerms is everything a log channel needs.
const AllPerms = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionEmbedLinks |
	discordgo.PermissionAttachFiles

// LogChannel registers a valid text log channel for guildID.
func (c *Client) LogChannel(guildID, channelID string) *discordgo.Channel {
	channel := &discordgo.Channel{ID: channelID, GuildID: guildID, Name: "logs", Type: discordgo.ChannelTypeGuildText}
	c.mu.Lock()
	c.Channels[channelID] = channel
	c.Perms[channelID] = AllPerms
	c.mu.Unlock()
	return channel
}
