// Package platform is the narrow surface of the chat platform used by the
// resolver, the report builders and the dispatcher.
package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrNotFound  = errors.New("platform: object not found")
	ErrForbidden = errors.New("platform: missing access")
)

const (
	codeUnknownChannel    = 10003
	codeUnknownMessage    = 10008
	codeUnknownWebhook    = 10015
	codeUnknownBan        = 10026
	codeUnknownUser       = 10013
	codeMissingAccess     = 50001
	codeMissingPermission = 50013
)

type Client interface {
	BotUserID() string
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	ChannelPermissions(ctx context.Context, userID, channelID string) (int64, error)
	GuildPermissions(ctx context.Context, guildID, userID string) (int64, error)
	Message(ctx context.Context, channelID, messageID string) (*discordgo.Message, error)
	User(ctx context.Context, userID string) (*discordgo.User, error)
	Webhook(ctx context.Context, webhookID string) (*discordgo.Webhook, error)
	GuildBan(ctx context.Context, guildID, userID string) (*discordgo.GuildBan, error)
	AuditLog(ctx context.Context, guildID string, action discordgo.AuditLogAction, limit int) (*discordgo.GuildAuditLog, error)
	Send(ctx context.Context, channelID string, msg *discordgo.MessageSend) error
}

// classify folds REST failures into ErrNotFound / ErrForbidden so callers
// can branch without knowing the platform's error codes.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case codeUnknownChannel, codeUnknownMessage, codeUnknownWebhook, codeUnknownBan, codeUnknownUser:
			return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
		case codeMissingAccess, codeMissingPermission:
			return fmt.Errorf("%s: %w: %v", op, ErrForbidden, err)
		}
	}
	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, ErrForbidden, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
