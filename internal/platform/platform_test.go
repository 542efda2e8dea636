package platform

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestClassify(t *testing.T) {
	notFound := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: codeUnknownChannel, Message: "Unknown Channel"},
	}
	if err := classify("fetch channel", notFound); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	forbidden := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
		Message:  &discordgo.APIErrorMessage{Code: codeMissingPermission, Message: "Missing Permissions"},
	}
	if err := classify("fetch webhook", forbidden); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	bareStatus := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	if err := classify("fetch user", bareStatus); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found from status, got %v", err)
	}

	other := errors.New("connection reset")
	err := classify("send message", other)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
		t.Fatalf("expected unclassified error, got %v", err)
	}
	if !errors.Is(err, other) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	if classify("noop", nil) != nil {
		t.Fatalf("expected nil")
	}
}

func TestMemberPermissions(t *testing.T) {
	guild := &discordgo.Guild{
		ID: "g1",
		Roles: []*discordgo.Role{
			{ID: "g1", Permissions: discordgo.PermissionViewChannel},
			{ID: "mod", Permissions: discordgo.PermissionViewAuditLogs},
			{ID: "other", Permissions: discordgo.PermissionManageWebhooks},
		},
	}
	member := &discordgo.Member{Roles: []string{"mod"}}
	perms := memberPermissions(guild, member)
	if perms&discordgo.PermissionViewAuditLogs == 0 || perms&discordgo.PermissionViewChannel == 0 {
		t.Fatalf("expected everyone and mod permissions, got %d", perms)
	}
	if perms&discordgo.PermissionManageWebhooks != 0 {
		t.Fatalf("unexpected permission from unassigned role")
	}
}
