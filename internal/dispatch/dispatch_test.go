package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"maestro/internal/destination"
	"maestro/internal/platform"
	"maestro/internal/platform/platformtest"
	"maestro/internal/report"
)

type event struct {
	guildID string
	text    string
}

type recorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorder) Observe(event, outcome string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, event+":"+outcome)
}

func setup(t *testing.T) (*Dispatcher, *platformtest.Client, *platformtest.Store, *recorder) {
	t.Helper()
	client := platformtest.New("bot")
	store := platformtest.NewStore()
	client.LogChannel("g1", "log")
	store.Channels["g1"] = "log"
	obs := &recorder{}
	d := New(destination.NewResolver(store, client), client, zap.NewNop(), Options{Timeout: time.Second, BulkConcurrency: 2, Observer: obs})
	return d, client, store, obs
}

var textHandler = Handler[event]{
	Event: "test",
	Guild: func(e event) string { return e.guildID },
	Build: func(ctx context.Context, dest *destination.Destination, e event) (*report.Report, error) {
		switch e.text {
		case "":
			return nil, nil
		case "error":
			return nil, errors.New("builder failed")
		case "panic":
			panic("builder panicked")
		}
		r := report.New("Test", 0, time.Time{})
		r.SetDescription(e.text)
		return r, nil
	},
}

func TestDispatchSendsReport(t *testing.T) {
	d, client, _, obs := setup(t)

	if got := Dispatch(context.Background(), d, textHandler, event{guildID: "g1", text: "hello"}); got != Sent {
		t.Fatalf("expected sent, got %s", got)
	}
	sent := client.Sent()
	if len(sent) != 1 || sent[0].ChannelID != "log" || sent[0].Message.Embeds[0].Description != "hello" {
		t.Fatalf("unexpected sends %+v", sent)
	}
	if diff := cmp.Diff([]string{"test:sent"}, obs.outcomes); diff != "" {
		t.Fatalf("observed outcomes (-want +got):\n%s", diff)
	}
}

func TestDispatchOutcomes(t *testing.T) {
	cases := map[string]struct {
		prepare func(*platformtest.Client, *platformtest.Store)
		payload event
		want    Outcome
	}{
		"no guild": {
			payload: event{text: "hello"},
			want:    NoGuild,
		},
		"unconfigured": {
			payload: event{guildID: "g2", text: "hello"},
			want:    Unconfigured,
		},
		"channel gone": {
			prepare: func(c *platformtest.Client, s *platformtest.Store) { delete(c.Channels, "log") },
			payload: event{guildID: "g1", text: "hello"},
			want:    Misconfigured,
		},
		"missing permission": {
			prepare: func(c *platformtest.Client, s *platformtest.Store) {
				c.Perms["log"] = platformtest.AllPerms &^ discordgo.PermissionSendMessages
			},
			payload: event{guildID: "g1", text: "hello"},
			want:    Misconfigured,
		},
		"store failure": {
			prepare: func(c *platformtest.Client, s *platformtest.Store) { s.Err = errors.New("db down") },
			payload: event{guildID: "g1", text: "hello"},
			want:    Failed,
		},
		"skip": {
			payload: event{guildID: "g1"},
			want:    Skipped,
		},
		"builder error": {
			payload: event{guildID: "g1", text: "error"},
			want:    Failed,
		},
		"builder panic": {
			payload: event{guildID: "g1", text: "panic"},
			want:    Failed,
		},
		"send failure": {
			prepare: func(c *platformtest.Client, s *platformtest.Store) { c.SendErr = platform.ErrForbidden },
			payload: event{guildID: "g1", text: "hello"},
			want:    Failed,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			d, client, store, obs := setup(t)
			if tc.prepare != nil {
				tc.prepare(client, store)
			}
			if got := Dispatch(context.Background(), d, textHandler, tc.payload); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			if tc.want != Sent && len(client.Sent()) != 0 {
				t.Fatalf("nothing should be sent")
			}
			if len(obs.outcomes) != 1 || obs.outcomes[0] != "test:"+tc.want.String() {
				t.Fatalf("unexpected observation %v", obs.outcomes)
			}
		})
	}
}

func TestDispatchAllIsIndependent(t *testing.T) {
	d, client, _, _ := setup(t)
	payloads := []event{
		{guildID: "g1", text: "one"},
		{guildID: "g1", text: "panic"},
		{guildID: "g1"},
		{guildID: "g1", text: "two"},
	}

	got := DispatchAll(context.Background(), d, textHandler, payloads)
	if diff := cmp.Diff([]Outcome{Sent, Failed, Skipped, Sent}, got); diff != "" {
		t.Fatalf("outcomes (-want +got):\n%s", diff)
	}
	if len(client.Sent()) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(client.Sent()))
	}
}

func TestGuardNilPayload(t *testing.T) {
	guild := Guard(func(m *discordgo.MessageDelete) string { return m.GuildID })
	if guild(nil) != "" {
		t.Fatalf("nil payload should have no guild")
	}
	if guild(&discordgo.MessageDelete{Message: &discordgo.Message{GuildID: "g1"}}) != "g1" {
		t.Fatalf("expected guild id")
	}
}

func TestOutcomeString(t *testing.T) {
	if Misconfigured.String() != "misconfigured" || Outcome(42).String() != "outcome(42)" {
		t.Fatalf("unexpected outcome names")
	}
}
