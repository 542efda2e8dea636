package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestAddFieldMovesLongValueToFile(t *testing.T) {
	r := New("Test", 0, time.Time{})
	r.AddField("Long Notes", strings.Repeat("a", MaxFieldValue+1))

	if len(r.Files) != 1 || r.Files[0].Name != "long-notes.txt" {
		t.Fatalf("expected long-notes.txt, got %+v", r.Files)
	}
	if len(r.Files[0].Data) != MaxFieldValue+1 {
		t.Fatalf("expected full value in file, got %d bytes", len(r.Files[0].Data))
	}
	if r.Fields[0].Value != overflowNotice {
		t.Fatalf("expected overflow notice, got %q", r.Fields[0].Value)
	}
}

func TestAddFieldKeepsValueAtCap(t *testing.T) {
	r := New("Test", 0, time.Time{})
	value := strings.Repeat("é", MaxFieldValue)
	r.AddField("Exact", value)

	if len(r.Files) != 0 {
		t.Fatalf("value at the cap should stay inline")
	}
	if r.Fields[0].Value != value {
		t.Fatalf("value changed")
	}
}

func TestAttachFileNamesAreUnique(t *testing.T) {
	r := New("Test", 0, time.Time{})
	r.AttachFile("attachments.txt", "a")
	r.AttachFile("attachments.txt", "b")
	r.AttachFile("attachments.txt", "c")

	names := []string{r.Files[0].Name, r.Files[1].Name, r.Files[2].Name}
	want := []string{"attachments.txt", "attachments-2.txt", "attachments-3.txt"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestSetDescriptionOverflow(t *testing.T) {
	r := New("Test", 0, time.Time{})
	r.SetDescription(strings.Repeat("x", MaxDescription+10))

	if len(r.Files) != 1 || r.Files[0].Name != "description.txt" {
		t.Fatalf("expected description.txt, got %+v", r.Files)
	}
	if n := len([]rune(r.Description)); n > MaxDescription {
		t.Fatalf("description still too long: %d", n)
	}
}

func TestMessageSendRendersParts(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := New("Message Edited", ColorMessageEdited, ts)
	r.SetDescription("body")
	r.Footer = "footer"
	r.Thumbnail = "https://cdn.example/avatar.png"
	r.AddField("Name", "Value")
	r.AttachFile("message.txt", "old and new")
	r.AppendEmbeds([]*discordgo.MessageEmbed{{Title: "a"}, {Title: "b"}}, 5)
	r.Link("Jump to Message", "https://discord.com/channels/1/2/3")

	msg := r.MessageSend()
	if len(msg.Embeds) != 3 {
		t.Fatalf("expected primary embed plus 2, got %d", len(msg.Embeds))
	}
	main := msg.Embeds[0]
	if main.Title != "Message Edited" || main.Color != ColorMessageEdited || main.Timestamp != "2024-05-01T12:00:00Z" {
		t.Fatalf("unexpected primary embed %+v", main)
	}
	if main.Footer == nil || main.Footer.Text != "footer" || main.Thumbnail == nil {
		t.Fatalf("expected footer and thumbnail")
	}
	if len(msg.Files) != 1 || msg.Files[0].Name != "message.txt" {
		t.Fatalf("expected message.txt, got %+v", msg.Files)
	}
	if len(msg.Components) != 1 {
		t.Fatalf("expected one action row")
	}
	row, ok := msg.Components[0].(discordgo.ActionsRow)
	if !ok || len(row.Components) != 1 {
		t.Fatalf("unexpected components %+v", msg.Components)
	}
	button, ok := row.Components[0].(discordgo.Button)
	if !ok || button.Style != discordgo.LinkButton || button.URL == "" {
		t.Fatalf("expected link button, got %+v", row.Components[0])
	}
	if msg.AllowedMentions == nil || len(msg.AllowedMentions.Parse) != 0 {
		t.Fatalf("reports should not ping anyone")
	}
}

func TestAppendEmbedsRespectsCap(t *testing.T) {
	r := New("Test", 0, time.Time{})
	embeds := make([]*discordgo.MessageEmbed, 20)
	for i := range embeds {
		embeds[i] = &discordgo.MessageEmbed{}
	}
	r.AppendEmbeds(embeds, 20)
	if len(r.Embeds) != MaxEmbeds-1 {
		t.Fatalf("expected %d appended embeds, got %d", MaxEmbeds-1, len(r.Embeds))
	}
}

func TestMessageSendFitsTotalSize(t *testing.T) {
	r := New("Test", 0, time.Time{})
	for i := 0; i < 8; i++ {
		r.AddField("Field", strings.Repeat("z", MaxFieldValue))
	}
	msg := r.MessageSend()

	total := 0
	for _, field := range msg.Embeds[0].Fields {
		total += len([]rune(field.Name)) + len([]rune(field.Value))
	}
	if total > MaxEmbedTotal {
		t.Fatalf("embed still over total cap: %d", total)
	}
	if len(r.Files) != 1 || r.Files[0].Name != "fields.txt" {
		t.Fatalf("expected fields.txt, got %+v", r.Files)
	}
}

// sendSize counts the capped parts of every embed in an outgoing message.
func sendSize(msg *discordgo.MessageSend) int {
	total := 0
	for _, embed := range msg.Embeds {
		total += embedSize(embed)
	}
	return total
}

func TestMessageSendCountsCopiedEmbeds(t *testing.T) {
	r := New("Message Deleted", 0, time.Time{})
	r.SetDescription(strings.Repeat("a", 4000))
	r.AppendEmbeds([]*discordgo.MessageEmbed{
		{Title: "first", Description: strings.Repeat("b", 500)},
		{Title: "second", Description: strings.Repeat("c", 4000)},
	}, 5)

	msg := r.MessageSend()
	if got := sendSize(msg); got > MaxEmbedTotal {
		t.Fatalf("message still over total cap: %d", got)
	}
	if len(msg.Embeds) != 2 || msg.Embeds[1].Title != "first" {
		t.Fatalf("expected only the first copied embed to stay, got %d embeds", len(msg.Embeds))
	}
	if len(r.Files) != 1 || r.Files[0].Name != "embeds.txt" {
		t.Fatalf("expected embeds.txt, got %+v", r.Files)
	}
	var moved []*discordgo.MessageEmbed
	if err := json.Unmarshal(r.Files[0].Data, &moved); err != nil {
		t.Fatalf("embeds.txt should hold the embeds as json: %v", err)
	}
	if len(moved) != 1 || moved[0].Title != "second" {
		t.Fatalf("unexpected moved embeds %+v", moved)
	}
	if _, ok := findField(r, "Embeds"); !ok {
		t.Fatalf("expected a note about the moved embeds, got %+v", r.Fields)
	}
}

func TestMessageSendKeepsEmbedsThatFit(t *testing.T) {
	r := New("Message Deleted", 0, time.Time{})
	r.SetDescription("short")
	r.AppendEmbeds([]*discordgo.MessageEmbed{{Description: strings.Repeat("b", 1000)}}, 5)

	msg := r.MessageSend()
	if len(msg.Embeds) != 2 || len(r.Files) != 0 {
		t.Fatalf("nothing should move, got %d embeds and %+v", len(msg.Embeds), r.Files)
	}
}

func TestMessageSendOversizedPrimaryMovesAllEmbeds(t *testing.T) {
	r := New("Test", 0, time.Time{})
	r.SetDescription(strings.Repeat("a", 4000))
	for i := 0; i < 3; i++ {
		r.AddField("Field", strings.Repeat("z", MaxFieldValue))
	}
	r.AppendEmbeds([]*discordgo.MessageEmbed{{Description: "x"}}, 5)

	msg := r.MessageSend()
	if got := sendSize(msg); got > MaxEmbedTotal {
		t.Fatalf("message still over total cap: %d", got)
	}
	if len(msg.Embeds) != 1 {
		t.Fatalf("copied embeds should have moved, got %d embeds", len(msg.Embeds))
	}
}

func TestFileNameFor(t *testing.T) {
	cases := map[string]string{
		"Long Notes":                 "long-notes.txt",
		"===== Message Report =====": "message-report.txt",
		"🛡️":                         "field.txt",
	}
	for in, want := range cases {
		if got := fileNameFor(in); got != want {
			t.Fatalf("fileNameFor(%q) = %q, want %q", in, got, want)
		}
	}
}
