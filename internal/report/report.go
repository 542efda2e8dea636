// Package report renders platform events into log channel messages.
//
// A Report is one outgoing message: a primary embed, any embeds copied
// from the source message, text files for content that did not fit, and an
// optional link button. Every text part is bounded by the platform caps;
// anything that would overflow a cap becomes a file instead of being lost.
package report

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"maestro/internal/utils"
)

const (
	MaxTitle       = 256
	MaxDescription = 4096
	MaxFieldName   = 256
	MaxFieldValue  = 1024
	MaxFooter      = 2048
	MaxEmbedTotal  = 6000
	MaxEmbeds      = 10
)

const (
	overflowNotice = "The full text of this section has been added above this report."
	embedsNotice   = "Some embeds did not fit in this report and have been added above it."
)

type File struct {
	Name string
	Data []byte
}

type Field struct {
	Name  string
	Value string
}

type Report struct {
	Title       string
	Description string
	Color       int
	Timestamp   time.Time
	Footer      string
	Thumbnail   string
	Fields      []Field
	Files       []File
	Embeds      []*discordgo.MessageEmbed
	LinkLabel   string
	LinkURL     string
}

func New(title string, color int, timestamp time.Time) *Report {
	return &Report{Title: title, Color: color, Timestamp: timestamp}
}

// SetDescription moves text past the description cap into description.txt.
func (r *Report) SetDescription(text string) {
	if utils.RuneLen(text) <= MaxDescription {
		r.Description = text
		return
	}
	r.AttachFile("description.txt", text)
	r.Description = utils.Truncate(text, MaxDescription-utils.RuneLen(overflowNotice)-2) + "\n\n" + overflowNotice
}

// AddField appends a field; a value over the cap is moved to <name>.txt.
func (r *Report) AddField(name, value string) {
	r.AddFieldOverflow(name, value, Overflow{FileName: fileNameFor(name), Notice: overflowNotice})
}

// Overflow describes what replaces a field whose value does not fit.
type Overflow struct {
	// Name replaces the field name when set.
	Name     string
	FileName string
	Notice   string
}

func (r *Report) AddFieldOverflow(name, value string, overflow Overflow) {
	if utils.IsBlank(value) {
		value = "\u200b"
	}
	if utils.RuneLen(value) > MaxFieldValue {
		r.AttachFile(overflow.FileName, value)
		if overflow.Name != "" {
			name = overflow.Name
		}
		value = overflow.Notice
	}
	r.Fields = append(r.Fields, Field{Name: utils.Truncate(name, MaxFieldName), Value: utils.Truncate(value, MaxFieldValue)})
}

// AttachFile adds a text file, renaming it when the name is already taken.
func (r *Report) AttachFile(name, text string) {
	name = r.uniqueName(name)
	r.Files = append(r.Files, File{Name: name, Data: []byte(text)})
}

func (r *Report) uniqueName(name string) string {
	taken := func(candidate string) bool {
		for _, f := range r.Files {
			if f.Name == candidate {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	stem, ext := name, ""
	if idx := strings.LastIndex(name, "."); idx > 0 {
		stem, ext = name[:idx], name[idx:]
	}
	for i := 2; ; i++ {
		candidate := stem + "-" + strconv.Itoa(i) + ext
		if !taken(candidate) {
			return candidate
		}
	}
}

// AppendEmbeds copies source embeds to the end of the message, up to limit
// and the platform's per-message embed cap.
func (r *Report) AppendEmbeds(embeds []*discordgo.MessageEmbed, limit int) {
	for _, embed := range embeds {
		if len(r.Embeds) >= limit || len(r.Embeds) >= MaxEmbeds-1 {
			return
		}
		if embed != nil {
			r.Embeds = append(r.Embeds, embed)
		}
	}
}

func (r *Report) Link(label, url string) {
	r.LinkLabel = label
	r.LinkURL = url
}

// MessageSend renders the report. The total size cap covers every embed of
// the message, so trailing copied embeds move to embeds.txt and trailing
// fields to fields.txt until the message fits.
func (r *Report) MessageSend() *discordgo.MessageSend {
	r.fitTotal()

	embed := &discordgo.MessageEmbed{
		Title:       utils.Truncate(r.Title, MaxTitle),
		Description: r.Description,
		Color:       r.Color,
	}
	if !r.Timestamp.IsZero() {
		embed.Timestamp = r.Timestamp.UTC().Format(time.RFC3339)
	}
	if r.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: utils.Truncate(r.Footer, MaxFooter)}
	}
	if r.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: r.Thumbnail}
	}
	for _, field := range r.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: field.Name, Value: field.Value})
	}

	msg := &discordgo.MessageSend{
		Embeds:          append([]*discordgo.MessageEmbed{embed}, r.Embeds...),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	for _, file := range r.Files {
		msg.Files = append(msg.Files, &discordgo.File{
			Name:        file.Name,
			ContentType: "text/plain; charset=utf-8",
			Reader:      bytes.NewReader(file.Data),
		})
	}
	if r.LinkURL != "" {
		msg.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: r.LinkLabel, Style: discordgo.LinkButton, URL: r.LinkURL},
			}},
		}
	}
	return msg
}

func (r *Report) size() int {
	total := utils.RuneLen(r.Title) + utils.RuneLen(r.Description) + utils.RuneLen(r.Footer)
	for _, field := range r.Fields {
		total += utils.RuneLen(field.Name) + utils.RuneLen(field.Value)
	}
	return total
}

// embedSize counts the parts of an embed the platform's total cap covers.
func embedSize(embed *discordgo.MessageEmbed) int {
	if embed == nil {
		return 0
	}
	total := utils.RuneLen(embed.Title) + utils.RuneLen(embed.Description)
	if embed.Footer != nil {
		total += utils.RuneLen(embed.Footer.Text)
	}
	if embed.Author != nil {
		total += utils.RuneLen(embed.Author.Name)
	}
	for _, field := range embed.Fields {
		if field != nil {
			total += utils.RuneLen(field.Name) + utils.RuneLen(field.Value)
		}
	}
	return total
}

func (r *Report) copiedSize() int {
	total := 0
	for _, embed := range r.Embeds {
		total += embedSize(embed)
	}
	return total
}

func (r *Report) fitTotal() {
	r.fitEmbeds()
	r.fitFields(MaxEmbedTotal - r.copiedSize())
}

// fitEmbeds drops trailing copied embeds into embeds.txt until the whole
// message fits.
func (r *Report) fitEmbeds() {
	if r.size()+r.copiedSize() <= MaxEmbedTotal {
		return
	}
	const movedName = "Embeds"
	reserve := utils.RuneLen(movedName) + utils.RuneLen(embedsNotice)
	var moved []*discordgo.MessageEmbed
	for len(r.Embeds) > 0 && r.size()+r.copiedSize()+reserve > MaxEmbedTotal {
		last := r.Embeds[len(r.Embeds)-1]
		r.Embeds = r.Embeds[:len(r.Embeds)-1]
		moved = append([]*discordgo.MessageEmbed{last}, moved...)
	}
	if len(moved) == 0 {
		return
	}
	data, err := json.MarshalIndent(moved, "", "  ")
	if err != nil {
		return
	}
	r.AttachFile("embeds.txt", string(data))
	r.Fields = append(r.Fields, Field{Name: movedName, Value: embedsNotice})
}

// fitFields demotes trailing fields into fields.txt while the primary
// embed is over budget.
func (r *Report) fitFields(budget int) {
	if r.size() <= budget {
		return
	}
	const movedName = "More details"
	reserve := utils.RuneLen(movedName) + utils.RuneLen(overflowNotice)
	var moved []Field
	for len(r.Fields) > 0 && r.size()+reserve > budget {
		last := r.Fields[len(r.Fields)-1]
		r.Fields = r.Fields[:len(r.Fields)-1]
		moved = append([]Field{last}, moved...)
	}
	if len(moved) == 0 {
		return
	}
	var b strings.Builder
	for _, field := range moved {
		b.WriteString(field.Name + "\n" + field.Value + "\n\n")
	}
	r.AttachFile("fields.txt", b.String())
	r.Fields = append(r.Fields, Field{Name: movedName, Value: overflowNotice})
}

func fileNameFor(fieldName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(fieldName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "field"
	}
	return name + ".txt"
}
