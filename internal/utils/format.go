package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const MaxFileStem = 30

func IsBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// Pluralize renders "1 attachment" / "3 attachments".
func Pluralize(count int, noun string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, noun)
	}
	return fmt.Sprintf("%d %ss", count, noun)
}

// TruncateFileName keeps the extension and cuts the stem to MaxFileStem
// runes, the last of which becomes an ellipsis. A stem already within the
// limit is returned as is, so the function is idempotent.
func TruncateFileName(name string) string {
	if name == "" {
		return "(no file name)"
	}

	stem, ext := name, ""
	if idx := strings.LastIndex(name, "."); idx > 0 {
		stem, ext = name[:idx], name[idx:]
	}
	if utf8.RuneCountInString(stem) <= MaxFileStem {
		return name
	}
	runes := []rune(stem)
	return string(runes[:MaxFileStem-1]) + "…" + ext
}

// Truncate cuts value to at most limit runes, marking the cut with an ellipsis.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return string(runes[:limit-1]) + "…"
}

func RuneLen(value string) int {
	return utf8.RuneCountInString(value)
}

// EscapeCodeBlock keeps user text from closing a fenced block early.
func EscapeCodeBlock(value string) string {
	return strings.ReplaceAll(value, "```", "\\`\\`\\`")
}

var markdownReplacer = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
	">", `\>`,
)

func EscapeMarkdown(value string) string {
	return markdownReplacer.Replace(value)
}

func CodeBlock(value string) string {
	return "```\n" + EscapeCodeBlock(value) + "\n```"
}
