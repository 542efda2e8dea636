package textdiff

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWordsAppend(t *testing.T) {
	spans := Words("hello", "hello world")
	want := []Span{
		{Op: Equal, Text: "hello"},
		{Op: Insert, Text: " world"},
	}
	if diff := cmp.Diff(want, spans); diff != "" {
		t.Fatalf("unexpected spans (-want +got):\n%s", diff)
	}
	if !Changed(spans) {
		t.Fatalf("expected change")
	}
}

func TestWordsReplacement(t *testing.T) {
	spans := Words("the quick fox", "the slow fox")
	want := []Span{
		{Op: Equal, Text: "the "},
		{Op: Delete, Text: "quick"},
		{Op: Insert, Text: "slow"},
		{Op: Equal, Text: " fox"},
	}
	if diff := cmp.Diff(want, spans); diff != "" {
		t.Fatalf("unexpected spans (-want +got):\n%s", diff)
	}
}

func TestWordsRoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"hello", "hello world"},
		{"a b c d e", "a c d f e g"},
		{"", "brand new"},
		{"gone", ""},
		{"same text", "same text"},
		{"emoji 🎉 party!", "emoji 🎊 party?!"},
		{"line one\nline two", "line one\nline 2\nline three"},
		{"日本語のテキスト", "日本語 の テキスト"},
		{strings.Repeat("word ", 200), strings.Repeat("word ", 150) + "tail"},
	}
	for _, pair := range pairs {
		spans := Words(pair[0], pair[1])
		if got := Old(spans); got != pair[0] {
			t.Fatalf("old side mismatch for %q: got %q", pair[0], got)
		}
		if got := New(spans); got != pair[1] {
			t.Fatalf("new side mismatch for %q: got %q", pair[1], got)
		}
	}
}

func TestWordsIdentical(t *testing.T) {
	spans := Words("nothing changed", "nothing changed")
	if Changed(spans) {
		t.Fatalf("expected no change, got %v", spans)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("hi,  there!")
	want := []string{"hi", ",", "  ", "there", "!"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected tokens (-want +got):\n%s", diff)
	}
}

func TestRenderANSI(t *testing.T) {
	out := RenderANSI([]Span{
		{Op: Equal, Text: "hello"},
		{Op: Insert, Text: " world"},
		{Op: Delete, Text: "```"},
	})
	if !strings.HasPrefix(out, "```ansi\n") || !strings.HasSuffix(out, "\n```") {
		t.Fatalf("expected ansi code block, got %q", out)
	}
	if !strings.Contains(out, "🟩\u001b[1;32m world\u001b[0m🟩") {
		t.Fatalf("expected green insertion, got %q", out)
	}
	if !strings.Contains(out, "🟥\u001b[1;31m\\`\\`\\`\u001b[0m🟥") {
		t.Fatalf("expected escaped red deletion, got %q", out)
	}
}

func TestIndexRuneSkipsSurrogates(t *testing.T) {
	for _, idx := range []int{0, 1, 0xD7FE, 0xD7FF, 0xD800, 0x10000} {
		r := indexRune(idx)
		if r >= 0xD800 && r <= 0xDFFF {
			t.Fatalf("index %d mapped to surrogate %x", idx, r)
		}
		if back := runeIndex(r); back != idx {
			t.Fatalf("index %d round tripped to %d", idx, back)
		}
	}
}
