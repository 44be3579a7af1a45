package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/raido/internal/apperr"
)

func TestParse_ValidDocument(t *testing.T) {
	data := []byte("---\nlayout: post\ntitle: \"X\"\n---\nBody text.\n")
	d, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fm := d.FrontMatter()
	if len(fm) != 2 || fm[0] != "layout: post" || fm[1] != "title: \"X\"" {
		t.Errorf("front matter = %v", fm)
	}
	if d.Body() != "Body text.\n" {
		t.Errorf("body = %q", d.Body())
	}
}

func TestParse_MissingMarker(t *testing.T) {
	_, err := Parse([]byte("# Heading\nNo front matter here.\n"))
	if !errors.Is(err, apperr.ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
}

func TestParse_UnclosedBlock(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: open forever\nno closing marker\n"))
	if !errors.Is(err, apperr.ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
}

func TestParse_EmptyBlock(t *testing.T) {
	d, err := Parse([]byte("---\n---\nBody\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.FrontMatter()) != 0 {
		t.Errorf("front matter = %v, want empty", d.FrontMatter())
	}
	if d.Body() != "Body\n" {
		t.Errorf("body = %q", d.Body())
	}
}

func TestParse_CRLFMarkers(t *testing.T) {
	d, err := Parse([]byte("---\r\ntitle: win\r\n---\r\nBody\r\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// Content lines keep their \r verbatim.
	if fm := d.FrontMatter(); len(fm) != 1 || fm[0] != "title: win\r" {
		t.Errorf("front matter = %q", fm)
	}
}

func TestHasKey_TopLevelOnly(t *testing.T) {
	d, err := Parse([]byte("---\nlayout: post\nnested:\n  redirect_to: deep\n---\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !d.HasKey("layout") {
		t.Error("layout should be present")
	}
	if !d.HasKey("nested") {
		t.Error("nested should be present")
	}
	if d.HasKey("redirect_to") {
		t.Error("indented redirect_to must not count as top-level")
	}
	if d.HasKey("lay") {
		t.Error("prefix of another key must not match")
	}
}

func TestKeys_OrderAndFiltering(t *testing.T) {
	src := strings.Join([]string{
		"---",
		"layout: post",
		"# a comment",
		"tags:",
		"  - one",
		"title: \"X\"",
		"---",
		"",
	}, "\n")
	d, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	keys := d.Keys()
	want := []string{"layout", "tags", "title"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestInsertAfterMarker_ShiftsLinesDown(t *testing.T) {
	d, err := Parse([]byte("---\nlayout: post\ntitle: \"X\"\n---\nBody\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d.InsertAfterMarker([]string{"redirect_to:", "  - https://example.com/x"})

	lines := strings.Split(string(d.Bytes()), "\n")
	want := []string{"---", "redirect_to:", "  - https://example.com/x", "layout: post", "title: \"X\"", "---", "Body", ""}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	// The inserted key is now visible to the idempotence scan.
	if !d.HasKey("redirect_to") {
		t.Error("inserted key not found by HasKey")
	}
}

func TestBytes_RoundTrip(t *testing.T) {
	cases := []string{
		"---\ntitle: a\n---\nBody\n",
		"---\ntitle: a\n---\nno trailing newline",
		"---\n---\n",
	}
	for _, src := range cases {
		d, err := Parse([]byte(src))
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		if got := string(d.Bytes()); got != src {
			t.Errorf("round trip = %q, want %q", got, src)
		}
	}
}
