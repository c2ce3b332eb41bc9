package markdown

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"# Title", `<h1 id="title">Title</h1>`},
		{"~~gone~~", "<del>gone</del>"},
		{"- a\n- b", "<li>a</li>"},
		{"<span class=\"x\">raw</span>", `<span class="x">raw</span>`},
	}
	for _, tt := range tests {
		got, err := Render(tt.input)
		if err != nil {
			t.Fatalf("Render(%q): %v", tt.input, err)
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.want)
		}
	}
}

func TestToHTML(t *testing.T) {
	got, err := ToHTML("<p>already html</p>", FormatHTML)
	if err != nil || got != "<p>already html</p>" {
		t.Errorf("ToHTML html = %q, %v", got, err)
	}
	got, err = ToHTML("<p>x</p>", "")
	if err != nil || got != "<p>x</p>" {
		t.Errorf("ToHTML empty format = %q, %v", got, err)
	}
	got, err = ToHTML("hello", FormatMarkdown)
	if err != nil || strings.TrimSpace(got) != "<p>hello</p>" {
		t.Errorf("ToHTML markdown = %q, %v", got, err)
	}
	if _, err := ToHTML("x", "rst"); err == nil {
		t.Error("expected error for unknown format")
	}
}
