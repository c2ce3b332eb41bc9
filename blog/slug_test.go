package blog

import (
	"reflect"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  Hello,   World!  ", "hello-world"},
		{"What's New", "whats-new"},
		{"Node.js Tips", "nodejs-tips"},
		{"Design & Branding: 2024", "design-branding-2024"},
		{"already-a-slug", "already-a-slug"},
		{"snake_case_title", "snake-case-title"},
		{"--leading and trailing--", "leading-and-trailing"},
		{"品牌设计，包装", "品牌设计包装"},
		{"Café Menus", "café-menus"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyIsDeterministic(t *testing.T) {
	title := "The Quick (Brown) Fox"
	first := Slugify(title)
	for i := 0; i < 5; i++ {
		if got := Slugify(title); got != first {
			t.Fatalf("Slugify drifted: %q vs %q", got, first)
		}
	}
}

func TestSplitTags(t *testing.T) {
	got := SplitTags(" design, branding ,,  print ")
	want := []string{"design", "branding", "print"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitTags = %v, want %v", got, want)
	}
	if got := SplitTags(""); len(got) != 0 {
		t.Fatalf("expected no tags, got %v", got)
	}
}

func TestParseStatus(t *testing.T) {
	if ParseStatus("Published") != StatusPublished {
		t.Errorf("expected published")
	}
	for _, s := range []string{"", "draft", "archived"} {
		if ParseStatus(s) != StatusDraft {
			t.Errorf("ParseStatus(%q) should be draft", s)
		}
	}
}
