package blog

import (
	"strings"
	"testing"
)

func TestReadingStats(t *testing.T) {
	words, minutes := ReadingStats("<p>one two <b>three</b></p><script>var ignored = 1;</script>")
	if words != 3 || minutes != 1 {
		t.Fatalf("got %d words, %d min; want 3, 1", words, minutes)
	}

	long := "<p>" + strings.Repeat("word ", 401) + "</p>"
	if _, minutes := ReadingStats(long); minutes != 3 {
		t.Fatalf("401 words should round up to 3 minutes, got %d", minutes)
	}

	if words, minutes := ReadingStats(""); words != 0 || minutes != 0 {
		t.Fatalf("empty content: %d, %d", words, minutes)
	}
}
