package blog

import (
	"strings"

	"github.com/eringen/studio/slug"
)

// Slugify derives the public identifier of a post from its title.
func Slugify(title string) string {
	return slug.Make(strings.TrimSpace(title))
}

// SplitTags parses the comma-joined tag field of the admin forms.
func SplitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
