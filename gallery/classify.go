package gallery

import (
	"path"
	"strings"
)

// keywords maps filename fragments to a display category. Order matters:
// the first match wins.
var keywords = []struct {
	words []string
	label string
}{
	{[]string{"letterhead"}, PortfolioLetterheads.Label()},
	{[]string{"card"}, PortfolioCards.Label()},
	{[]string{"flier", "flyer", "poster", "brochure"}, PortfolioFliers.Label()},
	{[]string{"logo", "mark", "emblem"}, Logos.Label()},
	{[]string{"package", "packaging", "box", "label", "bottle"}, Packaging.Label()},
	{[]string{"brand", "identity", "guideline"}, Branding.Label()},
}

// Classify guesses the display category of a file from keywords in its
// name, falling back to the label of the directory it lives in.
func Classify(filename string, in Category) string {
	name := strings.ToLower(path.Base(filename))
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(name, w) {
				return k.label
			}
		}
	}
	return in.Label()
}

// Alt derives an image title from its filename: extension dropped, a
// leading upload timestamp dropped, hyphens and underscores as spaces.
func Alt(filename string) string {
	name := path.Base(filename)
	name = strings.TrimSuffix(name, path.Ext(name))
	if i := strings.IndexByte(name, '-'); i >= 10 && isDigits(name[:i]) && i < len(name)-1 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
