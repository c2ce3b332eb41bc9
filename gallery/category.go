// Package gallery keeps the portfolio and brand images, one directory per
// category under the public images root.
package gallery

import (
	"strings"

	"github.com/eringen/studio/errs"
)

// Category is one of the fixed image directories. The zero value is not a
// valid category; use ParseCategory to build one from input.
type Category int

const (
	Branding Category = iota + 1
	Packaging
	Logos
	PortfolioCards
	PortfolioFliers
	PortfolioLetterheads
	PortfolioLogos
)

// All lists every category in display order.
var All = []Category{
	Branding, Packaging, Logos,
	PortfolioCards, PortfolioFliers, PortfolioLetterheads, PortfolioLogos,
}

// Portfolio lists the categories shown on the portfolio page.
var Portfolio = []Category{PortfolioCards, PortfolioFliers, PortfolioLetterheads, PortfolioLogos}

// Name is the identifier accepted by the upload form and listing queries.
func (c Category) Name() string {
	switch c {
	case Branding:
		return "branding"
	case Packaging:
		return "packaging"
	case Logos:
		return "logos"
	case PortfolioCards:
		return "cards"
	case PortfolioFliers:
		return "fliers"
	case PortfolioLetterheads:
		return "letterheads"
	case PortfolioLogos:
		return "portfolio-logos"
	}
	return ""
}

// Dir is the directory relative to the images root, slash separated.
func (c Category) Dir() string {
	switch c {
	case Branding:
		return "branding"
	case Packaging:
		return "packaging"
	case Logos:
		return "logos"
	case PortfolioCards:
		return "portfolio/cards"
	case PortfolioFliers:
		return "portfolio/fliers"
	case PortfolioLetterheads:
		return "portfolio/letterheads"
	case PortfolioLogos:
		return "portfolio/logos"
	}
	return ""
}

// Label is the human name shown next to images of this category.
func (c Category) Label() string {
	switch c {
	case Branding:
		return "Branding"
	case Packaging:
		return "Packaging"
	case Logos:
		return "Logos"
	case PortfolioCards:
		return "Business Cards"
	case PortfolioFliers:
		return "Fliers"
	case PortfolioLetterheads:
		return "Letterheads"
	case PortfolioLogos:
		return "Logo Design"
	}
	return ""
}

func (c Category) String() string { return c.Name() }

func (c Category) Valid() bool { return c.Name() != "" }

// ParseCategory accepts a category name or its directory ("portfolio/cards"),
// case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.Trim(strings.ToLower(strings.TrimSpace(s)), "/")
	if s == "" {
		return 0, errs.Invalid("category", "is required")
	}
	for _, c := range All {
		if s == c.Name() || s == c.Dir() {
			return c, nil
		}
	}
	return 0, errs.Invalid("category", "unknown category "+s)
}
