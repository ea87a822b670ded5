package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Category groups statuses for reporting and completion semantics.
type Category string

const (
	CategoryOpen       Category = "open"
	CategoryInProgress Category = "in_progress"
	CategoryClosed     Category = "closed"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryOpen, CategoryInProgress, CategoryClosed:
		return true
	}
	return false
}

// MarksComplete reports whether tasks in this category count as done.
func (c Category) MarksComplete() bool { return c == CategoryClosed }

// Icon is one of a fixed set of glyph names.
type Icon string

// Icons lists every supported icon in display order.
var Icons = []Icon{
	"circle", "circle-dot", "circle-check", "circle-x", "circle-pause",
	"clock", "hourglass", "loader", "play", "pause",
	"check", "x", "alert-circle", "ban", "archive",
	"flag", "star", "zap", "rocket", "target",
	"eye", "eye-off", "thumbs-up", "thumbs-down",
}

// IsValid reports whether i is in Icons.
func (i Icon) IsValid() bool {
	for _, known := range Icons {
		if i == known {
			return true
		}
	}
	return false
}

// Field defaults and limits.
const (
	DefaultColor    = "#6b7280"
	DefaultIcon     = Icon("circle")
	DefaultCategory = CategoryOpen

	MaxNameLength = 50
	MaxSlugLength = 60
)

var (
	colorPattern   = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugPattern    = regexp.MustCompile(`^[a-z0-9-]+$`)
	slugStrip      = regexp.MustCompile(`[^\w\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// ValidColor reports whether s is a #rrggbb hex color.
func ValidColor(s string) bool { return colorPattern.MatchString(s) }

// ValidSlug reports whether s is a well-formed slug.
func ValidSlug(s string) bool {
	return s != "" && len(s) <= MaxSlugLength && slugPattern.MatchString(s)
}

// NormalizeName trims surrounding whitespace from a display name.
func NormalizeName(name string) string { return strings.TrimSpace(name) }

// ValidName reports whether a normalized name has 1..MaxNameLength characters.
func ValidName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= MaxNameLength
}

// Slugify derives a URL-safe slug from a display name:
// "In Progress!" becomes "in-progress". The result may be empty.
func Slugify(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	return s
}
