package domain

import "fmt"

// Category is a guarded content domain with its own quota counter.
type Category string

const (
	CategoryBooks  Category = "books"
	CategoryMovies Category = "movies"
	CategoryMusic  Category = "music"
)

// Categories lists every known category.
func Categories() []Category {
	return []Category{CategoryBooks, CategoryMovies, CategoryMusic}
}

// ParseCategory validates a raw category string at the boundary.
func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case CategoryBooks, CategoryMovies, CategoryMusic:
		return Category(raw), nil
	default:
		return "", fmt.Errorf("unknown category %q", raw)
	}
}

// Audience is the closed set of user groups the recommendation prompts and
// catalog filters distinguish between.
type Audience string

const (
	AudienceTeen    Audience = "teenager"
	AudienceStudent Audience = "student"
	AudienceAdult   Audience = "adult"
)

// ParseAudience maps a raw user type to a known audience, defaulting to
// adult for anything unrecognized.
func ParseAudience(raw string) Audience {
	switch Audience(raw) {
	case AudienceTeen, AudienceStudent:
		return Audience(raw)
	default:
		return AudienceAdult
	}
}
