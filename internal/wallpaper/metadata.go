package wallpaper

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Metadata is the decoded wallpapers.json document.
type Metadata struct {
	LastUpdated string       `json:"last-updated-date"`
	Collections []Collection `json:"collections"`
}

// Collection is a group of wallpapers with shared availability.
type Collection struct {
	ID               string        `json:"id"`
	LearnMoreURL     string        `json:"learn-more-url,omitempty"`
	Heading          string        `json:"heading,omitempty"`
	Description      string        `json:"description,omitempty"`
	AvailableLocales []string      `json:"available-locales,omitempty"`
	Availability     *Availability `json:"availability,omitempty"`
	Wallpapers       []Wallpaper   `json:"wallpapers"`
}

// Availability bounds a collection in time. Either end may be empty.
type Availability struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Wallpaper is one selectable wallpaper. Colors are hex strings.
type Wallpaper struct {
	ID            string `json:"id"`
	TextColor     string `json:"text-color,omitempty"`
	CardColor     string `json:"card-color,omitempty"`
	LogoTextColor string `json:"logo-text-color,omitempty"`
}

// ThumbnailName is the image file name of the wallpaper's thumbnail.
func (w Wallpaper) ThumbnailName() string { return w.ID + "_thumbnail" }

// AvailableIn reports whether the collection is offered for locale. An empty
// locale list means every locale.
func (c Collection) AvailableIn(locale string) bool {
	if len(c.AvailableLocales) == 0 {
		return true
	}
	for _, l := range c.AvailableLocales {
		if strings.EqualFold(l, locale) {
			return true
		}
	}
	return false
}

// ActiveAt reports whether now falls inside the availability window. Dates
// are whole days; End is inclusive. Unparseable bounds are ignored.
func (c Collection) ActiveAt(now time.Time) bool {
	if c.Availability == nil {
		return true
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if start, err := time.Parse(dateLayout, c.Availability.Start); err == nil && day.Before(start) {
		return false
	}
	if end, err := time.Parse(dateLayout, c.Availability.End); err == nil && day.After(end) {
		return false
	}
	return true
}

// Available returns the collections offered for locale at now.
func (m Metadata) Available(locale string, now time.Time) []Collection {
	var out []Collection
	for _, c := range m.Collections {
		if c.AvailableIn(locale) && c.ActiveAt(now) {
			out = append(out, c)
		}
	}
	return out
}

// Wallpapers flattens the wallpapers of cs.
func Wallpapers(cs []Collection) []Wallpaper {
	var out []Wallpaper
	for _, c := range cs {
		out = append(out, c.Wallpapers...)
	}
	return out
}
