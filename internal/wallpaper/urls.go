// Package wallpaper builds wallpaper endpoint URLs, fetches the wallpaper
// metadata and thumbnails, and holds the wallpaper selection screen state.
package wallpaper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidURL is returned when a built URL is not absolute.
	ErrInvalidURL = errors.New("wallpaper: invalid url")
	// ErrNoBundledScheme is returned when no scheme is configured.
	ErrNoBundledScheme = errors.New("wallpaper: no bundled scheme")
)

// TestScheme is the scheme used in test mode.
const TestScheme = "https://my.test.url"

const metadataEndpoint = "v1"

// URLKind selects the endpoint.
type URLKind int

const (
	KindMetadata URLKind = iota
	KindImage
)

func (k URLKind) String() string {
	switch k {
	case KindMetadata:
		return "metadata"
	case KindImage:
		return "image"
	}
	return fmt.Sprintf("URLKind(%d)", int(k))
}

// URLProvider builds endpoint URLs. It only looks at its own fields.
type URLProvider struct {
	TestMode    bool
	SchemeToken string
}

// Scheme returns the base URL all endpoints are built from.
func (p URLProvider) Scheme() (string, error) {
	if p.TestMode {
		return TestScheme, nil
	}
	token := strings.TrimRight(strings.TrimSpace(p.SchemeToken), "/")
	if token == "" {
		return "", ErrNoBundledScheme
	}
	return token, nil
}

// URL builds the endpoint for kind. key and fileName are only used for KindImage.
func (p URLProvider) URL(kind URLKind, key, fileName string) (string, error) {
	scheme, err := p.Scheme()
	if err != nil {
		return "", err
	}

	var raw string
	switch kind {
	case KindMetadata:
		raw = fmt.Sprintf("%s/metadata/%s/wallpapers.json", scheme, metadataEndpoint)
	case KindImage:
		raw = fmt.Sprintf("%s/ios/%s/%s.png", scheme, key, fileName)
	default:
		return "", fmt.Errorf("%w: unknown kind %s", ErrInvalidURL, kind)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, raw)
	}
	return raw, nil
}

// MetadataURL is URL(KindMetadata, "", "").
func (p URLProvider) MetadataURL() (string, error) {
	return p.URL(KindMetadata, "", "")
}

// ThumbnailURL is the image URL of a wallpaper's thumbnail.
func (p URLProvider) ThumbnailURL(w Wallpaper) (string, error) {
	return p.URL(KindImage, w.ID, w.ThumbnailName())
}
