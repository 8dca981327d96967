package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidProfile is returned when profile data is incomplete or malformed.
var ErrInvalidProfile = errors.New("invalid profile")

// Link is a labelled external link, e.g. a streaming service or social account.
type Link struct {
	Label string
	URL   string
}

// Profile is the artist biography shown on the home page.
type Profile struct {
	Name     string
	Taglines []string // Cycled through on the home page; the last one stays
	Bio      string
	Links    []Link
	ShareURL string // Where the share button points
}

// NewProfile validates and returns a profile.
func NewProfile(p Profile) (*Profile, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	for _, link := range p.Links {
		if strings.TrimSpace(link.Label) == "" {
			return nil, fmt.Errorf("%w: link %q has no label", ErrInvalidProfile, link.URL)
		}
		if !isWebURL(link.URL) {
			return nil, fmt.Errorf("%w: link %q has invalid URL %q", ErrInvalidProfile, link.Label, link.URL)
		}
	}
	if p.ShareURL != "" && !isWebURL(p.ShareURL) {
		return nil, fmt.Errorf("%w: invalid share URL %q", ErrInvalidProfile, p.ShareURL)
	}
	return &p, nil
}

// Tagline returns the tagline left on screen once the sequence has played.
func (p *Profile) Tagline() string {
	if len(p.Taglines) == 0 {
		return ""
	}
	return p.Taglines[len(p.Taglines)-1]
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
