package render

import (
	"encoding/json"
	"strings"

	pserrors "git.home.luguber.info/inful/pagesmith/internal/errors"
)

// Site holds the site-wide settings read from config.json. Unknown keys are
// ignored.
type Site struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	BaseURL     string `json:"baseURL"`
	Language    string `json:"language"`
}

// LanguageOrDefault returns the configured language or "en".
func (s Site) LanguageOrDefault() string {
	if s.Language == "" {
		return "en"
	}
	return s.Language
}

// ParseSite decodes the raw configuration text. Blank input yields an empty Site.
func ParseSite(raw string) (Site, error) {
	var site Site
	if strings.TrimSpace(raw) == "" {
		return site, nil
	}
	if err := json.Unmarshal([]byte(raw), &site); err != nil {
		return Site{}, pserrors.ConfigError("invalid site configuration").
			WithCause(err).
			Build()
	}
	return site, nil
}
