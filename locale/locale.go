// Package locale looks up display strings for the slideshow
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

//go:embed messages/*.json
var messageFiles embed.FS

const defaultLang = "en"

// Catalog is the set of messages for one language
type Catalog struct {
	lang     string
	messages map[string]string
}

// Load reads the catalog for lang, falling back to english for unknown languages
func Load(lang string) (*Catalog, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if lang == "" {
		lang = defaultLang
	}

	data, err := messageFiles.ReadFile(path.Join("messages", lang+".json"))
	if err != nil {
		lang = defaultLang
		data, err = messageFiles.ReadFile(path.Join("messages", lang+".json"))
		if err != nil {
			return nil, fmt.Errorf("unable to read message catalog, %w", err)
		}
	}

	messages := make(map[string]string)
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("unable to parse message catalog %s, %w", lang, err)
	}
	return &Catalog{lang: lang, messages: messages}, nil
}

func (c *Catalog) Lang() string {
	return c.lang
}

// Localize returns the message for key, or fallback when there is none
func (c *Catalog) Localize(key, fallback string) string {
	if msg, ok := c.messages[key]; ok && msg != "" {
		return msg
	}
	return fallback
}
