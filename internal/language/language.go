package language

import (
	"strings"

	textlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// words maps the English display labels providers commonly use to tags.
// Labels with a region qualifier come first so they win over the bare word.
var words = map[string]string{
	"portuguese (brazil)":     "pt-BR",
	"portuguese - brazil":     "pt-BR",
	"spanish (latin america)": "es-419",
	"spanish - latin america": "es-419",
	"spanish (spain)":         "es-ES",
	"chinese (simplified)":    "zh-Hans",
	"chinese (traditional)":   "zh-Hant",
	"english":                 "en",
	"japanese":                "ja",
	"spanish":                 "es",
	"portuguese":              "pt",
	"french":                  "fr",
	"german":                  "de",
	"italian":                 "it",
	"russian":                 "ru",
	"arabic":                  "ar",
	"korean":                  "ko",
	"chinese":                 "zh",
	"indonesian":              "id",
	"thai":                    "th",
	"vietnamese":              "vi",
	"turkish":                 "tr",
	"polish":                  "pl",
	"dutch":                   "nl",
	"hindi":                   "hi",
}

// Normalize returns the BCP 47 tag for label, or "" when label is not a
// recognized language. Trailing qualifiers such as "[CC]" are ignored.
func Normalize(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return ""
	}
	if tag, ok := words[label]; ok {
		return tag
	}
	if i := strings.IndexAny(label, "[("); i > 0 {
		if tag, ok := words[strings.TrimSpace(label[:i])]; ok {
			return tag
		}
	}
	if fields := strings.Fields(label); len(fields) > 1 {
		if tag, ok := words[fields[0]]; ok {
			return tag
		}
	}
	tag, err := textlang.Parse(strings.ReplaceAll(label, "_", "-"))
	if err != nil || tag == textlang.Und {
		return ""
	}
	return tag.String()
}

// DisplayName returns the English name for tag, or the input unchanged when
// it is not a valid tag.
func DisplayName(tag string) string {
	parsed, err := textlang.Parse(strings.TrimSpace(tag))
	if err != nil || parsed == textlang.Und {
		return tag
	}
	name := display.English.Tags().Name(parsed)
	if name == "" {
		return tag
	}
	return name
}
