package textutil

import (
	"regexp"
	"strings"
)

// MaxTitleLength caps normalized titles, in runes.
const MaxTitleLength = 99

var (
	markerPattern      = regexp.MustCompile(`(?i)\((?:sub|dub|uncut|uncensored|audio)\)`)
	audioSuffixPattern = regexp.MustCompile(`(?i)\([^()]*audio\)`)
	trailingBDPattern  = regexp.MustCompile(`(?i)\sBD$`)
)

// NormalizeTitle removes provider noise from a title before comparison. The
// passes repeat until the title stops changing, so the result is a fixed point.
func NormalizeTitle(title string) string {
	current := title
	for {
		next := normalizeOnce(current)
		if next == current {
			return next
		}
		current = next
	}
}

func normalizeOnce(title string) string {
	out := markerPattern.ReplaceAllString(title, "")
	out = audioSuffixPattern.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, "(TV)", "")
	out = strings.TrimSpace(out)
	out = trailingBDPattern.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)
	return truncateRunes(out, MaxTitleLength)
}

func truncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
