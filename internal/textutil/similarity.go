package textutil

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"animap/internal/media"
)

// MatchThreshold is the score a comparison must exceed to count as a match.
const MatchThreshold = 0.6

// Score returns the bigram Dice coefficient of a and b. Each bigram instance
// matches at most once. Strings shorter than two runes score 1 only against
// an identical string.
func Score(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		if a == b {
			return 1
		}
		return 0
	}

	pool := make(map[[2]rune]int, len(rb)-1)
	for i := 0; i < len(rb)-1; i++ {
		pool[[2]rune{rb[i], rb[i+1]}]++
	}
	matches := 0
	for i := 0; i < len(ra)-1; i++ {
		key := [2]rune{ra[i], ra[i+1]}
		if pool[key] > 0 {
			pool[key]--
			matches++
		}
	}
	total := (len(ra) - 1) + (len(rb) - 1)
	return 2 * float64(matches) / float64(total)
}

// BestSimilarity compares title against the normalized candidate and each
// non-empty alternate title, ignoring case, and keeps the highest score.
func BestSimilarity(title, candidate string, alts []string) media.Similarity {
	// Casers carry state and are not safe for concurrent use.
	lower := cases.Lower(language.Und)
	target := lower.String(title)

	best := Score(lower.String(NormalizeTitle(candidate)), target)
	for _, alt := range alts {
		if alt == "" {
			continue
		}
		if s := Score(lower.String(alt), target); s > best {
			best = s
		}
	}
	return media.Similarity{IsMatch: best > MatchThreshold, Score: best}
}
