package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeTitleStripsNoise(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dub marker", "Naruto (Dub)", "Naruto"},
		{"sub marker upper", "Naruto (SUB)", "Naruto"},
		{"uncensored", "High School DxD (Uncensored)", "High School DxD"},
		{"uncut", "One Piece (Uncut)", "One Piece"},
		{"audio parenthetical", "Bleach (Japanese Audio)", "Bleach"},
		{"plain audio", "Bleach (audio)", "Bleach"},
		{"trailing bd", "Clannad BD", "Clannad"},
		{"trailing bd lower", "Clannad bd", "Clannad"},
		{"bd inside word kept", "Clannad BDX", "Clannad BDX"},
		{"tv tag", "Hunter x Hunter (TV)", "Hunter x Hunter"},
		{"tv tag case sensitive", "Hunter x Hunter (tv)", "Hunter x Hunter (tv)"},
		{"multiple tv tags", "(TV) Fate (TV)", "Fate"},
		{"combined", "  Kanon (2006) (Dub) BD  ", "Kanon (2006)"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitleTruncates(t *testing.T) {
	long := strings.Repeat("あ", 150)
	got := NormalizeTitle(long)
	if n := utf8.RuneCountInString(got); n != MaxTitleLength {
		t.Fatalf("expected %d runes, got %d", MaxTitleLength, n)
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a rune")
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	inputs := []string{
		"Naruto (Dub)",
		"Clannad BD BD",
		"Show (Sub) (Dub) (TV)",
		"Title ((TV)Dub)",
		"x (Eng(Dub)lish Audio)",
		strings.Repeat("a", 98) + " (Dub)",
		strings.Repeat("b ", 60),
		"One Piece (Uncut) BD",
	}
	for _, input := range inputs {
		once := NormalizeTitle(input)
		twice := NormalizeTitle(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", input, once, twice)
		}
		if utf8.RuneCountInString(once) > utf8.RuneCountInString(input) {
			t.Errorf("length grew for %q: %q", input, once)
		}
		if utf8.RuneCountInString(once) > MaxTitleLength {
			t.Errorf("exceeded max length for %q", input)
		}
	}
}
