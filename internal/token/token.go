package token

import (
	"strings"
	"unicode"
)

// TokenSet is the output of tokenization: the detected language and the
// ordered word tokens of the utterance.
type TokenSet struct {
	Language string
	Tokens   []string
}

type Source interface {
	Tokenize(text string) TokenSet
}

// Swahili keywords that signal non-English input. Deliberately conservative:
// only words that are unambiguously Swahili (or Sheng) in a fintech context.
var swahiliKeywords = []string{
	"angalia", "balance", "tuma", "pesa", "salio", "kutuma", "akaunti",
}

// Detector splits text on Unicode word boundaries and applies a keyword
// heuristic for language detection. Stateless and safe for concurrent use.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

func (d *Detector) Tokenize(text string) TokenSet {
	tokens := words(text)

	language := "english"
	for _, tok := range tokens {
		if isSwahiliKeyword(strings.ToLower(tok)) {
			language = "swahili"
			break
		}
	}

	return TokenSet{Language: language, Tokens: tokens}
}

func isSwahiliKeyword(tok string) bool {
	for _, kw := range swahiliKeywords {
		if tok == kw {
			return true
		}
	}
	return false
}

// words splits on runs of letters and digits, keeping word-internal
// apostrophes so contractions survive as single tokens.
func words(text string) []string {
	out := []string{}
	runes := []rune(text)
	start := -1
	for i, r := range runes {
		if wordRune(r) || (r == '\'' && start >= 0 && i+1 < len(runes) && wordRune(runes[i+1])) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, string(runes[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, string(runes[start:]))
	}
	return out
}

func wordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
