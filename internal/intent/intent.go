package intent

import "strings"

const (
	// Unknown is the sentinel intent returned when no keyword matches.
	Unknown = "unknown"

	baseConfidence    = 0.85
	perHitIncrement   = 0.05
	maxConfidence     = 0.99
	unknownConfidence = 0.4
)

// Entry maps one intent to its trigger keywords. Entries are matched in
// declaration order, so ties resolve to the first-declared intent.
type Entry struct {
	Intent   string
	Triggers []string
}

type Classifier struct {
	entries []Entry
}

// New builds a classifier over an immutable keyword table. The caller's
// slice is copied; mutating it afterwards does not affect the classifier.
func New(entries []Entry) *Classifier {
	copied := make([]Entry, len(entries))
	for i, e := range entries {
		copied[i] = Entry{
			Intent:   e.Intent,
			Triggers: append([]string(nil), e.Triggers...),
		}
	}
	return &Classifier{entries: copied}
}

// DefaultKeywords is the mobile-money intent table. Intentionally flat;
// this is keyword matching, not a statistical model.
func DefaultKeywords() []Entry {
	return []Entry{
		{Intent: "check_balance", Triggers: []string{"balance", "salio", "angalia", "check", "how much"}},
		{Intent: "send_money", Triggers: []string{"send", "tuma", "kutuma", "transfer", "pesa"}},
		{Intent: "account_info", Triggers: []string{"account", "akaunti", "info", "details", "profile"}},
		{Intent: "help", Triggers: []string{"help", "msaada", "support", "assist"}},
		{Intent: "greeting", Triggers: []string{"hello", "hi", "habari", "jambo", "hey", "mambo"}},
	}
}

// Match scores each intent by the number of tokens that exactly equal one of
// its triggers (case-insensitive) and returns the best intent with a
// confidence derived from the hit count: 1 hit is 0.85, each further hit
// adds 0.05, capped at 0.99. Zero hits everywhere returns ("unknown", 0.4).
func (c *Classifier) Match(tokens []string) (string, float64) {
	lower := make([]string, len(tokens))
	for i, tok := range tokens {
		lower[i] = strings.ToLower(tok)
	}

	bestIntent := Unknown
	bestScore := 0
	for _, entry := range c.entries {
		hits := 0
		for _, tok := range lower {
			if containsTrigger(entry.Triggers, tok) {
				hits++
			}
		}
		if hits > bestScore {
			bestScore = hits
			bestIntent = entry.Intent
		}
	}

	if bestScore == 0 {
		return Unknown, unknownConfidence
	}

	confidence := baseConfidence + float64(bestScore-1)*perHitIncrement
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return bestIntent, confidence
}

func containsTrigger(triggers []string, tok string) bool {
	for _, trigger := range triggers {
		if tok == trigger {
			return true
		}
	}
	return false
}
