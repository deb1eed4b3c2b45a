package token

import (
	"reflect"
	"testing"
)

func TestTokenizeSwahili(t *testing.T) {
	d := NewDetector()
	ts := d.Tokenize("angalia salio yangu")
	if ts.Language != "swahili" {
		t.Fatalf("expected swahili, got %s", ts.Language)
	}
	if !reflect.DeepEqual(ts.Tokens, []string{"angalia", "salio", "yangu"}) {
		t.Fatalf("unexpected tokens: %v", ts.Tokens)
	}
}

func TestTokenizeEnglish(t *testing.T) {
	d := NewDetector()
	ts := d.Tokenize("show me my recent transactions")
	if ts.Language != "english" {
		t.Fatalf("expected english, got %s", ts.Language)
	}
	if len(ts.Tokens) != 5 {
		t.Fatalf("expected 5 tokens, got %d", len(ts.Tokens))
	}
}

func TestTokenizeMixed(t *testing.T) {
	d := NewDetector()
	ts := d.Tokenize("I want to tuma pesa to my friend")
	if ts.Language != "swahili" {
		t.Fatalf("expected swahili from mixed input, got %s", ts.Language)
	}
	if len(ts.Tokens) < 7 {
		t.Fatalf("expected at least 7 tokens, got %d", len(ts.Tokens))
	}
}

func TestTokenizeEmpty(t *testing.T) {
	d := NewDetector()
	ts := d.Tokenize("")
	if ts.Language != "english" {
		t.Fatalf("expected english for empty input, got %s", ts.Language)
	}
	if len(ts.Tokens) != 0 {
		t.Fatalf("expected no tokens, got %v", ts.Tokens)
	}
}

func TestTokenizeKeepsContractions(t *testing.T) {
	d := NewDetector()
	ts := d.Tokenize("je veux envoyer de l'argent")
	found := false
	for _, tok := range ts.Tokens {
		if tok == "l'argent" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected apostrophe word to survive, got %v", ts.Tokens)
	}
}

func TestTokenizePunctuationStripped(t *testing.T) {
	d := NewDetector()
	ts := d.Tokenize("check, my: balance!")
	if !reflect.DeepEqual(ts.Tokens, []string{"check", "my", "balance"}) {
		t.Fatalf("unexpected tokens: %v", ts.Tokens)
	}
}

func TestLanguageDetectionIsCaseInsensitive(t *testing.T) {
	d := NewDetector()
	ts := d.Tokenize("ANGALIA SALIO")
	if ts.Language != "swahili" {
		t.Fatalf("expected swahili, got %s", ts.Language)
	}
}
