package wordfilter

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Rules is the per-language function set used by the filter: which
// candidate tokens never count as vocabulary. Selected by a table
// lookup on the language code; languages without an entry fall back
// to defaultRules.
type Rules struct {
	// Interjections lists filler words compared against the folded
	// surface form.
	Interjections map[string]struct{}
	// IsProperNoun flags tokens to skip by surface heuristic.
	// midSentence is false for the first token of a segment.
	IsProperNoun func(surface string, midSentence bool) bool
	// IgnorePOS lists part-of-speech tags that never count as
	// vocabulary, matched against every level of the resolver's POS
	// hierarchy.
	IgnorePOS map[string]struct{}
	// Tokenize splits raw segment text into candidate word tokens.
	Tokenize func(text string) []string
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// capitalizedMidSentence treats a capitalized token in the middle of a
// segment as a proper noun. First tokens are exempt since sentence
// case hides names there anyway.
func capitalizedMidSentence(surface string, midSentence bool) bool {
	if !midSentence {
		return false
	}
	r := []rune(surface)
	return len(r) > 0 && unicode.IsUpper(r[0])
}

// splitLetters extracts runs of letters, keeping in-word apostrophes
// and hyphens (e.g. "don't", "Rot-Grün").
func splitLetters(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.Trim(current.String(), "'-"))
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		case (r == '\'' || r == '-') && current.Len() > 0:
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	out := tokens[:0]
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// splitScriptRuns segments unspaced CJK text into runs of the same
// script class. Morphological splitting is the lemma resolver's job;
// this only produces candidate surfaces.
func splitScriptRuns(text string) []string {
	type class int
	const (
		other class = iota
		han
		hiragana
		katakana
		latin
	)
	classify := func(r rune) class {
		switch {
		case unicode.In(r, unicode.Han):
			return han
		case unicode.In(r, unicode.Hiragana):
			return hiragana
		case unicode.In(r, unicode.Katakana):
			return katakana
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return latin
		default:
			return other
		}
	}

	var tokens []string
	var current strings.Builder
	last := other
	for _, r := range text {
		c := classify(r)
		if c == other {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			last = other
			continue
		}
		if c != last && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		current.WriteRune(r)
		last = c
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

var defaultRules = Rules{
	Interjections: set("oh", "ah", "hm", "hmm", "uh", "um", "huh", "wow", "hey"),
	IsProperNoun:  capitalizedMidSentence,
	Tokenize:      splitLetters,
}

var rulesByLanguage = map[string]Rules{
	"en": {
		Interjections: set("oh", "ah", "hm", "hmm", "uh", "um", "huh", "wow", "hey", "yeah", "nah", "ugh", "whoa"),
		IsProperNoun:  capitalizedMidSentence,
		Tokenize:      splitLetters,
	},
	"de": {
		Interjections: set("ach", "äh", "ähm", "hm", "oh", "na", "tja", "hey", "oje", "pfui"),
		// German capitalizes every noun, so capitalization alone says
		// nothing about names.
		IsProperNoun: func(string, bool) bool { return false },
		Tokenize:     splitLetters,
	},
	"es": {
		Interjections: set("ah", "eh", "oh", "uf", "ay", "ey", "vaya", "anda"),
		IsProperNoun:  capitalizedMidSentence,
		Tokenize:      splitLetters,
	},
	"ja": {
		Interjections: set("あの", "えっと", "ええと", "あら", "まあ", "ねえ", "うん", "はあ"),
		IsProperNoun:  func(string, bool) bool { return false },
		// Kagome IPA tags: particles, auxiliaries, symbols and proper
		// interjection class carry no vocabulary value.
		IgnorePOS: set("助詞", "助動詞", "記号", "補助記号", "感動詞", "固有名詞"),
		Tokenize:  splitScriptRuns,
	},
}

// rulesFor returns the rule set for the language's base code.
func rulesFor(lang language.Tag) Rules {
	base, _ := lang.Base()
	if rules, ok := rulesByLanguage[base.String()]; ok {
		return rules
	}
	return defaultRules
}

// isNumeric reports whether the token is digits only.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isSingleLetter reports single-rune latin tokens ("a", "I") that are
// below the threshold of vocabulary.
func isSingleLetter(s string) bool {
	r := []rune(s)
	return len(r) == 1 && unicode.In(r[0], unicode.Latin)
}
