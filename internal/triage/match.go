package triage

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

var textReplacer = strings.NewReplacer("’", "'", "‘", "'")

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "all": {},
	"any": {}, "can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {},
	"has": {}, "have": {}, "this": {}, "that": {}, "with": {}, "from": {}, "they": {},
	"will": {}, "what": {}, "when": {}, "your": {}, "into": {}, "there": {}, "been": {},
	"does": {}, "how": {}, "its": {}, "get": {}, "got": {}, "too": {}, "very": {},
	"please": {}, "help": {}, "need": {},
}

func normalizeText(text string) string {
	return textReplacer.Replace(strings.ToLower(text))
}

// containsPhrase reports whether phrase occurs in text bounded by
// non-alphanumeric runes. Both inputs must already be normalized.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	offset := 0
	for {
		idx := strings.Index(text[offset:], phrase)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
		if offset >= len(text) {
			return false
		}
	}
}

func boundaryBefore(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !isWordRune(r)
}

func boundaryAfter(text string, pos int) bool {
	if pos >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// matchKeywords returns the keywords present in text, in keyword order.
func matchKeywords(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if containsPhrase(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// tokenize returns the distinct content tokens of text in first-seen order.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(normalizeText(text), -1)
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) < 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func tokenSet(text string) map[string]struct{} {
	toks := tokenize(text)
	set := make(map[string]struct{}, len(toks))
	for _, tok := range toks {
		set[tok] = struct{}{}
	}
	return set
}
