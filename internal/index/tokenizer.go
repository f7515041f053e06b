package index

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLen is the shortest token, in runes, that is kept.
const minTokenLen = 2

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
}

// IsStopWord reports whether the lowercased word is excluded from indexing.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// Tokenize lowercases text and splits it into maximal runs of letters,
// numerals and underscores. Tokens shorter than two runes and stop words
// are dropped. Order and duplicates are preserved.
func Tokenize(text string) []string {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return nil
	}

	var tokens []string
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = appendToken(tokens, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = appendToken(tokens, text[start:])
	}
	return tokens
}

// TokenizeValue coerces v to text and tokenizes it. Nil yields no tokens.
func TokenizeValue(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return Tokenize(t)
	case []string:
		var tokens []string
		for _, s := range t {
			tokens = append(tokens, Tokenize(s)...)
		}
		return tokens
	case int:
		return Tokenize(strconv.Itoa(t))
	case int64:
		return Tokenize(strconv.FormatInt(t, 10))
	case float64:
		return Tokenize(strconv.FormatFloat(t, 'f', -1, 64))
	case fmt.Stringer:
		return Tokenize(t.String())
	default:
		return Tokenize(fmt.Sprint(t))
	}
}

func appendToken(tokens []string, word string) []string {
	if utf8.RuneCountInString(word) < minTokenLen || IsStopWord(word) {
		return tokens
	}
	return append(tokens, word)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
