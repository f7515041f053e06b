package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   \t ", nil},
		{"lowercases and splits", "Front Brake-Pad SET", []string{"front", "brake", "pad", "set"}},
		{"drops short tokens", "a b cd e", []string{"cd"}},
		{"drops stop words", "pads for the front of a car", []string{"pads", "the", "front", "car"}},
		{"keeps duplicates", "brake brake", []string{"brake", "brake"}},
		{"keeps underscores and digits", "part_no 001", []string{"part_no", "001"}},
		{"product code", "BRK-001", []string{"brk", "001"}},
		{"unicode letters", "Bremsbeläge für Audi", []string{"bremsbeläge", "für", "audi"}},
		{"punctuation only", "-- // ..", nil},
		{"fraction and superscript numerals", "1½ m² Ⅻ", []string{"1½", "m²"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

type stringer struct{ s string }

func (s stringer) String() string { return s.s }

func TestTokenizeValue(t *testing.T) {
	assert.Nil(t, TokenizeValue(nil))
	assert.Equal(t, []string{"12345"}, TokenizeValue(12345))
	assert.Equal(t, []string{"42"}, TokenizeValue(int64(42)))
	assert.Equal(t, []string{"19", "99"}, TokenizeValue(19.99))
	assert.Equal(t, []string{"hello"}, TokenizeValue(stringer{"Hello"}))
	assert.Equal(t, []string{"pn", "100", "pn", "200"}, TokenizeValue([]string{"PN-100", "pn 200"}))
	assert.Equal(t, []string{"boom"}, TokenizeValue(errors.New("boom")))
	assert.Equal(t, []string{"true"}, TokenizeValue(true))
}

func TestIsStopWord(t *testing.T) {
	for _, w := range []string{"a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by"} {
		assert.True(t, IsStopWord(w), w)
	}
	assert.False(t, IsStopWord("brake"))
}
