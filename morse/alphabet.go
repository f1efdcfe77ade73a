package morse

import (
	"sort"
	"strings"
)

const (
	Dot  = '.'
	Dash = '-'
)

var Codes = map[string]string{
	"A": ".-", "B": "-...", "C": "-.-.", "D": "-..", "E": ".", "F": "..-.",
	"G": "--.", "H": "....", "I": "..", "J": ".---", "K": "-.-", "L": ".-..",
	"M": "--", "N": "-.", "O": "---", "P": ".--.", "Q": "--.-", "R": ".-.",
	"S": "...", "T": "-", "U": "..-", "V": "...-", "W": ".--", "X": "-..-",
	"Y": "-.--", "Z": "--..",
}

var letters = func() []string {
	result := make([]string, 0, len(Codes))
	for letter := range Codes {
		result = append(result, letter)
	}
	sort.Strings(result)
	return result
}()

// Letters returns the alphabet in A-Z order. The slice must not be modified.
func Letters() []string {
	return letters
}

func Code(letter string) (string, bool) {
	code, ok := Codes[letter]
	return code, ok
}

// Translate turns a message of upper-case, space-separated words into Morse,
// putting charSep between letters and wordSep between words.
// Characters without a code are dropped.
func Translate(msg string, charSep string, wordSep string) string {
	words := strings.Fields(msg)
	encoded := make([]string, 0, len(words))
	for _, word := range words {
		codes := make([]string, 0, len(word))
		for _, r := range strings.ToUpper(word) {
			if code, ok := Code(string(r)); ok {
				codes = append(codes, code)
			}
		}
		encoded = append(encoded, strings.Join(codes, charSep))
	}
	return strings.Join(encoded, wordSep)
}

// Encode returns the timing-less stream for msg: no letter or word separators.
func Encode(msg string) string {
	return Translate(msg, "", "")
}
