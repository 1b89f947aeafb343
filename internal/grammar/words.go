package grammar

import "strconv"

// Alphabet maps spelling-alphabet words to the letters they stand for.
var Alphabet = map[string]string{
	"air": "a", "bat": "b", "cap": "c", "drum": "d", "each": "e",
	"fine": "f", "gust": "g", "harp": "h", "sit": "i", "jury": "j",
	"crunch": "k", "look": "l", "made": "m", "near": "n", "odd": "o",
	"pit": "p", "quench": "q", "red": "r", "sun": "s", "trap": "t",
	"urge": "u", "vest": "v", "whale": "w", "plex": "x", "yank": "y",
	"zip": "z",
}

var digits = map[string]int64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
}

var teens = map[string]int64{
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tens = map[string]int64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// keyAt matches a key word: an alphabet letter or a digit word.
func keyAt(words []string, i int) (string, bool) {
	if i >= len(words) {
		return "", false
	}
	if letter, ok := Alphabet[words[i]]; ok {
		return letter, true
	}
	if d, ok := digits[words[i]]; ok {
		return strconv.FormatInt(d, 10), true
	}
	return "", false
}

type numberMatch struct {
	value int64
	next  int
}

// numbersAt returns every number reading at i, longest first:
// "twenty three" reads as 23 and as 20.
func numbersAt(words []string, i int) []numberMatch {
	if i >= len(words) {
		return nil
	}
	w := words[i]

	if n, err := strconv.ParseInt(w, 10, 64); err == nil && n >= 0 {
		return []numberMatch{{value: n, next: i + 1}}
	}
	if d, ok := digits[w]; ok {
		return []numberMatch{{value: d, next: i + 1}}
	}
	if t, ok := teens[w]; ok {
		return []numberMatch{{value: t, next: i + 1}}
	}
	if t, ok := tens[w]; ok {
		var out []numberMatch
		if i+1 < len(words) {
			if d, ok := digits[words[i+1]]; ok && d > 0 {
				out = append(out, numberMatch{value: t + d, next: i + 2})
			}
		}
		return append(out, numberMatch{value: t, next: i + 1})
	}
	return nil
}
