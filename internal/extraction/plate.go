package extraction

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/vehicle-intake/constants"
)

const (
	plateMinLen      = 4
	plateMaxLen      = 8
	plateMinMixedLen = 3
)

type platePattern struct {
	method Method
	re     *regexp.Regexp
}

// platePatterns are tried in priority order against each surviving line.
var platePatterns = []platePattern{
	{MethodPlateGrouped, regexp.MustCompile(`^[A-Z0-9]{2,3}[A-Z0-9]{3,4}$`)},
	{MethodPlateLettersDigits, regexp.MustCompile(`^[A-Z]{1,3}[0-9]{1,4}[A-Z]{0,2}$`)},
	{MethodPlateDigitsLetters, regexp.MustCompile(`^[0-9]{1,3}[A-Z]{2,3}[0-9]{1,3}$`)},
	{MethodPlateGeneric, regexp.MustCompile(`^[A-Z0-9]{4,8}$`)},
}

func hasLetter(s string) bool { return strings.IndexFunc(s, isUpperLetter) >= 0 }
func hasDigit(s string) bool  { return strings.IndexFunc(s, isDigit) >= 0 }

func isUpperLetter(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool       { return r >= '0' && r <= '9' }

func allOf(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

// plausiblePlate keeps mixed letter/digit tokens of 3–8 chars, or single-class
// tokens of 4–8 chars that are not a repeated character or a year.
func plausiblePlate(c string) bool {
	n := len(c)
	if n >= plateMinMixedLen && n <= plateMaxLen && hasLetter(c) && hasDigit(c) {
		return true
	}
	if n < plateMinLen || n > plateMaxLen {
		return false
	}
	if !allOf(c, isUpperLetter) && !allOf(c, isDigit) {
		return false
	}
	return !isRepeatedChar(c) && !reBareYear.MatchString(c)
}

// plateCandidates filters denylisted lines and compacts the rest.
func plateCandidates(lines []string) []string {
	var out []string
	for _, ln := range lines {
		if isDenylistedLine(ln) {
			continue
		}
		if c := compactLine(ln); plausiblePlate(c) {
			out = append(out, c)
		}
	}
	return out
}

func matchPlateShape(cands []string) (string, Method, bool) {
	for _, c := range cands {
		for _, p := range platePatterns {
			if p.re.MatchString(c) && len(c) >= plateMinLen {
				return c, p.method, true
			}
		}
	}
	return "", MethodNone, false
}

// scanPlateWords is the last resort over every word of the text.
func scanPlateWords(words []string) (string, bool) {
	for _, w := range words {
		if len(w) < plateMinLen || len(w) > plateMaxLen {
			continue
		}
		if isRepeatedChar(w) || isDenylistedWord(w) {
			continue
		}
		return w, true
	}
	return "", false
}

// ExtractPlate reads a license plate from raw OCR text of a plate photo.
func ExtractPlate(raw string) Result {
	text := Normalize(raw)
	if text.Empty() {
		return unreadable(constants.FieldPlate, raw)
	}

	value, method, conf := "", MethodNone, 0
	if c, m, ok := matchPlateShape(plateCandidates(text.Lines)); ok {
		value, method, conf = c, m, ConfidencePlateShape
	} else if w, ok := scanPlateWords(text.Words()); ok {
		value, method, conf = w, MethodPlateFallbackScan, ConfidencePlateScan
	}

	if len(value) < plateMinLen || len(value) > plateMaxLen {
		return unreadable(constants.FieldPlate, raw)
	}
	return found(constants.FieldPlate, raw, value, conf, method)
}
