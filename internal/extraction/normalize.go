package extraction

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reLineBreak = regexp.MustCompile(`\r\n?|\n`)
	reNonAlnum  = regexp.MustCompile(`[^A-Z0-9]+`)
)

// Text is the normalized view of a raw OCR blob.
type Text struct {
	// Lines are trimmed, uppercased, non-empty input lines in order.
	Lines []string
	// Joined holds every alphanumeric word of Lines separated by a single space.
	Joined string
}

// Normalize folds the input to uppercase ASCII-friendly lines. It never fails;
// empty or whitespace-only input yields an empty Text.
func Normalize(raw string) Text {
	if raw == "" {
		return Text{}
	}
	s := strings.ToValidUTF8(raw, "")
	// NFKC maps full-width digits and letters (common in phone OCR) to ASCII.
	s = norm.NFKC.String(s)

	var lines, words []string
	for _, ln := range reLineBreak.Split(s, -1) {
		ln = strings.ToUpper(strings.TrimSpace(ln))
		if ln == "" {
			continue
		}
		lines = append(lines, ln)
		if w := strings.TrimSpace(reNonAlnum.ReplaceAllString(ln, " ")); w != "" {
			words = append(words, w)
		}
	}
	return Text{Lines: lines, Joined: strings.Join(words, " ")}
}

// Empty reports whether there was no usable text.
func (t Text) Empty() bool { return len(t.Lines) == 0 }

// Words splits Joined back into its alphanumeric words.
func (t Text) Words() []string {
	if t.Joined == "" {
		return nil
	}
	return strings.Split(t.Joined, " ")
}

// compactLine strips the separators plates and odometers are printed with.
func compactLine(line string) string {
	return reNonAlnum.ReplaceAllString(line, "")
}
