package extraction

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/vehicle-intake/constants"
)

// VINLength is the fixed length of a modern (1981+) VIN.
const VINLength = 17

var reVINRun = regexp.MustCompile(`[0-9A-HJ-NPR-Z]+`)

// vinWeights are the ISO 3779 position weights; position 9 holds the check digit itself.
var vinWeights = [VINLength]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

// vinValues is the check-digit transliteration table. I, O and Q never appear in a VIN.
var vinValues = map[byte]int{
	'0': 0, '1': 1, '2': 2, '3': 3, '4': 4, '5': 5, '6': 6, '7': 7, '8': 8, '9': 9,
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'P': 7, 'R': 9,
	'S': 2, 'T': 3, 'U': 4, 'V': 5, 'W': 6, 'X': 7, 'Y': 8, 'Z': 9,
}

// wmiLeads are first characters of commonly seen World Manufacturer Identifiers
// (North America, Japan, Korea, Germany, Europe).
const wmiLeads = "12345JKWYZ"

// vinMisreads maps letters OCR confuses with digits and that a VIN cannot contain.
var vinMisreads = strings.NewReplacer("I", "1", "O", "0", "Q", "0")

// VINCheckDigit computes the check character for a 17-character VIN.
// ok is false when the length is wrong or a character is outside the VIN alphabet.
func VINCheckDigit(vin string) (check byte, ok bool) {
	if len(vin) != VINLength {
		return 0, false
	}
	sum := 0
	for i := 0; i < VINLength; i++ {
		v, known := vinValues[vin[i]]
		if !known {
			return 0, false
		}
		sum += v * vinWeights[i]
	}
	rem := sum % 11
	if rem == 10 {
		return 'X', true
	}
	return byte('0' + rem), true
}

// ValidVIN reports whether vin is 17 VIN-alphabet characters with a matching check digit.
func ValidVIN(vin string) bool {
	check, ok := VINCheckDigit(vin)
	return ok && vin[8] == check
}

// IsVINAlphabet reports whether every character of s may appear in a VIN.
func IsVINAlphabet(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if _, ok := vinValues[s[i]]; !ok {
			return false
		}
	}
	return true
}

type vinCandidates struct {
	direct    []string // 17-char runs of the VIN alphabet
	corrected []string // 17-char words repaired from I/O/Q misreads
	words     []string
}

func collectVINCandidates(t Text) vinCandidates {
	var c vinCandidates
	seen := map[string]struct{}{}
	add := func(dst *[]string, v string) {
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		*dst = append(*dst, v)
	}

	for _, run := range reVINRun.FindAllString(t.Joined, -1) {
		if len(run) == VINLength {
			add(&c.direct, run)
		}
	}
	c.words = t.Words()
	for _, w := range c.words {
		if len(w) != VINLength || !strings.ContainsAny(w, "IOQ") {
			continue
		}
		fixed := vinMisreads.Replace(w)
		if len(fixed) == VINLength && IsVINAlphabet(fixed) {
			add(&c.corrected, fixed)
		}
	}
	return c
}

func firstCheckDigitValid(cands []string) (string, bool) {
	for _, v := range cands {
		if ValidVIN(v) {
			return v, true
		}
	}
	return "", false
}

func firstWMILead(cands []string) (string, bool) {
	for _, v := range cands {
		if strings.IndexByte(wmiLeads, v[0]) >= 0 {
			return v, true
		}
	}
	return "", false
}

func firstOf(cands []string) (string, bool) {
	if len(cands) == 0 {
		return "", false
	}
	return cands[0], true
}

// splitCheckDigitValid joins adjacent words split by a line break or a space in
// the plate print. Joined words are only trusted when the check digit holds.
func splitCheckDigitValid(words []string) (string, bool) {
	for i := 0; i+1 < len(words); i++ {
		a, b := words[i], words[i+1]
		if len(a) < 4 || len(b) < 4 || len(a)+len(b) != VINLength {
			continue
		}
		if joined := a + b; ValidVIN(joined) {
			return joined, true
		}
	}
	return "", false
}

type vinStage struct {
	method     Method
	confidence int
	pick       func(vinCandidates) (string, bool)
}

// vinStages run in order; the first stage that picks a candidate wins.
var vinStages = []vinStage{
	{MethodVINCheckDigit, ConfidenceCheckDigit, func(c vinCandidates) (string, bool) { return firstCheckDigitValid(c.direct) }},
	{MethodVINCheckDigitCorrected, ConfidenceCheckDigit, func(c vinCandidates) (string, bool) { return firstCheckDigitValid(c.corrected) }},
	{MethodVINCheckDigitSplit, ConfidenceCheckDigit, func(c vinCandidates) (string, bool) { return splitCheckDigitValid(c.words) }},
	{MethodVINWMIPrefix, ConfidenceWMIPrefix, func(c vinCandidates) (string, bool) { return firstWMILead(c.direct) }},
	{MethodVINWMIPrefixCorrected, ConfidenceWMIPrefix, func(c vinCandidates) (string, bool) { return firstWMILead(c.corrected) }},
	{MethodVINFirstCandidate, ConfidenceFirstVIN, func(c vinCandidates) (string, bool) { return firstOf(c.direct) }},
	{MethodVINFirstCorrected, ConfidenceFirstVIN, func(c vinCandidates) (string, bool) { return firstOf(c.corrected) }},
}

// ExtractVIN finds a 17-character VIN in raw OCR text. A failed check digit
// lowers confidence but does not disqualify a candidate.
func ExtractVIN(raw string) Result {
	text := Normalize(raw)
	if text.Empty() {
		return unreadable(constants.FieldVIN, raw)
	}
	cands := collectVINCandidates(text)
	for _, st := range vinStages {
		if v, ok := st.pick(cands); ok && len(v) == VINLength {
			return found(constants.FieldVIN, raw, v, st.confidence, st.method)
		}
	}
	return unreadable(constants.FieldVIN, raw)
}
