package extraction

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/vehicle-intake/constants"
)

var (
	reDigitRun   = regexp.MustCompile(`[0-9]+`)
	reHas4Digits = regexp.MustCompile(`[0-9]{4,}`)
	reDate       = regexp.MustCompile(`\b[0-9]{1,2}[/.-][0-9]{1,2}[/.-][0-9]{2,4}\b`)
	reClock      = regexp.MustCompile(`\b[0-9]{1,2}:[0-9]{2}(?::[0-9]{2})?\b`)
	reThousands  = regexp.MustCompile(`\b[0-9]{1,3}(?:[,.][0-9]{3})+\b`)
	reSeparator  = regexp.MustCompile(`[,.]`)
)

// odometerKeywords label dashboard readouts that sit next to, but are not, the mileage.
var odometerKeywords = map[string]struct{}{
	"ODO": {}, "ODOMETER": {}, "MILES": {}, "MI": {}, "MPH": {}, "KM": {}, "KMH": {},
	"TRIP": {}, "RESET": {}, "TOTAL": {}, "ENGINE": {}, "HOURS": {}, "AVG": {}, "MAX": {},
	"RANGE": {}, "TEMP": {},
}

const (
	mileageMinDigits = 4
	mileageMaxDigits = 7
	fallbackPenalty  = 10
)

type mileageCandidate struct {
	digits string
	value  int
	line   int
	score  int
}

// hasOdometerKeyword reports whether any word of line is a dashboard label.
func hasOdometerKeyword(line string) bool {
	for _, w := range strings.Fields(reNonAlnum.ReplaceAllString(line, " ")) {
		if _, ok := odometerKeywords[w]; ok {
			return true
		}
	}
	return false
}

// filterMileageLines drops label-only lines. A line with a keyword and a
// 4+ digit run is kept, since odometers print "ODO 87432".
func filterMileageLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		if hasOdometerKeyword(ln) && !reHas4Digits.MatchString(ln) {
			continue
		}
		out = append(out, ln)
	}
	return out
}

// scrubDateTime removes dashboard clocks and dates so their digits are not read as mileage.
func scrubDateTime(line string) string {
	line = reDate.ReplaceAllString(line, " ")
	return reClock.ReplaceAllString(line, " ")
}

// collapseThousands turns "87,432" or "87.432" into "87432".
func collapseThousands(line string) string {
	return reThousands.ReplaceAllStringFunc(line, func(m string) string {
		return reSeparator.ReplaceAllString(m, "")
	})
}

// prepareMileageLines rewrites each line into the form candidates are read from.
func prepareMileageLines(lines []string, scrub bool) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		if scrub {
			ln = scrubDateTime(ln)
		}
		out[i] = collapseThousands(ln)
	}
	return out
}

func mileageCandidatesFrom(lines []string) []mileageCandidate {
	var out []mileageCandidate
	for i, ln := range lines {
		for _, run := range reDigitRun.FindAllString(ln, -1) {
			if len(run) < mileageMinDigits || len(run) > mileageMaxDigits {
				continue
			}
			v, err := strconv.Atoi(run)
			if err != nil {
				continue
			}
			out = append(out, mileageCandidate{digits: run, value: v, line: i})
		}
	}
	return out
}

func lengthScore(n int) int {
	switch n {
	case 5:
		return 30
	case 6:
		return 25
	case 4:
		return 15
	case 7:
		return 10
	}
	return 0
}

func rangeScore(v int) int {
	switch {
	case v >= 10000 && v <= 300000:
		return 40
	case v >= 5000 && v <= 500000:
		return 25
	case v >= 1000 && v <= 999999:
		return 10
	}
	return 0
}

func yearPenalty(v int) int {
	if v >= 1900 && v <= 2030 {
		return -50
	}
	return 0
}

func magnitudePenalty(v int) int {
	if v < 1000 || v > 999999 {
		return -30
	}
	return 0
}

func roundThousandsBonus(v int) int {
	if v > 0 && v%1000 == 0 {
		return 5
	}
	return 0
}

func isRepeatedChar(digits string) bool {
	if len(digits) < 2 {
		return false
	}
	return strings.Count(digits, digits[:1]) == len(digits)
}

func isSequentialDigits(digits string) bool {
	if len(digits) < mileageMinDigits {
		return false
	}
	step := int(digits[1]) - int(digits[0])
	if step != 1 && step != -1 {
		return false
	}
	for i := 2; i < len(digits); i++ {
		if int(digits[i])-int(digits[i-1]) != step {
			return false
		}
	}
	return true
}

func degeneratePenalty(digits string) int {
	if isRepeatedChar(digits) || isSequentialDigits(digits) {
		return -80
	}
	return 0
}

// scoreMileage sums every scoring stage for one digit run.
func scoreMileage(digits string, value int) int {
	return lengthScore(len(digits)) +
		rangeScore(value) +
		yearPenalty(value) +
		magnitudePenalty(value) +
		roundThousandsBonus(value) +
		degeneratePenalty(digits)
}

// bestMileage returns the highest-scoring candidate; ties keep the earliest.
func bestMileage(cands []mileageCandidate) (mileageCandidate, bool) {
	var best mileageCandidate
	ok := false
	for _, c := range cands {
		c.score = scoreMileage(c.digits, c.value)
		if !ok || c.score > best.score {
			best, ok = c, true
		}
	}
	return best, ok
}

func mileageConfidence(score int, fallback bool) int {
	conf := score
	if conf > ConfidenceMileageMax {
		conf = ConfidenceMileageMax
	}
	if fallback {
		conf -= fallbackPenalty
	}
	if conf < 1 {
		conf = 1
	}
	return conf
}

// ExtractMileage picks the most plausible odometer reading from raw OCR text.
// The value is the digit string as read, without separators.
func ExtractMileage(raw string) Result {
	text := Normalize(raw)
	if text.Empty() {
		return unreadable(constants.FieldMileage, raw)
	}

	method := MethodMileageScored
	fallback := false
	cands := mileageCandidatesFrom(filterMileageLines(prepareMileageLines(text.Lines, true)))
	if len(cands) == 0 {
		method, fallback = MethodMileageScoredFallback, true
		cands = mileageCandidatesFrom(prepareMileageLines(text.Lines, false))
	}

	best, ok := bestMileage(cands)
	if !ok || best.score <= 0 {
		return unreadable(constants.FieldMileage, raw)
	}
	return found(constants.FieldMileage, raw, best.digits, mileageConfidence(best.score, fallback), method)
}
