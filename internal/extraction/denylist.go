package extraction

import (
	"regexp"
	"strings"
)

// stateNames lists US states, DC and territories as printed on plates.
var stateNames = []string{
	"ALABAMA", "ALASKA", "ARIZONA", "ARKANSAS", "CALIFORNIA", "COLORADO", "CONNECTICUT",
	"DELAWARE", "FLORIDA", "GEORGIA", "HAWAII", "IDAHO", "ILLINOIS", "INDIANA", "IOWA",
	"KANSAS", "KENTUCKY", "LOUISIANA", "MAINE", "MARYLAND", "MASSACHUSETTS", "MICHIGAN",
	"MINNESOTA", "MISSISSIPPI", "MISSOURI", "MONTANA", "NEBRASKA", "NEVADA",
	"NEW HAMPSHIRE", "NEW JERSEY", "NEW MEXICO", "NEW YORK", "NORTH CAROLINA",
	"NORTH DAKOTA", "OHIO", "OKLAHOMA", "OREGON", "PENNSYLVANIA", "RHODE ISLAND",
	"SOUTH CAROLINA", "SOUTH DAKOTA", "TENNESSEE", "TEXAS", "UTAH", "VERMONT", "VIRGINIA",
	"WASHINGTON", "WEST VIRGINIA", "WISCONSIN", "WYOMING",
	"DISTRICT OF COLUMBIA", "PUERTO RICO", "GUAM",
}

var stateAbbreviations = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {}, "DE": {}, "FL": {},
	"GA": {}, "HI": {}, "ID": {}, "IL": {}, "IN": {}, "IA": {}, "KS": {}, "KY": {}, "LA": {},
	"ME": {}, "MD": {}, "MA": {}, "MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {},
	"NV": {}, "NH": {}, "NJ": {}, "NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {}, "OK": {},
	"OR": {}, "PA": {}, "RI": {}, "SC": {}, "SD": {}, "TN": {}, "TX": {}, "UT": {}, "VT": {},
	"VA": {}, "WA": {}, "WV": {}, "WI": {}, "WY": {}, "DC": {}, "PR": {}, "GU": {},
}

// stickerWords is registration-sticker and frame vocabulary.
var stickerWords = []string{
	"MONTH", "YEAR", "EXPIRES", "EXPIRE", "EXP", "REGISTRATION", "REG", "STICKER",
	"VALID", "DMV",
}

var monthWords = []string{
	"JANUARY", "FEBRUARY", "MARCH", "APRIL", "MAY", "JUNE", "JULY", "AUGUST",
	"SEPTEMBER", "OCTOBER", "NOVEMBER", "DECEMBER",
	"JAN", "FEB", "MAR", "APR", "JUN", "JUL", "AUG", "SEP", "SEPT", "OCT", "NOV", "DEC",
}

var reBareYear = regexp.MustCompile(`^(?:19|20)[0-9]{2}$`)

// denyWords holds every single-word denylist entry; denyPhrases holds multi-word state names.
var denyWords, denyPhrases = buildDenylist()

func buildDenylist() (map[string]struct{}, []string) {
	words := map[string]struct{}{}
	var phrases []string
	for _, group := range [][]string{stateNames, stickerWords, monthWords} {
		for _, w := range group {
			if strings.Contains(w, " ") {
				phrases = append(phrases, w)
				continue
			}
			words[w] = struct{}{}
		}
	}
	return words, phrases
}

// isDenylistedLine reports whether a normalized line is plate chrome rather than a plate.
func isDenylistedLine(line string) bool {
	clean := strings.TrimSpace(reNonAlnum.ReplaceAllString(line, " "))
	if clean == "" {
		return true
	}
	if _, ok := stateAbbreviations[clean]; ok {
		return true
	}
	if reBareYear.MatchString(clean) {
		return true
	}
	for _, w := range strings.Fields(clean) {
		if _, ok := denyWords[w]; ok {
			return true
		}
	}
	padded := " " + clean + " "
	for _, p := range denyPhrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// isDenylistedWord is the word-level check the whole-text fallback scan uses.
func isDenylistedWord(w string) bool {
	if _, ok := denyWords[w]; ok {
		return true
	}
	return reBareYear.MatchString(w)
}
