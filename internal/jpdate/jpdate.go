// Package jpdate converts Japanese era (wareki) date strings to ISO calendar
// dates. Supported eras: Reiwa, Heisei, Showa, Taisho, Meiji, in long Latin,
// single-letter, and kanji spellings, including the Gannen first-year marker.
package jpdate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// eraStartYears maps each era to the Gregorian year of its first year.
var eraStartYears = map[string]int{
	"Reiwa":  2019,
	"Heisei": 1989,
	"Showa":  1926,
	"Taisho": 1912,
	"Meiji":  1868,
}

var (
	// Long spellings before single letters so "Reiwa" never matches as "R".
	eraYearExpr = regexp.MustCompile(
		`(?i)(Reiwa|Heisei|Showa|Taisho|Meiji|令和|平成|昭和|大正|明治|[RHSTM])\s*(\d+|Gannen|元年)`)
	parentheticalExpr = regexp.MustCompile(`\(\d{4}[^)]*\)`)
	numberExpr        = regexp.MustCompile(`\d+`)
)

// ToISO parses an era date possibly embedded in surrounding text and returns
// it as YYYY-MM-DD, or nil when no era+year is found or the resulting
// calendar date is invalid. Month and day default to 1 when absent; any
// separators between the numeric tokens are tolerated.
func ToISO(dateStr string) *string {
	if dateStr == "" {
		return nil
	}

	// NFKC folds full-width digits and parentheses to ASCII up front.
	clean := norm.NFKC.String(dateStr)

	loc := eraYearExpr.FindStringSubmatchIndex(clean)
	if loc == nil {
		return nil
	}
	match := eraYearExpr.FindStringSubmatch(clean)

	year, ok := resolveYear(match[1], match[2])
	if !ok {
		return nil
	}

	// Ignore a parenthetical Gregorian-year aside, e.g. "(2020)".
	remaining := parentheticalExpr.ReplaceAllString(clean[loc[1]:], "")

	month, day := 1, 1
	numbers := numberExpr.FindAllString(remaining, 2)
	if len(numbers) >= 1 {
		month, _ = strconv.Atoi(numbers[0])
	}
	if len(numbers) >= 2 {
		day, _ = strconv.Atoi(numbers[1])
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return nil
	}
	iso := d.Format("2006-01-02")
	return &iso
}

// Year resolves an era-qualified or plain numeric year string to a Gregorian
// year, e.g. "R1" -> 2019, "令和元年" -> 2019, "2020" -> 2020. Returns nil
// for anything unparseable.
func Year(yearStr string) *int {
	if yearStr == "" {
		return nil
	}
	clean := norm.NFKC.String(yearStr)

	if match := eraYearExpr.FindStringSubmatch(clean); match != nil {
		if y, ok := resolveYear(match[1], match[2]); ok {
			return &y
		}
		return nil
	}

	if digits := numberExpr.FindString(clean); digits != "" {
		if y, err := strconv.Atoi(digits); err == nil {
			return &y
		}
	}
	return nil
}

func resolveYear(eraToken, yearToken string) (int, bool) {
	start, ok := eraStartYears[canonicalEra(eraToken)]
	if !ok {
		return 0, false
	}

	offset := 0
	if !isGannen(yearToken) {
		n, err := strconv.Atoi(yearToken)
		if err != nil {
			return 0, false
		}
		offset = n - 1
	}
	return start + offset, true
}

func canonicalEra(token string) string {
	switch token {
	case "令和":
		return "Reiwa"
	case "平成":
		return "Heisei"
	case "昭和":
		return "Showa"
	case "大正":
		return "Taisho"
	case "明治":
		return "Meiji"
	}
	switch strings.ToUpper(token[:1]) {
	case "R":
		return "Reiwa"
	case "H":
		return "Heisei"
	case "S":
		return "Showa"
	case "T":
		return "Taisho"
	case "M":
		return "Meiji"
	default:
		return ""
	}
}

func isGannen(token string) bool {
	return token == "元年" || strings.EqualFold(token, "Gannen")
}
