package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// dateTemplate is one calendar shape a date token may take. Templates that
// need a year get the context year appended before parsing.
type dateTemplate struct {
	name      string
	layouts   []string
	needsYear bool
}

var (
	dayMonthWords = dateTemplate{name: "day month", needsYear: true, layouts: []string{
		"2 Jan 2006", "2 January 2006", "2-Jan 2006", "2-January 2006",
	}}
	monthDayWords = dateTemplate{name: "month day", needsYear: true, layouts: []string{
		"Jan 2 2006", "January 2 2006",
	}}
	monthDayYearWords = dateTemplate{name: "month day year", layouts: []string{
		"Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "January 2 2006",
		"Jan 2,2006", "January 2,2006",
	}}
	dayMonthYear = dateTemplate{name: "day-month-year", layouts: []string{
		"2/1/2006", "2-1-2006", "2.1.2006", "2/1/06", "2-1-06", "2.1.06",
		"2-Jan-2006", "2-Jan-06", "2-January-2006",
		"2 Jan 2006", "2 January 2006", "2 Jan 06",
	}}
	yearMonthDay = dateTemplate{name: "year-month-day", layouts: []string{
		"2006-1-2", "2006/1/2", "2006.1.2",
	}}
	monthDayYear = dateTemplate{name: "month-day-year", layouts: []string{
		"1/2/2006", "1-2-2006", "1/2/06",
	}}
	dayMonthSlash = dateTemplate{name: "day/month", needsYear: true, layouts: []string{"2/1 2006"}}
	monthDaySlash = dateTemplate{name: "month/day", needsYear: true, layouts: []string{"1/2 2006"}}
)

// Templates are tried in order; the first valid calendar date wins. An
// all-numeric token is read day first unless that is not a valid date.
var dayFirstTemplates = []dateTemplate{
	dayMonthWords, monthDayWords, monthDayYearWords,
	dayMonthYear, yearMonthDay, monthDayYear,
	dayMonthSlash, monthDaySlash,
}

// monthFirstTemplates serve US card statements, which print MM/DD.
var monthFirstTemplates = []dateTemplate{
	dayMonthWords, monthDayWords, monthDayYearWords,
	monthDayYear, yearMonthDay, dayMonthYear,
	monthDaySlash, dayMonthSlash,
}

var (
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\b`)
	longSeptember = regexp.MustCompile(`(?i)\bsept\b`)
	spaceRun      = regexp.MustCompile(`\s+`)
	yearPattern   = regexp.MustCompile(`^\d{4}$`)
)

// DateNormalizer converts heterogeneous date tokens to yyyy-MM-dd. Now
// supplies the default year for yearless tokens when no context year is
// given. MonthFirst reads ambiguous numeric dates as MM/DD.
type DateNormalizer struct {
	Now        func() time.Time
	MonthFirst bool
}

var defaultDates = DateNormalizer{Now: time.Now}

// NormalizeDate formats token as yyyy-MM-dd, injecting contextYear into
// yearless tokens. Unrecognised tokens are returned unchanged.
func NormalizeDate(token, contextYear string) string {
	return defaultDates.Normalize(token, contextYear)
}

// ParseDate is NormalizeDate for callers that need the parsed value.
func ParseDate(token, contextYear string) (time.Time, bool) {
	return defaultDates.Parse(token, contextYear)
}

func (d DateNormalizer) Normalize(token, contextYear string) string {
	t, ok := d.Parse(token, contextYear)
	if !ok {
		return token
	}
	return t.Format(isoDate)
}

func (d DateNormalizer) Parse(token, contextYear string) (time.Time, bool) {
	s := cleanDateToken(token)
	if s == "" {
		return time.Time{}, false
	}
	year := contextYear
	if !yearPattern.MatchString(year) {
		now := time.Now
		if d.Now != nil {
			now = d.Now
		}
		year = strconv.Itoa(now().Year())
	}

	templates := dayFirstTemplates
	if d.MonthFirst {
		templates = monthFirstTemplates
	}
	for _, tmpl := range templates {
		candidate := s
		if tmpl.needsYear {
			candidate = s + " " + year
		}
		for _, layout := range tmpl.layouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func cleanDateToken(token string) string {
	s := strings.TrimSpace(token)
	s = strings.TrimRight(s, ".,;:")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = longSeptember.ReplaceAllString(s, "Sep")
	// "Apr. 8" and "8 Apr." read the same as without the dot.
	s = strings.ReplaceAll(s, ". ", " ")
	s = spaceRun.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, " ,", ",")
	return s
}

const monthName = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

// dateExpr matches one date token in any supported template. It is shared by
// the transaction line scanner and the statement period strategies.
const dateExpr = `(?:` +
	`\d{4}[/.-]\d{1,2}[/.-]\d{1,2}` +
	`|\d{1,2}[/.-]\d{1,2}[/.-](?:\d{4}|\d{2})` +
	`|\d{1,2}(?:st|nd|rd|th)?[ -]` + monthName + `(?:[ -](?:\d{4}|\d{2}\b))?` +
	`|` + monthName + `\s\d{1,2}(?:st|nd|rd|th)?(?:,?\s?(?:19|20)\d{2})?` +
	`|\d{1,2}/\d{1,2}` +
	`)`

// leadingDate matches a date token at the start of a line, followed by
// whitespace or end of line.
var leadingDate = regexp.MustCompile(`(?i)^\s*(` + dateExpr + `)(?:\s|$)`)

// splitLeadingDate returns the leading date token of a line and the rest of
// the line, or "" when the line does not start with a date.
func splitLeadingDate(line string) (date, rest string) {
	m := leadingDate.FindStringSubmatchIndex(line)
	if m == nil {
		return "", line
	}
	return strings.TrimSpace(line[m[2]:m[3]]), line[m[3]:]
}
