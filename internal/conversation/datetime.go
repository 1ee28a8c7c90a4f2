package conversation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day without a clock component.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// In returns midnight of the day in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays shifts the date by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

func (d Date) Before(other Date) bool {
	return d.In(time.UTC).Before(other.In(time.UTC))
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// German formats the date as DD.MM.YYYY.
func (d Date) German() string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, int(d.Month), d.Year)
}

// TimeOfDay is a wall-clock time.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Slot is the date/time candidate found in one utterance. Either half may be nil.
type Slot struct {
	Date *Date      `json:"date,omitempty"`
	Time *TimeOfDay `json:"time,omitempty"`
}

// Empty reports whether neither half was found.
func (s Slot) Empty() bool { return s.Date == nil && s.Time == nil }

// Complete reports whether both halves are present.
func (s Slot) Complete() bool { return s.Date != nil && s.Time != nil }

// At combines both halves into an instant in loc. ok is false for partial slots.
func (s Slot) At(loc *time.Location) (time.Time, bool) {
	if !s.Complete() {
		return time.Time{}, false
	}
	day := s.Date.In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(), s.Time.Hour, s.Time.Minute, 0, 0, day.Location()), true
}

// Merge fills the halves missing in s from other.
func (s Slot) Merge(other Slot) Slot {
	if s.Date == nil {
		s.Date = other.Date
	}
	if s.Time == nil {
		s.Time = other.Time
	}
	return s
}

// PreferredTimeLayout is how a complete slot is stored in the preferred time field.
const PreferredTimeLayout = "2006-01-02 15:04"

// FormatPreferredTime renders a complete slot in PreferredTimeLayout.
func FormatPreferredTime(s Slot) string {
	if !s.Complete() {
		return ""
	}
	return s.Date.String() + " " + s.Time.String()
}

// ParsePreferredTime reverses FormatPreferredTime.
func ParsePreferredTime(value string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(PreferredTimeLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateRule finds a calendar date in lower-cased text.
type DateRule interface {
	Name() string
	MatchDate(text string, today Date) (Date, bool)
}

// TimeRule finds a time of day in lower-cased text. A rule that recognises a time
// expression with an out-of-range hour or minute returns ErrTimeOutOfRange, which
// rejects the time for the whole utterance.
type TimeRule interface {
	Name() string
	MatchTime(text string) (TimeOfDay, bool, error)
}

var ErrTimeOutOfRange = errors.New("conversation: time out of range")

// wordRE matches w as a whole word, treating any letter (not only ASCII) as a word character.
func wordRE(w string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}])` + w + `(?:[^\p{L}]|$)`)
}

// RelativeDateRule resolves heute, morgen and übermorgen.
type RelativeDateRule struct{}

var (
	greetingMorningRE = regexp.MustCompile(`guten\s+morgen`)
	relativeDayRules  = []struct {
		re     *regexp.Regexp
		offset int
	}{
		{wordRE(`übermorgen`), 2},
		{wordRE(`heute`), 0},
		{wordRE(`morgen`), 1},
	}
)

func (RelativeDateRule) Name() string { return "relative" }

func (RelativeDateRule) MatchDate(text string, today Date) (Date, bool) {
	text = greetingMorningRE.ReplaceAllString(text, " ")
	for _, rule := range relativeDayRules {
		if rule.re.MatchString(text) {
			return today.AddDays(rule.offset), true
		}
	}
	return Date{}, false
}

// WeekdayRule resolves a German weekday name to its next occurrence strictly after today.
type WeekdayRule struct{}

var germanWeekdays = []struct {
	re  *regexp.Regexp
	day time.Weekday
}{
	{wordRE(`montags?`), time.Monday},
	{wordRE(`dienstags?`), time.Tuesday},
	{wordRE(`mittwochs?`), time.Wednesday},
	{wordRE(`donnerstags?`), time.Thursday},
	{wordRE(`freitags?`), time.Friday},
	{wordRE(`(?:samstags?|sonnabends?)`), time.Saturday},
	{wordRE(`sonntags?`), time.Sunday},
}

func (WeekdayRule) Name() string { return "weekday" }

func (WeekdayRule) MatchDate(text string, today Date) (Date, bool) {
	for _, wd := range germanWeekdays {
		if !wd.re.MatchString(text) {
			continue
		}
		add := int(wd.day) - int(today.Weekday())
		if add <= 0 {
			add += 7
		}
		return today.AddDays(add), true
	}
	return Date{}, false
}

// ExplicitDateRule resolves D.M., D.M.YY and D.M.YYYY. A bare D.M is only read as a
// date after "am", "den" or "zum" so that "10.30" stays a time.
type ExplicitDateRule struct{}

var (
	explicitDateRE = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})?`)
	anchoredDateRE = regexp.MustCompile(`(?:^|[^\p{L}])(?:am|den|zum)\s+(\d{1,2})\.(\d{1,2})(?:[^\d.]|$)`)
)

func (ExplicitDateRule) Name() string { return "explicit" }

func (ExplicitDateRule) MatchDate(text string, today Date) (Date, bool) {
	for _, m := range explicitDateRE.FindAllStringSubmatch(text, -1) {
		if d, ok := buildDate(m[1], m[2], m[3], today.Year); ok {
			return d, true
		}
	}
	for _, m := range anchoredDateRE.FindAllStringSubmatch(text, -1) {
		if d, ok := buildDate(m[1], m[2], "", today.Year); ok {
			return d, true
		}
	}
	return Date{}, false
}

// blankDates removes valid explicit dates from text so their digits are not read
// as a clock time ("23.10." is not 23:10). Spans that are not valid dates stay,
// which keeps "um 10.30." readable as a time.
func blankDates(text string, year int) string {
	for _, re := range []*regexp.Regexp{explicitDateRE, anchoredDateRE} {
		text = re.ReplaceAllStringFunc(text, func(span string) string {
			m := re.FindStringSubmatch(span)
			yearStr := ""
			if len(m) > 3 {
				yearStr = m[3]
			}
			if _, ok := buildDate(m[1], m[2], yearStr, year); ok {
				return strings.Repeat(" ", len(span))
			}
			return span
		})
	}
	return text
}

func buildDate(dayStr, monthStr, yearStr string, currentYear int) (Date, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return Date{}, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return Date{}, false
	}
	year := currentYear
	if yearStr != "" {
		year, err = strconv.Atoi(yearStr)
		if err != nil {
			return Date{}, false
		}
		if len(yearStr) == 2 {
			year += 2000
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false
	}
	// time.Date normalises 31.02. into March; reject instead.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return Date{}, false
	}
	return DateOf(t), true
}

// ClockTimeRule resolves H:MM and H.MM.
type ClockTimeRule struct{}

var clockTimeRE = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})[:.](\d{2})(?:[^\d]|$)`)

func (ClockTimeRule) Name() string { return "clock" }

func (ClockTimeRule) MatchTime(text string) (TimeOfDay, bool, error) {
	m := clockTimeRE.FindStringSubmatch(text)
	if m == nil {
		return TimeOfDay{}, false, nil
	}
	return buildTime(m[1], m[2])
}

// HourTimeRule resolves "H Uhr" as H:00.
type HourTimeRule struct{}

var hourTimeRE = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*uhr`)

func (HourTimeRule) Name() string { return "hour" }

func (HourTimeRule) MatchTime(text string) (TimeOfDay, bool, error) {
	m := hourTimeRE.FindStringSubmatch(text)
	if m == nil {
		return TimeOfDay{}, false, nil
	}
	return buildTime(m[1], "00")
}

func buildTime(hourStr, minuteStr string) (TimeOfDay, bool, error) {
	hour, herr := strconv.Atoi(hourStr)
	minute, merr := strconv.Atoi(minuteStr)
	if herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, true, ErrTimeOutOfRange
	}
	return TimeOfDay{Hour: hour, Minute: minute}, true, nil
}

// DateTimeParser runs the date and time rules in priority order and keeps the first hit of each.
type DateTimeParser struct {
	dateRules []DateRule
	timeRules []TimeRule
}

// NewDateTimeParser returns a parser with the German rule set.
func NewDateTimeParser() *DateTimeParser {
	return &DateTimeParser{
		dateRules: []DateRule{RelativeDateRule{}, WeekdayRule{}, ExplicitDateRule{}},
		timeRules: []TimeRule{ClockTimeRule{}, HourTimeRule{}},
	}
}

// Parse extracts a slot candidate from an utterance relative to now. Missing or
// invalid halves are nil.
func (p *DateTimeParser) Parse(utterance string, now time.Time) Slot {
	text := strings.ToLower(utterance)
	today := DateOf(now)

	var slot Slot
	for _, rule := range p.dateRules {
		if d, ok := rule.MatchDate(text, today); ok {
			slot.Date = &d
			break
		}
	}

	timeText := blankDates(text, today.Year)
	for _, rule := range p.timeRules {
		t, matched, err := rule.MatchTime(timeText)
		if err != nil {
			break
		}
		if matched {
			slot.Time = &t
			break
		}
	}
	return slot
}
