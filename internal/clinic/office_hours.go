package clinic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Window is an opening window in minutes since midnight. End is exclusive.
type Window struct {
	Start int
	End   int
}

// Contains reports whether minute lies in [Start, End).
func (w Window) Contains(minute int) bool {
	return minute >= w.Start && minute < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

// OfficeHours maps weekdays to their bookable window. Days without a window are closed.
type OfficeHours struct {
	windows  map[time.Weekday]Window
	fallback bool
}

var workWeek = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// DefaultOfficeHours is Monday to Friday, 08:00 to 19:00.
func DefaultOfficeHours() OfficeHours {
	h := OfficeHours{windows: make(map[time.Weekday]Window, len(workWeek)), fallback: true}
	for _, d := range workWeek {
		h.windows[d] = Window{Start: 8 * 60, End: 19 * 60}
	}
	return h
}

// IsBookable parses hoursDescription and checks t against it.
func IsBookable(t time.Time, hoursDescription string) bool {
	return ParseOfficeHours(hoursDescription).IsBookable(t)
}

// IsBookable reports whether t falls on an open day inside that day's window.
func (h OfficeHours) IsBookable(t time.Time) bool {
	w, ok := h.windows[t.Weekday()]
	if !ok {
		return false
	}
	return w.Contains(t.Hour()*60 + t.Minute())
}

// IsOpenDay reports whether the clinic has any window on wd.
func (h OfficeHours) IsOpenDay(wd time.Weekday) bool {
	_, ok := h.windows[wd]
	return ok
}

// AllowsTimeOfDay reports whether some open day accepts the given minute of day.
func (h OfficeHours) AllowsTimeOfDay(minute int) bool {
	for _, w := range h.windows {
		if w.Contains(minute) {
			return true
		}
	}
	return false
}

// WindowFor returns the window for wd.
func (h OfficeHours) WindowFor(wd time.Weekday) (Window, bool) {
	w, ok := h.windows[wd]
	return w, ok
}

// IsFallback reports whether the description could not be parsed and the default applies.
func (h OfficeHours) IsFallback() bool {
	return h.fallback
}

var weekOrder = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}

var germanDayAbbrev = map[time.Weekday]string{
	time.Monday:    "Mo",
	time.Tuesday:   "Di",
	time.Wednesday: "Mi",
	time.Thursday:  "Do",
	time.Friday:    "Fr",
	time.Saturday:  "Sa",
	time.Sunday:    "So",
}

// Describe renders the hours in German, grouping consecutive days with equal windows:
// "Mo-Fr 08:00-19:00 Uhr".
func (h OfficeHours) Describe() string {
	var parts []string
	for i := 0; i < len(weekOrder); {
		w, ok := h.windows[weekOrder[i]]
		if !ok {
			i++
			continue
		}
		j := i
		for j+1 < len(weekOrder) {
			next, ok := h.windows[weekOrder[j+1]]
			if !ok || next != w {
				break
			}
			j++
		}
		days := germanDayAbbrev[weekOrder[i]]
		if j > i {
			days += "-" + germanDayAbbrev[weekOrder[j]]
		}
		parts = append(parts, days+" "+w.String()+" Uhr")
		i = j + 1
	}
	if len(parts) == 0 {
		return "nach Vereinbarung"
	}
	return strings.Join(parts, ", ")
}

const dayAlternation = `montag|dienstag|mittwoch|donnerstag|freitag|samstag|sonntag|` +
	`monday|tuesday|wednesday|thursday|friday|saturday|sunday|` +
	`mon|tue|wed|thu|fri|sat|sun|mo|di|mi|do|fr|sa|so`

var (
	segmentSplitRE = regexp.MustCompile(`[;,\n]+`)
	dayRangeRE     = regexp.MustCompile(`(?:^|[^\p{L}])(` + dayAlternation + `)\.?\s*(?:-|bis|to|through|thru)\s*(` + dayAlternation + `)(?:[^\p{L}]|$)`)
	hourRangeRE    = regexp.MustCompile(`(\d{1,2})(?:[:.](\d{2}))?\s*(a\.m\.|p\.m\.|am|pm)?\s*(?:uhr)?\s*(?:-|bis|to|until)\s*(\d{1,2})(?:[:.](\d{2}))?\s*(a\.m\.|p\.m\.|am|pm)?`)
	dashReplacer   = strings.NewReplacer("–", "-", "—", "-")
)

var dayTokens = map[string]time.Weekday{
	"montag": time.Monday, "monday": time.Monday, "mon": time.Monday, "mo": time.Monday,
	"dienstag": time.Tuesday, "tuesday": time.Tuesday, "tue": time.Tuesday, "di": time.Tuesday,
	"mittwoch": time.Wednesday, "wednesday": time.Wednesday, "wed": time.Wednesday, "mi": time.Wednesday,
	"donnerstag": time.Thursday, "thursday": time.Thursday, "thu": time.Thursday, "do": time.Thursday,
	"freitag": time.Friday, "friday": time.Friday, "fri": time.Friday, "fr": time.Friday,
	"samstag": time.Saturday, "saturday": time.Saturday, "sat": time.Saturday, "sa": time.Saturday,
	"sonntag": time.Sunday, "sunday": time.Sunday, "sun": time.Sunday, "so": time.Sunday,
}

// ParseOfficeHours reads free-text opening hours such as "Mo-Fr 8 bis 18 Uhr, Sa 9-13 Uhr"
// or "Monday to Friday 8am to 7pm". Segments without days apply to Monday to Friday.
// Text without any hour range yields DefaultOfficeHours.
func ParseOfficeHours(description string) OfficeHours {
	text := dashReplacer.Replace(strings.ToLower(description))
	h := OfficeHours{windows: make(map[time.Weekday]Window)}

	var pendingDays []time.Weekday
	for _, segment := range segmentSplitRE.Split(text, -1) {
		days := segmentDays(segment)
		window, ok := segmentWindow(segment)
		if !ok {
			pendingDays = append(pendingDays, days...)
			continue
		}
		days = append(days, pendingDays...)
		pendingDays = nil
		if len(days) == 0 {
			days = workWeek
		}
		for _, d := range days {
			if _, set := h.windows[d]; !set {
				h.windows[d] = window
			}
		}
	}

	if len(h.windows) == 0 {
		return DefaultOfficeHours()
	}
	return h
}

func segmentDays(segment string) []time.Weekday {
	if strings.Contains(segment, "täglich") || strings.Contains(segment, "daily") {
		return append([]time.Weekday(nil), weekOrder...)
	}

	var days []time.Weekday
	for _, m := range dayRangeRE.FindAllStringSubmatch(segment, -1) {
		from, to := dayTokens[normalizeDayToken(m[1])], dayTokens[normalizeDayToken(m[2])]
		days = append(days, expandDayRange(from, to)...)
	}
	if len(days) > 0 {
		return days
	}

	words := strings.FieldsFunc(segment, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if d, ok := dayTokens[w]; ok {
			days = append(days, d)
		}
	}
	return days
}

func normalizeDayToken(token string) string {
	return strings.TrimSuffix(token, ".")
}

// expandDayRange walks from..to in Monday-first order, wrapping past Sunday.
func expandDayRange(from, to time.Weekday) []time.Weekday {
	start, end := weekIndex(from), weekIndex(to)
	var out []time.Weekday
	for i := start; ; i = (i + 1) % len(weekOrder) {
		out = append(out, weekOrder[i])
		if i == end {
			break
		}
	}
	return out
}

func weekIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func segmentWindow(segment string) (Window, bool) {
	m := hourRangeRE.FindStringSubmatch(segment)
	if m == nil {
		return Window{}, false
	}
	startAMPM := normalizeAMPM(m[3])
	endAMPM := normalizeAMPM(m[6])

	end, ok := toMinutes(m[4], m[5], endAMPM)
	if !ok {
		return Window{}, false
	}

	var start int
	switch {
	case startAMPM != "":
		start, ok = toMinutes(m[1], m[2], startAMPM)
	case endAMPM != "":
		// "5-6pm" shares the suffix, "9-5pm" does not.
		start, ok = toMinutes(m[1], m[2], endAMPM)
		if ok && start >= end {
			start, ok = toMinutes(m[1], m[2], "am")
		}
	default:
		start, ok = toMinutes(m[1], m[2], "")
		// "9 to 5" means 17:00.
		if ok && end <= start && end <= 12*60 {
			end += 12 * 60
		}
	}
	if !ok || start >= end {
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}

func normalizeAMPM(s string) string {
	switch strings.ReplaceAll(s, ".", "") {
	case "am":
		return "am"
	case "pm":
		return "pm"
	default:
		return ""
	}
}

func toMinutes(hourStr, minuteStr, ampm string) (int, bool) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0, false
	}
	minute := 0
	if minuteStr != "" {
		if minute, err = strconv.Atoi(minuteStr); err != nil {
			return 0, false
		}
	}
	if ampm != "" {
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if ampm == "pm" && hour != 12 {
			hour += 12
		} else if ampm == "am" && hour == 12 {
			hour = 0
		}
	}
	if minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, false
	}
	return hour*60 + minute, true
}
