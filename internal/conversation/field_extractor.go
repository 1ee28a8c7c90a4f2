package conversation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Field names one of the four values a lead needs.
type Field string

const (
	FieldName          Field = "name"
	FieldPhone         Field = "phone"
	FieldReason        Field = "reason"
	FieldPreferredTime Field = "preferredTime"
)

// RequiredFields lists the lead fields in the order the caller is asked for them.
var RequiredFields = []Field{FieldName, FieldPhone, FieldReason, FieldPreferredTime}

// Urgency classifies how soon the clinic should call back.
type Urgency string

const (
	UrgencyUrgent Urgency = "urgent"
	UrgencyNormal Urgency = "normal"
)

// Extraction holds the candidates found in one utterance. Empty strings mean not found.
type Extraction struct {
	Name   string
	Phone  string
	Reason string
	Slot   Slot
}

// Fields returns the non-empty candidates keyed by field. The preferred time is only
// present when the slot is complete.
func (e Extraction) Fields() map[Field]string {
	out := make(map[Field]string, len(RequiredFields))
	if e.Name != "" {
		out[FieldName] = e.Name
	}
	if e.Phone != "" {
		out[FieldPhone] = e.Phone
	}
	if e.Reason != "" {
		out[FieldReason] = e.Reason
	}
	if v := FormatPreferredTime(e.Slot); v != "" {
		out[FieldPreferredTime] = v
	}
	return out
}

// FieldExtractor pulls lead fields out of free text with anchored patterns first and
// looser fallbacks second. It never guesses: no match leaves the field empty.
type FieldExtractor struct {
	dates *DateTimeParser
}

func NewFieldExtractor(dates *DateTimeParser) *FieldExtractor {
	if dates == nil {
		dates = NewDateTimeParser()
	}
	return &FieldExtractor{dates: dates}
}

// Extract runs every extractor over text.
func (x *FieldExtractor) Extract(text string, now time.Time) Extraction {
	return Extraction{
		Name:   ExtractName(text),
		Phone:  ExtractPhone(text),
		Reason: ExtractReason(text),
		Slot:   x.dates.Parse(text, now),
	}
}

const nameWordPattern = `[\p{L}][\p{L}\p{M}'-]*`

var (
	namePhrasePattern = nameWordPattern + `(?:\s+` + nameWordPattern + `){0,3}`
	nameAnchorRE      = regexp.MustCompile(`(?i)(?:ich\s+hei(?:ß|ss)e|mein\s+name\s+ist|mein\s+name\s*:|(?:^|[^\p{L}])name\s*[:-]|hier\s+(?:ist|spricht)|my\s+name\s+is|this\s+is)\s*(` + namePhrasePattern + `)`)
	namePairRE        = regexp.MustCompile(`(?:^|[^\p{L}])(\p{Lu}[\p{Ll}\p{M}'-]+)\s+(\p{Lu}[\p{Ll}\p{M}'-]+)(?:[^\p{L}]|$)`)
)

// ExtractName finds a caller name after an anchor ("ich heiße", "mein Name ist") or,
// failing that, the first pair of capitalised words that are not ordinary vocabulary.
func ExtractName(text string) string {
	if m := nameAnchorRE.FindStringSubmatch(text); m != nil {
		if parts := extractNameParts(m[1]); len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	for _, m := range namePairRE.FindAllStringSubmatch(text, -1) {
		first, last := m[1], m[2]
		if looksLikeNameWord(first) && looksLikeNameWord(last) && !isDomainWord(first) && !isDomainWord(last) {
			return capitalizeNameWord(first) + " " + capitalizeNameWord(last)
		}
	}
	return ""
}

func extractNameParts(raw string) []string {
	var parts []string
	for _, word := range strings.Fields(raw) {
		lower := strings.ToLower(word)
		if len(parts) == 0 && nameTitles[lower] {
			continue
		}
		if !looksLikeNameWord(word) || isDomainWord(word) {
			break
		}
		parts = append(parts, capitalizeNameWord(word))
		if len(parts) == 3 {
			break
		}
	}
	return parts
}

var nameTitles = map[string]bool{"frau": true, "herr": true, "dr": true, "dr.": true}

func looksLikeNameWord(word string) bool {
	count := utf8.RuneCountInString(word)
	if count < 2 || count > 30 {
		return false
	}
	firstRune, _ := utf8.DecodeRuneInString(word)
	if !unicode.IsLetter(firstRune) {
		return false
	}
	return !isCommonWord(word)
}

func capitalizeNameWord(word string) string {
	if word == "" {
		return ""
	}
	firstRune, size := utf8.DecodeRuneInString(word)
	if firstRune == utf8.RuneError || size == 0 {
		return word
	}
	return strings.ToUpper(string(firstRune)) + strings.ToLower(word[size:])
}

// Rules are stateless, so one parser is shared across turns.
var domainDateParser = NewDateTimeParser()

// isDomainWord reports words that carry appointment meaning and therefore cannot be a name.
func isDomainWord(word string) bool {
	lower := strings.ToLower(word)
	if ExtractReason(lower) != "" || containsUrgencyKeyword(lower) {
		return true
	}
	if domainDateParser.Parse(lower, time.Time{}).Date != nil {
		return true
	}
	return false
}

var commonWords = map[string]bool{
	// German
	"ich": true, "bin": true, "und": true, "oder": true, "der": true, "die": true, "das": true,
	"ein": true, "eine": true, "einen": true, "nicht": true, "mit": true, "von": true, "zu": true,
	"am": true, "um": true, "im": true, "in": true, "an": true, "auf": true, "für": true,
	"habe": true, "hätte": true, "möchte": true, "würde": true, "gerne": true, "gern": true,
	"bitte": true, "danke": true, "hallo": true, "guten": true, "tag": true, "abend": true,
	"termin": true, "termine": true, "telefon": true, "telefonnummer": true, "nummer": true,
	"handy": true, "uhr": true, "wegen": true, "ist": true, "sie": true, "wir": true,
	"mein": true, "meine": true, "name": true, "hier": true, "mal": true, "ja": true,
	"nein": true, "noch": true, "auch": true, "so": true, "aus": true, "bei": true,
	"praxis": true, "zahnarzt": true, "zahnärztin": true, "zahn": true, "zähne": true,
	"frau": true, "herr": true, "es": true, "geht": true, "wann": true, "wie": true,
	"was": true, "vielen": true, "dank": true, "leider": true, "schon": true, "sehr": true,
	"brauche": true, "bräuchte": true, "kann": true, "können": true, "passt": true,
	"vormittag": true, "nachmittag": true, "woche": true, "nächste": true, "nächsten": true,
	"starke": true, "stark": true, "seit": true, "gestern": true, "patient": true, "patientin": true,
	"liebe": true, "lieber": true, "grüße": true, "gruß": true, "freundliche": true, "freundlichen": true,
	"zahnarztpraxis": true, "rezeption": true, "entschuldigung": true, "okay": true, "super": true,
	// English
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true, "you": true,
	"my": true, "is": true, "this": true, "hi": true, "hello": true, "thanks": true, "please": true,
	"phone": true, "appointment": true, "tomorrow": true, "today": true,
}

func isCommonWord(word string) bool {
	return commonWords[strings.ToLower(word)]
}

var (
	phonePattern  = `(\+?\d[\d\s/()-]{4,}\d)`
	phoneAnchorRE = regexp.MustCompile(`(?i)(?:telefon(?:nummer)?|tel\.?|handy(?:nummer)?|mobil(?:nummer)?|rückrufnummer|nummer|erreichbar\s+unter|erreichen\s+(?:sie\s+mich\s+)?unter|reach\s+me\s+at|phone(?:\s+number)?)\s*(?:ist|is|lautet)?\s*:?\s*` + phonePattern)
	phoneLooseRE  = regexp.MustCompile(`(?:^|[^\d])` + phonePattern)
	timeSpanRE    = regexp.MustCompile(`(?i)\d{1,2}\s*uhr|\d{1,2}:\d{2}`)
)

// leapYear lets 29.02. count as a date when blanking dates out of phone candidates.
const leapYear = 2028

// ExtractPhone finds a phone number after an anchor ("Telefon", "erreichbar unter") or,
// failing that, the first digit-heavy run with 6 to 15 digits. The result keeps only
// digits and a leading plus.
func ExtractPhone(text string) string {
	cleaned := timeSpanRE.ReplaceAllStringFunc(text, func(s string) string {
		return strings.Repeat(" ", len(s))
	})
	cleaned = blankDates(strings.ToLower(cleaned), leapYear)

	if m := phoneAnchorRE.FindStringSubmatch(cleaned); m != nil {
		if phone := normalizePhone(m[1]); phone != "" {
			return phone
		}
	}
	for _, m := range phoneLooseRE.FindAllStringSubmatch(cleaned, -1) {
		if phone := normalizePhone(m[1]); phone != "" {
			return phone
		}
	}
	return ""
}

func normalizePhone(raw string) string {
	var b strings.Builder
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "+") {
		b.WriteByte('+')
	}
	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			digits++
		}
	}
	if digits < 6 || digits > 15 {
		return ""
	}
	return b.String()
}

var reasonCatalog = []struct {
	re    *regexp.Regexp
	label string
}{
	{wordRE(`zahnschmerz\p{L}*`), "Zahnschmerzen"},
	{wordRE(`weisheitsz[aä]hn\p{L}*`), "Weisheitszahn"},
	{wordRE(`wurzelbehandlung\p{L}*`), "Wurzelbehandlung"},
	{regexp.MustCompile(`zahn\s+(?:ist\s+)?abgebrochen|abgebrochene[nr]?\s+zahn`), "Abgebrochener Zahn"},
	{wordRE(`zahnfleisch\p{L}*`), "Zahnfleischbeschwerden"},
	{wordRE(`(?:zahnreinigung|prophylaxe|pzr)`), "Zahnreinigung"},
	{wordRE(`(?:kontrolle|kontrolluntersuchung|vorsorge\p{L}*|check-?up|routineuntersuchung)`), "Kontrolluntersuchung"},
	{wordRE(`(?:füllung|plombe|karies)`), "Füllung"},
	{wordRE(`(?:krone|brücke|zahnersatz|prothese)`), "Zahnersatz"},
	{wordRE(`implantat\p{L}*`), "Implantat"},
	{wordRE(`(?:bleaching|aufhellung)`), "Bleaching"},
	{wordRE(`(?:zahnspange|aligner|kieferorthop\p{L}*)`), "Kieferorthopädie"},
	{wordRE(`(?:abszess|schwellung|geschwollen\p{L}*)`), "Schwellung"},
	{wordRE(`notfall`), "Notfall"},
	{wordRE(`schmerz\p{L}*`), "Schmerzen"},
	{wordRE(`(?:beratung|zweitmeinung)`), "Beratung"},
}

var reasonAnchorRE = regexp.MustCompile(`(?i)(?:grund|anliegen|reason)\s*:\s*([^\n.;]{2,80})`)

// ExtractReason maps the utterance to a visit reason from the clinic's catalogue, or
// takes the text after "Grund:" verbatim.
func ExtractReason(text string) string {
	if m := reasonAnchorRE.FindStringSubmatch(text); m != nil {
		if reason := strings.TrimSpace(m[1]); reason != "" {
			return reason
		}
	}
	lower := strings.ToLower(text)
	for _, entry := range reasonCatalog {
		if entry.re.MatchString(lower) {
			return entry.label
		}
	}
	return ""
}

var urgencyKeywords = []string{
	"schmerz", "notfall", "dringend", "akut", "blut", "geschwollen", "schwellung",
	"abszess", "eiter", "unfall", "abgebrochen", "fieber", "unerträglich",
	"pain", "emergency", "urgent", "bleeding", "swollen",
}

func containsUrgencyKeyword(lower string) bool {
	for _, kw := range urgencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ClassifyUrgency is a membership test over the reason and the full conversation text.
// Any pain or emergency keyword means urgent, otherwise normal.
func ClassifyUrgency(reason, fullText string) Urgency {
	if containsUrgencyKeyword(strings.ToLower(reason)) || containsUrgencyKeyword(strings.ToLower(fullText)) {
		return UrgencyUrgent
	}
	return UrgencyNormal
}

var (
	bookingSubstrings = []string{"termin", "vereinbaren", "buchen", "möchte", "kommen"}
	bookingWords      = map[string]bool{"um": true, "uhr": true}
)

// HasBookingIntent reports whether the caller is asking for an appointment.
func HasBookingIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range bookingSubstrings {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if bookingWords[w] {
			return true
		}
	}
	return false
}
