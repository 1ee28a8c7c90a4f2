package conversation

import (
	"fmt"
	"strings"
	"time"
)

// Fixed replies used when the turn does not go through the model.
const (
	PromptName         = "Darf ich bitte Ihren vollständigen Namen erfahren?"
	PromptPhone        = "Unter welcher Telefonnummer können wir Sie erreichen?"
	PromptReason       = "Was ist der Grund für Ihren Besuch?"
	PromptDayAndTime   = "Gerne! Für welchen Tag und um welche Uhrzeit passt es Ihnen?"
	PromptDateOnly     = "Gerne! Für welches Datum möchten Sie den Termin?"
	PromptTimeOnly     = "Gerne! Welche Uhrzeit passt Ihnen?"
	ReplyApology       = "Entschuldigung, da ist gerade etwas schiefgelaufen. Bitte versuchen Sie es gleich noch einmal."
	ReplyEmptyOutput   = "Ich bin da – könnten Sie das bitte anders formulieren?"
	ReplyCommitFailure = "Entschuldigung, ich konnte den Termin nicht erstellen. Bitte versuchen Sie es später erneut."
)

// MaxKnowledgeChars caps the clinic knowledge appended to the persona.
const MaxKnowledgeChars = 6000

// PromptFor returns the question for a missing field.
func PromptFor(f Field) string {
	switch f {
	case FieldName:
		return PromptName
	case FieldPhone:
		return PromptPhone
	case FieldReason:
		return PromptReason
	default:
		return PromptDayAndTime
	}
}

// SlotPrompt asks for exactly the half of the slot that is still missing.
func SlotPrompt(s Slot) string {
	switch {
	case s.Date == nil && s.Time == nil:
		return PromptDayAndTime
	case s.Date == nil:
		return PromptDateOnly
	default:
		return PromptTimeOnly
	}
}

// UnbookablePrompt names the office hours and asks for another slot.
func UnbookablePrompt(hours string) string {
	return fmt.Sprintf("Zu diesem Zeitpunkt ist unsere Praxis leider geschlossen. Unsere Sprechzeiten sind %s. Welcher andere Termin passt Ihnen?", hours)
}

// PastSlotPrompt is used when the caller names a day that already passed.
const PastSlotPrompt = "Dieser Zeitpunkt liegt leider schon in der Vergangenheit. Welcher andere Termin passt Ihnen?"

var germanWeekdayNames = [...]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"}

// HumanPreferredTime renders a stored preferred time as "Mittwoch, 11.06.2025 um 10:00 Uhr".
// Values that are not in PreferredTimeLayout are returned as they are.
func HumanPreferredTime(value string) string {
	t, ok := ParsePreferredTime(value, time.UTC)
	if !ok {
		return value
	}
	return fmt.Sprintf("%s, %s um %s Uhr", germanWeekdayNames[t.Weekday()], DateOf(t).German(), t.Format("15:04"))
}

// ConfirmationLine closes the turn that committed the lead.
func ConfirmationLine(name, preferredTime string) string {
	return fmt.Sprintf("Vielen Dank, %s! Ihre Anfrage für %s ist bei uns eingegangen. Wir melden uns in Kürze.", name, HumanPreferredTime(preferredTime))
}

// Persona describes the receptionist for the system prompt.
type Persona struct {
	ClinicName  string
	OfficeHours string
	Knowledge   string
	Channel     string
}

// SystemPrompt builds the system context: persona, summary contract, clinic knowledge
// and the fields already collected so the model does not ask twice.
func (p Persona) SystemPrompt(state *State, now time.Time) string {
	var b strings.Builder
	clinic := p.ClinicName
	if clinic == "" {
		clinic = "der Zahnarztpraxis"
	}
	fmt.Fprintf(&b, "Du bist \"Lina\", eine warme und professionelle Empfangsmitarbeiterin von %s.\n", clinic)
	b.WriteString("Antworte kurz, freundlich und klar auf Deutsch. Nutze Praxis-Infos nur wenn relevant.\n")
	b.WriteString("Wenn die Frage nicht in den Infos steht, antworte höflich knapp und biete an, dass das Team zurückruft.\n")
	if p.Channel == "voice" {
		b.WriteString("Du sprichst am Telefon: keine Aufzählungen, keine Emojis, höchstens zwei Sätze.\n")
	}
	b.WriteString("Sammle für eine Terminanfrage: vollständiger Name, Telefonnummer, Grund des Besuchs, Wunschtermin (Tag und Uhrzeit).\n")
	b.WriteString("Frage immer nur nach einer fehlenden Angabe. Stelle keine Diagnosen.\n")
	fmt.Fprintf(&b, "Sobald alle vier Angaben bekannt sind, hänge genau diesen Block an deine Antwort an:\n%s\nName: <Name>\nTelefon: <Telefonnummer>\nGrund: <Grund>\nWunschtermin: <TT.MM.JJJJ HH:MM>\n", LeadSummaryMarker)
	if p.OfficeHours != "" {
		fmt.Fprintf(&b, "Sprechzeiten: %s.\n", p.OfficeHours)
	}
	fmt.Fprintf(&b, "Heute ist %s, %s.\n", germanWeekdayNames[now.Weekday()], DateOf(now).German())

	if state != nil && len(state.Fields) > 0 {
		b.WriteString("Bereits bekannt (nicht erneut fragen):\n")
		for _, f := range RequiredFields {
			if v := state.Get(f); v != "" {
				fmt.Fprintf(&b, "- %s: %s\n", summaryLabelFor(f), v)
			}
		}
	}

	if knowledge := TruncateKnowledge(p.Knowledge); knowledge != "" {
		b.WriteString("Praxis-Infos (Kontext):\n")
		b.WriteString(knowledge)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func summaryLabelFor(f Field) string {
	switch f {
	case FieldName:
		return "Name"
	case FieldPhone:
		return "Telefon"
	case FieldReason:
		return "Grund"
	default:
		return "Wunschtermin"
	}
}

// TruncateKnowledge trims knowledge to MaxKnowledgeChars runes.
func TruncateKnowledge(knowledge string) string {
	knowledge = strings.TrimSpace(knowledge)
	runes := []rune(knowledge)
	if len(runes) <= MaxKnowledgeChars {
		return knowledge
	}
	return string(runes[:MaxKnowledgeChars])
}
