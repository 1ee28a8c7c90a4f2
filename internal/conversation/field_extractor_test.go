package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const annaUtterance = "Ich heiße Anna Müller, Telefon 0341 123456, Zahnschmerzen, morgen 10 Uhr"

func TestExtractName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"anchored", annaUtterance, "Anna Müller"},
		{"mein name ist", "Mein Name ist erika mustermann und ich brauche einen Termin", "Erika Mustermann"},
		{"title skipped", "Hier spricht Frau Keller", "Keller"},
		{"english", "Hi, my name is John Doe", "John Doe"},
		{"capitalised pair", "Max Schmidt", "Max Schmidt"},
		{"no name in complaint", "Ich habe Schmerzen", ""},
		{"greeting is not a name", "Guten Tag, Liebe Grüße", ""},
		{"reason after anchor is not a name", "this is urgent", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractName(tt.in))
		})
	}
}

func TestCommonWordsCoverBothLanguages(t *testing.T) {
	for _, w := range []string{"Name", "name", "Termin", "my", "Phone"} {
		assert.True(t, isCommonWord(w), w)
	}
	assert.False(t, isCommonWord("Müller"))
}

func TestIsDomainWord(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"Zahnschmerzen", true},
		{"dringend", true},
		{"Morgen", true},
		{"Freitag", true},
		{"Anna", false},
		{"Schmidt", false},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, isDomainWord(tt.word))
		})
	}
}

func TestExtractPhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"anchored with spaces", annaUtterance, "0341123456"},
		{"anchored with slash", "Meine Handynummer lautet 0171/2345678", "01712345678"},
		{"international loose", "Sie erreichen mich unter +49 171 2345678.", "+491712345678"},
		{"dash separated", "0341-98 76 54", "0341987654"},
		{"times are not phones", "Termin um 14:30", ""},
		{"dates are not phones", "am 12.06.2025 um 9 Uhr", ""},
		{"too short", "Zimmer 123", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPhone(tt.in))
		})
	}
}

func TestExtractReason(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{annaUtterance, "Zahnschmerzen"},
		{"Ich habe Schmerzen", "Schmerzen"},
		{"Grund: Kontrolle nach OP", "Kontrolle nach OP"},
		{"Ich hätte gern eine Zahnreinigung", "Zahnreinigung"},
		{"Mir ist ein Zahn abgebrochen", "Abgebrochener Zahn"},
		{"Mein Weisheitszahn drückt", "Weisheitszahn"},
		{"Hallo", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractReason(tt.in))
		})
	}
}

func TestClassifyUrgency(t *testing.T) {
	assert.Equal(t, UrgencyUrgent, ClassifyUrgency("Zahnschmerzen", ""))
	assert.Equal(t, UrgencyUrgent, ClassifyUrgency("Kontrolluntersuchung", "Das Zahnfleisch ist geschwollen"))
	assert.Equal(t, UrgencyNormal, ClassifyUrgency("Zahnreinigung", "Ich hätte gern einen Termin"))
	assert.Equal(t, UrgencyNormal, ClassifyUrgency("", ""))
}

func TestHasBookingIntent(t *testing.T) {
	for _, in := range []string{
		"Ich möchte einen Termin",
		"Kann ich vorbeikommen?",
		"Geht es um 9?",
		"10 Uhr wäre gut",
		"Ich würde gern buchen",
	} {
		assert.True(t, HasBookingIntent(in), in)
	}
	for _, in := range []string{"Hallo", "Wie ist das Datum?", "Blumen"} {
		assert.False(t, HasBookingIntent(in), in)
	}
}

func TestFieldExtractorExtract(t *testing.T) {
	x := NewFieldExtractor(nil)

	fields := x.Extract(annaUtterance, tuesdayRef).Fields()

	assert.Equal(t, map[Field]string{
		FieldName:          "Anna Müller",
		FieldPhone:         "0341123456",
		FieldReason:        "Zahnschmerzen",
		FieldPreferredTime: "2025-06-11 10:00",
	}, fields)
	assert.Equal(t, UrgencyUrgent, ClassifyUrgency(fields[FieldReason], annaUtterance))
}

func TestExtractionPartialSlotOmitsPreferredTime(t *testing.T) {
	x := NewFieldExtractor(nil)

	e := x.Extract("morgen wäre gut", tuesdayRef)

	assert.NotNil(t, e.Slot.Date)
	assert.Nil(t, e.Slot.Time)
	assert.NotContains(t, e.Fields(), FieldPreferredTime)
}
