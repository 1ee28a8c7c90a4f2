package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
)

type redaction struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Order matters: e-mail addresses may contain digit runs that look like numbers.
var redactions = []redaction{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[EMAIL]"},
	// +49 / 0049 / trunk 0, area or mobile prefix, subscriber part.
	{regexp.MustCompile(`(?:(?:\+|00)49[\s\-/]?|\b0)\(?\d{2,5}\)?[\s\-/]?\d{3,}(?:[\s\-]\d{2,})*`), "[PHONE]"},
}

// HashPhone hashes the digits of a phone number, so "0341 123456" and
// "0341-123456" map to the same archive key.
func HashPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	sum := sha256.Sum256([]byte(digits))
	return hex.EncodeToString(sum[:])
}

// ScrubPII masks e-mail addresses and phone numbers. Names stay readable for staff.
func ScrubPII(text string) string {
	for _, r := range redactions {
		text = r.pattern.ReplaceAllString(text, r.placeholder)
	}
	return text
}

// ScrubMessages returns scrubbed copies of msgs.
func ScrubMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		m.Content = ScrubPII(m.Content)
		out[i] = m
	}
	return out
}
