package voice

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"
)

const (
	sayLanguage = "de-DE"
	sayVoice    = "Polly.Marlene"

	noInputReply = "Ich habe Sie leider nicht verstanden. Bitte rufen Sie uns gerne erneut an. Auf Wiederhören!"
	errorReply   = "Es tut uns leid, ein Fehler ist aufgetreten. Bitte versuchen Sie es später noch einmal."
)

func say(text string) *twiml.VoiceSay {
	return &twiml.VoiceSay{
		Message:  text,
		Language: sayLanguage,
		Voice:    sayVoice,
	}
}

// gatherResponse speaks text and listens for the next utterance. When the caller
// stays silent Twilio falls through to the goodbye.
func gatherResponse(text, action string) (string, error) {
	gather := &twiml.VoiceGather{
		Input:         "speech",
		Language:      sayLanguage,
		SpeechTimeout: "auto",
		Action:        action,
		Method:        "POST",
		InnerElements: []twiml.Element{say(text)},
	}
	out, err := twiml.Voice([]twiml.Element{gather, say(noInputReply), &twiml.VoiceHangup{}})
	if err != nil {
		return "", fmt.Errorf("voice: render gather: %w", err)
	}
	return out, nil
}

// hangupResponse speaks text and ends the call.
func hangupResponse(text string) (string, error) {
	out, err := twiml.Voice([]twiml.Element{say(text), &twiml.VoiceHangup{}})
	if err != nil {
		return "", fmt.Errorf("voice: render hangup: %w", err)
	}
	return out, nil
}
