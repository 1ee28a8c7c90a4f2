package voice

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/selaro-receptionist/internal/conversation"
)

type twimlSay struct {
	Language string `xml:"language,attr"`
	Voice    string `xml:"voice,attr"`
	Text     string `xml:",chardata"`
}

type twimlGather struct {
	Input         string     `xml:"input,attr"`
	Language      string     `xml:"language,attr"`
	SpeechTimeout string     `xml:"speechTimeout,attr"`
	Action        string     `xml:"action,attr"`
	Method        string     `xml:"method,attr"`
	Say           []twimlSay `xml:"Say"`
}

type twimlResponse struct {
	XMLName xml.Name      `xml:"Response"`
	Gather  []twimlGather `xml:"Gather"`
	Say     []twimlSay    `xml:"Say"`
	Hangup  []struct{}    `xml:"Hangup"`
}

func parseTwiML(t *testing.T, body string) twimlResponse {
	t.Helper()
	var resp twimlResponse
	require.NoError(t, xml.Unmarshal([]byte(body), &resp), body)
	return resp
}

type fakeConversation struct {
	requests []conversation.TurnRequest
	ended    []string
	result   *conversation.TurnResult
	err      error
	endErr   error
}

func (f *fakeConversation) HandleTurn(_ context.Context, req conversation.TurnRequest) (*conversation.TurnResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeConversation) EndSession(_ context.Context, key string) error {
	f.ended = append(f.ended, key)
	return f.endErr
}

func postForm(h http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestIncomingGreetsAndGathers(t *testing.T) {
	h := NewHandler(&fakeConversation{}, Config{ClinicName: "Praxis Dr. Weber"}, nil)
	rec := postForm(h.Incoming, "/voice/incoming", url.Values{"CallSid": {"CA1"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))

	resp := parseTwiML(t, rec.Body.String())
	require.Len(t, resp.Gather, 1)
	g := resp.Gather[0]
	assert.Equal(t, "speech", g.Input)
	assert.Equal(t, "de-DE", g.Language)
	assert.Equal(t, "auto", g.SpeechTimeout)
	assert.Equal(t, "/voice/gather", g.Action)
	assert.Equal(t, "POST", g.Method)
	require.Len(t, g.Say, 1)
	assert.Equal(t, "Polly.Marlene", g.Say[0].Voice)
	assert.Contains(t, g.Say[0].Text, "Praxis Dr. Weber")
	assert.Len(t, resp.Hangup, 1, "silence falls through to the goodbye")
}

func TestGatherRunsTurn(t *testing.T) {
	conv := &fakeConversation{result: &conversation.TurnResult{Reply: "Wie ist Ihr Name?"}}
	h := NewHandler(conv, Config{}, nil)

	rec := postForm(h.Gather, "/voice/gather", url.Values{"CallSid": {"CA42"}, "SpeechResult": {"Ich habe Zahnschmerzen"}})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, conv.requests, 1)
	assert.Equal(t, conversation.TurnRequest{
		SessionKey: "call:CA42",
		Channel:    conversation.ChannelVoice,
		Utterance:  "Ich habe Zahnschmerzen",
	}, conv.requests[0])

	resp := parseTwiML(t, rec.Body.String())
	require.Len(t, resp.Gather, 1)
	assert.Equal(t, "Wie ist Ihr Name?", resp.Gather[0].Say[0].Text)
}

func TestGatherHangsUpAfterCommit(t *testing.T) {
	conv := &fakeConversation{result: &conversation.TurnResult{Reply: "Vielen Dank, Anna Müller!", Committed: true}}
	h := NewHandler(conv, Config{}, nil)

	rec := postForm(h.Gather, "/voice/gather", url.Values{"CallSid": {"CA42"}, "SpeechResult": {"morgen um 10"}})
	resp := parseTwiML(t, rec.Body.String())
	assert.Empty(t, resp.Gather)
	require.Len(t, resp.Say, 1)
	assert.Equal(t, "Vielen Dank, Anna Müller!", resp.Say[0].Text)
	assert.Equal(t, "de-DE", resp.Say[0].Language)
	assert.Len(t, resp.Hangup, 1)
}

func TestGatherErrors(t *testing.T) {
	h := NewHandler(&fakeConversation{}, Config{}, nil)
	rec := postForm(h.Gather, "/voice/gather", url.Values{"SpeechResult": {"Hallo"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewHandler(&fakeConversation{err: errors.New("lock timeout")}, Config{}, nil)
	rec = postForm(h.Gather, "/voice/gather", url.Values{"CallSid": {"CA1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := parseTwiML(t, rec.Body.String())
	assert.Equal(t, errorReply, resp.Say[0].Text)
	assert.Len(t, resp.Hangup, 1)
}

func TestStatusEndsCompletedCalls(t *testing.T) {
	conv := &fakeConversation{}
	h := NewHandler(conv, Config{}, nil)

	rec := postForm(h.Status, "/voice/status", url.Values{"CallSid": {"CA7"}, "CallStatus": {"ringing"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, conv.ended)

	postForm(h.Status, "/voice/status", url.Values{"CallSid": {"CA7"}, "CallStatus": {"completed"}})
	assert.Equal(t, []string{"call:CA7"}, conv.ended)

	conv.endErr = errors.New("redis down")
	rec = postForm(h.Status, "/voice/status", url.Values{"CallSid": {"CA8"}, "CallStatus": {"completed"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func sign(t *testing.T, authToken, fullURL string, form url.Values) string {
	t.Helper()
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestSignatureVerifierMiddleware(t *testing.T) {
	verifier := NewSignatureVerifier("secret-token", "https://selaro.example.de/", nil)
	var called int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusOK)
	})
	protected := verifier.Middleware(next)

	form := url.Values{"CallSid": {"CA1"}, "SpeechResult": {"Hallo"}}
	newReq := func(signature string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/voice/gather", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if signature != "" {
			req.Header.Set("X-Twilio-Signature", signature)
		}
		return req
	}

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, newReq(sign(t, "secret-token", "https://selaro.example.de/voice/gather", form)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, called)

	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, newReq(sign(t, "other-token", "https://selaro.example.de/voice/gather", form)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, newReq(""))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 1, called)
}

func TestGreetingWithoutClinicName(t *testing.T) {
	assert.NotContains(t, Greeting(""), "verbunden mit")
	assert.Equal(t, "call:CA1", SessionKey("CA1"))
}
