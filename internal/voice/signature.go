package voice

import (
	"net/http"
	"strings"

	"github.com/twilio/twilio-go/client"

	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// SignatureVerifier rejects webhook requests that were not signed by Twilio.
type SignatureVerifier struct {
	validator client.RequestValidator
	baseURL   string
	logger    *logging.Logger
}

// NewSignatureVerifier checks X-Twilio-Signature against the public URL Twilio
// called, which is baseURL plus the request path and query.
func NewSignatureVerifier(authToken, baseURL string, logger *logging.Logger) *SignatureVerifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &SignatureVerifier{
		validator: client.NewRequestValidator(authToken),
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// Verify reports whether r carries a valid signature. It parses the form.
func (v *SignatureVerifier) Verify(r *http.Request) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	params := make(map[string]string, len(r.PostForm))
	for k, values := range r.PostForm {
		if len(values) > 0 {
			params[k] = values[0]
		}
	}
	return v.validator.Validate(v.baseURL+r.URL.RequestURI(), params, signature)
}

// Middleware answers 403 for unsigned requests.
func (v *SignatureVerifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !v.Verify(r) {
			v.logger.Warn("voice: invalid twilio signature", "path", r.URL.Path)
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
