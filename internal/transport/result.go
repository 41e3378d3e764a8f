package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// StatusTransportFailure is the Result status for requests that never got a
// response: dial errors, TLS failures, timeouts and cancellations. It sits
// outside the range of standard HTTP status codes.
const StatusTransportFailure = 520

// Result is the normalized outcome of one request. Body is never nil: an
// absent, empty or null payload is an empty JSON object.
type Result struct {
	Status        int                 `json:"status" yaml:"status"`
	StatusMessage string              `json:"status_message" yaml:"status_message"`
	Headers       map[string][]string `json:"headers" yaml:"headers"`
	Body          any                 `json:"body" yaml:"body"`
}

// OK reports a 2xx status.
func (r *Result) OK() bool { return r.Status >= 200 && r.Status < 300 }

// TransportFailed reports whether the request failed before a response
// arrived.
func (r *Result) TransportFailed() bool { return r.Status == StatusTransportFailure }

func failureResult(err error) *Result {
	return &Result{
		Status:        StatusTransportFailure,
		StatusMessage: err.Error(),
		Headers:       map[string][]string{},
		Body:          emptyBody(),
	}
}

func newResult(resp *http.Response, raw []byte) *Result {
	headers := make(map[string][]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = append([]string(nil), v...)
	}
	return &Result{
		Status:        resp.StatusCode,
		StatusMessage: reasonPhrase(resp),
		Headers:       headers,
		Body:          decodeBody(resp.Header.Get("Content-Type"), raw),
	}
}

// reasonPhrase strips the numeric code from resp.Status ("404 Not Found").
func reasonPhrase(resp *http.Response) string {
	msg := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return msg
}

// decodeBody decodes JSON only when the content type says so. A JSON body
// that fails to decode is returned as the raw string. Numbers stay
// json.Number so integer IDs above 2^53 survive.
func decodeBody(contentType string, raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return emptyBody()
	}
	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		return string(raw)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(raw)
	}
	if dec.More() {
		return string(raw)
	}
	if v == nil {
		return emptyBody()
	}
	return v
}

func emptyBody() map[string]any { return map[string]any{} }
