package graphql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// maxErrorBody bounds how much of a failed response is kept.
const maxErrorBody = 4096

// TransportError is a non-2xx reply from the API.
type TransportError struct {
	StatusCode int
	Body       string
}

func newTransportError(status int, body []byte) *TransportError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &TransportError{StatusCode: status, Body: string(body)}
}

// Error returns the status and, when the body is a GraphQL error envelope,
// its messages; otherwise the trimmed body.
func (e *TransportError) Error() string {
	if remote := parseEnvelope([]byte(e.Body)); remote != nil {
		return fmt.Sprintf("graphql: HTTP %d: %s", e.StatusCode, remote.summary())
	}
	return fmt.Sprintf("graphql: HTTP %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// HTTPStatus returns the HTTP status code.
func (e *TransportError) HTTPStatus() int { return e.StatusCode }

// Location is a position in the query text an error refers to.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ErrorMessage is one entry of a GraphQL errors list.
type ErrorMessage struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// String formats the message with its first location, if any.
func (m ErrorMessage) String() string {
	if len(m.Locations) == 0 {
		return m.Message
	}
	l := m.Locations[0]
	return fmt.Sprintf("%s (line %d, column %d)", m.Message, l.Line, l.Column)
}

// RemoteError is an errors list returned inside a successful HTTP exchange.
type RemoteError struct {
	Errors []ErrorMessage
}

func (e *RemoteError) Error() string {
	return "graphql: " + e.summary()
}

func (e *RemoteError) summary() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].String()
	}
	parts := make([]string, len(e.Errors))
	for i, m := range e.Errors {
		parts[i] = m.String()
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(parts, "; "))
}

// ParseErrors returns a *RemoteError when payload has a non-empty top-level
// errors array, and nil otherwise.
func ParseErrors(payload []byte) error {
	if remote := parseEnvelope(payload); remote != nil {
		return remote
	}
	return nil
}

func parseEnvelope(payload []byte) *RemoteError {
	list := gjson.GetBytes(payload, "errors")
	if !list.IsArray() || len(list.Array()) == 0 {
		return nil
	}

	var msgs []ErrorMessage
	list.ForEach(func(_, e gjson.Result) bool {
		m := ErrorMessage{Message: e.Get("message").String()}
		e.Get("locations").ForEach(func(_, l gjson.Result) bool {
			m.Locations = append(m.Locations, Location{
				Line:   int(l.Get("line").Int()),
				Column: int(l.Get("column").Int()),
			})
			return true
		})
		if p := e.Get("path"); p.IsArray() {
			m.Path, _ = p.Value().([]any)
		}
		if x := e.Get("extensions"); x.IsObject() {
			m.Extensions, _ = x.Value().(map[string]any)
		}
		msgs = append(msgs, m)
		return true
	})
	return &RemoteError{Errors: msgs}
}

// Outcome tags the result of a live request.
type Outcome int

const (
	// OutcomeSuccess is a 2xx reply without an errors list.
	OutcomeSuccess Outcome = iota
	// OutcomeTransportFailure is a network failure, timeout or non-2xx reply.
	OutcomeTransportFailure
	// OutcomeRemoteErrors is a 2xx reply carrying an errors list.
	OutcomeRemoteErrors
)

// String returns a metric-friendly name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransportFailure:
		return "transport"
	case OutcomeRemoteErrors:
		return "remote"
	default:
		return "unknown"
	}
}

// Classify maps an error returned from a request to its Outcome.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return OutcomeRemoteErrors
	}
	return OutcomeTransportFailure
}
