package graphql

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
)

func TestParseErrors(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"errors":[{"message":"not found","locations":[{"line":2,"column":3}],"path":["issue"],"extensions":{"code":"NOT_FOUND"}}],"data":null}`)
	err := ParseErrors(payload)

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want *RemoteError", err)
	}
	if len(remote.Errors) != 1 {
		t.Fatalf("len = %d", len(remote.Errors))
	}
	m := remote.Errors[0]
	if m.Message != "not found" {
		t.Errorf("message = %q", m.Message)
	}
	if len(m.Locations) != 1 || m.Locations[0] != (Location{Line: 2, Column: 3}) {
		t.Errorf("locations = %v", m.Locations)
	}
	if len(m.Path) != 1 || m.Path[0] != "issue" {
		t.Errorf("path = %v", m.Path)
	}
	if m.Extensions["code"] != "NOT_FOUND" {
		t.Errorf("extensions = %v", m.Extensions)
	}
	if err.Error() != "graphql: not found (line 2, column 3)" {
		t.Errorf("Error() = %q", err.Error())
	}
	if Classify(err) != OutcomeRemoteErrors {
		t.Errorf("Classify = %v", Classify(err))
	}
}

func TestParseErrors_NoEnvelope(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"data only":   `{"data":{"viewer":{"id":"u1"}}}`,
		"empty list":  `{"data":{},"errors":[]}`,
		"null errors": `{"data":{},"errors":null}`,
		"not json":    `nope`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if err := ParseErrors([]byte(body)); err != nil {
				t.Errorf("ParseErrors = %v, want nil", err)
			}
		})
	}
}

func TestRemoteError_Multiple(t *testing.T) {
	t.Parallel()

	err := ParseErrors([]byte(`{"errors":[{"message":"a"},{"message":"b"}]}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "2 errors: a; b") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	remote := &RemoteError{Errors: []ErrorMessage{{Message: "x"}}}
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSuccess},
		{"remote", remote, OutcomeRemoteErrors},
		{"wrapped remote", fmt.Errorf("resolve: %w", remote), OutcomeRemoteErrors},
		{"transport", &TransportError{StatusCode: 500}, OutcomeTransportFailure},
		{"other", errors.New("dial tcp: refused"), OutcomeTransportFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusGatewayTimeout, true},
		{http.StatusNotImplemented, false},
	}
	for _, tt := range tests {
		resp := &resty.Response{RawResponse: &http.Response{StatusCode: tt.code}}
		if got := shouldRetry(resp, nil); got != tt.want {
			t.Errorf("shouldRetry(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
	if !shouldRetry(nil, errors.New("connection reset")) {
		t.Error("network errors should be retried")
	}
}
