package graphql

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/dnscache"
	"golang.org/x/oauth2"

	linear "github.com/eugener/linear/internal"
)

// Auth types accepted by Credentials.Type.
const (
	AuthAPIKey = "api_key" // personal API key, sent as-is in Authorization
	AuthOAuth  = "oauth"   // OAuth access token, sent as a Bearer token
)

// RequestIDHeader carries a per-request id for correlating logs with support.
const RequestIDHeader = "X-Request-Id"

// Credentials is the static credential attached to every live request.
type Credentials struct {
	Type string
	Key  string
}

// NewTransport returns a tuned *http.Transport with optional DNS caching.
func NewTransport(resolver *dnscache.Resolver) *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	if resolver != nil {
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(ips[0], port))
		}
	}
	return t
}

// NewHTTPClient builds the transport chain: base transport, request id,
// then credentials.
func NewHTTPClient(creds Credentials, resolver *dnscache.Resolver) (*http.Client, error) {
	if creds.Key == "" {
		return nil, linear.ErrMissingAPIKey
	}

	var rt http.RoundTripper = NewTransport(resolver)
	rt = &RequestIDTransport{Base: rt}

	switch creds.Type {
	case AuthAPIKey, "":
		rt = &APIKeyTransport{Key: creds.Key, HeaderName: "Authorization", Base: rt}
	case AuthOAuth:
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Key, TokenType: "Bearer"}),
			Base:   rt,
		}
	default:
		return nil, fmt.Errorf("graphql: unknown auth type %q", creds.Type)
	}
	return &http.Client{Transport: rt}, nil
}

// APIKeyTransport is an http.RoundTripper that injects a static API key
// header on every outbound request. Prefix is prepended to Key.
type APIKeyTransport struct {
	Key        string
	HeaderName string
	Prefix     string
	Base       http.RoundTripper
}

// RoundTrip clones the request and sets the auth header.
func (t *APIKeyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r2 := r.Clone(r.Context())
	r2.Header.Set(t.HeaderName, t.Prefix+t.Key)
	return base(t.Base).RoundTrip(r2)
}

// RequestIDTransport sets RequestIDHeader from the context's request id, or
// a fresh UUIDv7 when there is none.
type RequestIDTransport struct {
	Base http.RoundTripper
}

// RoundTrip clones the request and sets the request id header.
func (t *RequestIDTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	id := linear.RequestIDFromContext(r.Context())
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}
	r2 := r.Clone(r.Context())
	r2.Header.Set(RequestIDHeader, id)
	return base(t.Base).RoundTrip(r2)
}

func base(rt http.RoundTripper) http.RoundTripper {
	if rt != nil {
		return rt
	}
	return http.DefaultTransport
}
