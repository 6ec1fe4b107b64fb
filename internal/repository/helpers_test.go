package repository

import (
	"errors"
	"io"
	"net/http"
	"strings"
)

// RoundTripperFunc allows us to easily mock http.Client responses in tests.
type RoundTripperFunc func(*http.Request) *http.Response

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

// failingTransport simulates a network failure before any response arrives.
type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, f.err
}

var errConnectionRefused = errors.New("dial tcp 127.0.0.1:443: connect: connection refused")

// Mock HTTP client
func newMockHTTPClient(fn func(req *http.Request) *http.Response) *http.Client {
	return &http.Client{
		Transport: RoundTripperFunc(fn),
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

const parisPayload = `{"name":"Paris","main":{"temp":20.5,"humidity":55},"wind":{"speed":5},"weather":[{"id":800,"main":"Clear","description":"clear sky","icon":"01d"}]}`
