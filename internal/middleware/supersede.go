package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// DeviceHeader identifies the calling device.
const DeviceHeader = "X-Device-ID"

// inflight holds the cancel func of one device's running request.
type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// Superseder cancels a device's in-flight request when the same device issues a newer one,
// so only the latest tap is answered. Requests without a device id are left alone.
type Superseder struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]*inflight // key: device id
}

func NewSuperseder() *Superseder {
	return &Superseder{inflight: make(map[string]*inflight)}
}

// getDeviceID extracts the device id from the X-Device-ID header, falling back to the device query parameter.
func getDeviceID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(DeviceHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("device"))
}

// begin registers a request for device and cancels the one it replaces.
func (s *Superseder) begin(device string, cancel context.CancelFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.inflight[device]; ok {
		prev.cancel()
	}
	s.seq++
	s.inflight[device] = &inflight{seq: s.seq, cancel: cancel}
	return s.seq
}

// end forgets the request unless a newer one already took its slot.
func (s *Superseder) end(device string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.inflight[device]; ok && cur.seq == seq {
		delete(s.inflight, device)
	}
}

// InFlight reports how many devices currently have a request running.
func (s *Superseder) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// Middleware wraps next so that each request's context is cancelled once the same device
// sends another request.
func (s *Superseder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		device := getDeviceID(r)
		if device == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		seq := s.begin(device, cancel)
		defer s.end(device, seq)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
