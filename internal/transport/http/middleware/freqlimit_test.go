package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeGate struct {
	allowed    bool
	retryAfter time.Duration
	allowErr   error

	allowCalls  int
	refundCalls int
	refundErr   error

	scope    string
	identity string
}

func (g *fakeGate) Allow(_ context.Context, scope, identity string, _, _ int) (bool, time.Duration, error) {
	g.allowCalls++
	g.scope = scope
	g.identity = identity
	return g.allowed, g.retryAfter, g.allowErr
}

func (g *fakeGate) Refund(_ context.Context, _, _ string, _ int) error {
	g.refundCalls++
	return g.refundErr
}

func handlerWithStatus(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
}

func TestIPFrequencyLimit_Allowed(t *testing.T) {
	gate := &fakeGate{allowed: true}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	IPFrequencyLimit(gate, "send-auth-code", 60, 5, false)(handlerWithStatus(http.StatusOK)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, gate.allowCalls)
	assert.Equal(t, "send-auth-code", gate.scope)
	assert.Equal(t, "10.0.0.1", gate.identity)
	assert.Equal(t, 0, gate.refundCalls)
}

func TestIPFrequencyLimit_Denied_SetsRetryAfter(t *testing.T) {
	gate := &fakeGate{allowed: false, retryAfter: 42 * time.Second}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	IPFrequencyLimit(gate, "send-auth-code", 60, 5, false)(handlerWithStatus(http.StatusOK)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "42", rr.Header().Get("Retry-After"))
	assert.Equal(t, 0, gate.refundCalls)
}

func TestIPFrequencyLimit_Denied_RetryAfterAtLeastOneSecond(t *testing.T) {
	gate := &fakeGate{allowed: false, retryAfter: 10 * time.Millisecond}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	IPFrequencyLimit(gate, "register", 300, 5, true)(handlerWithStatus(http.StatusOK)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}

func TestIPFrequencyLimit_GateError_FailsOpen(t *testing.T) {
	gate := &fakeGate{allowErr: errors.New("store down")}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	IPFrequencyLimit(gate, "send-auth-code", 60, 5, false)(handlerWithStatus(http.StatusOK)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, gate.refundCalls)
}

func TestIPFrequencyLimit_RefundsFailedRequest(t *testing.T) {
	gate := &fakeGate{allowed: true}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	IPFrequencyLimit(gate, "send-auth-code", 60, 5, false)(handlerWithStatus(http.StatusUnauthorized)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, 1, gate.refundCalls)
}

func TestIPFrequencyLimit_NoRefundOnSuccess(t *testing.T) {
	gate := &fakeGate{allowed: true}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	IPFrequencyLimit(gate, "send-auth-code", 60, 5, false)(handlerWithStatus(http.StatusCreated)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 0, gate.refundCalls)
}

func TestIPFrequencyLimit_Force_NeverRefunds(t *testing.T) {
	gate := &fakeGate{allowed: true}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	IPFrequencyLimit(gate, "register", 300, 5, true)(handlerWithStatus(http.StatusConflict)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, 0, gate.refundCalls)
}

func TestIPFrequencyLimit_ImplicitOK_NoRefund(t *testing.T) {
	gate := &fakeGate{allowed: true}

	// A handler that writes a body without calling WriteHeader implies 200.
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	IPFrequencyLimit(gate, "send-auth-code", 60, 5, false)(h).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, gate.refundCalls)
}

// memWindowGate counts requests per (scope, identity, bucket) with the same
// increment-before-compare and bucket-truncation arithmetic as the store-backed
// gate, with an injectable clock for window rollover.
type memWindowGate struct {
	mu     sync.Mutex
	counts map[string]int
	now    time.Time
}

func newMemWindowGate(start time.Time) *memWindowGate {
	return &memWindowGate{counts: make(map[string]int), now: start}
}

func (g *memWindowGate) key(scope, identity string, windowSeconds int) (string, int64) {
	bucket := g.now.Unix() - g.now.Unix()%int64(windowSeconds)
	return fmt.Sprintf("%s#%s#%d", scope, identity, bucket), bucket
}

func (g *memWindowGate) Allow(_ context.Context, scope, identity string, windowSeconds, limit int) (bool, time.Duration, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key, bucket := g.key(scope, identity, windowSeconds)
	g.counts[key]++
	if g.counts[key] > limit {
		reset := time.Unix(bucket+int64(windowSeconds), 0)
		return false, reset.Sub(g.now), nil
	}
	return true, 0, nil
}

func (g *memWindowGate) Refund(_ context.Context, scope, identity string, windowSeconds int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key, _ := g.key(scope, identity, windowSeconds)
	g.counts[key]--
	return nil
}

func TestIPFrequencyLimit_SixthRequestDenied_AllowedAfterWindow(t *testing.T) {
	gate := newMemWindowGate(time.Unix(1_000_000, 0))
	limited := IPFrequencyLimit(gate, "send-auth-code", 60, 5, true)(handlerWithStatus(http.StatusOK))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do().Code, "request %d should be within limit", i+1)
	}
	denied := do()
	assert.Equal(t, http.StatusTooManyRequests, denied.Code)
	assert.NotEmpty(t, denied.Header().Get("Retry-After"))

	// Another identity is an independent window.
	otherReq := httptest.NewRequest(http.MethodPost, "/", nil)
	otherReq.RemoteAddr = "10.0.0.2:1234"
	otherRR := httptest.NewRecorder()
	limited.ServeHTTP(otherRR, otherReq)
	assert.Equal(t, http.StatusOK, otherRR.Code)

	// Once the window elapses the first request through is allowed again.
	gate.now = gate.now.Add(60 * time.Second)
	assert.Equal(t, http.StatusOK, do().Code)
}

func TestIPFrequencyLimit_RefundReopensWindow(t *testing.T) {
	gate := newMemWindowGate(time.Unix(1_000_000, 0))
	failing := IPFrequencyLimit(gate, "send-auth-code", 60, 5, false)(handlerWithStatus(http.StatusUnauthorized))

	// Failed attempts are refunded, so the window never fills.
	for i := 0; i < 8; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		failing.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "request %d should reach the handler", i+1)
	}
}
