package iam

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/meritflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIAM struct {
	calls  atomic.Int32
	status int
	body   func(n int32) string
	delay  time.Duration
}

func (f *fakeIAM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != apikeyGrantType || r.PostForm.Get("apikey") != "key-1" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessage":"bad form"}`))
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body(n)))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(f.body(n)))
}

func newTestProvider(t *testing.T, fake *fakeIAM, now func() time.Time) *provider {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	conf := &config.Config{Cloudant: config.CloudantConfig{
		IAMURL:           srv.URL,
		APIKey:           "key-1",
		Timeout:          5 * time.Second,
		TokenRefreshSkew: time.Minute,
	}}
	tp, err := NewTokenProvider(conf)
	require.NoError(t, err)
	p := tp.(*provider)
	if now != nil {
		p.now = now
	}
	return p
}

func TestTokenIsCachedUntilExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	fake := &fakeIAM{body: func(n int32) string {
		return fmt.Sprintf(`{"access_token":"tok-%d","expires_in":3600}`, n)
	}}
	p := newTestProvider(t, fake, clock)

	tok, err := p.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	now = now.Add(58 * time.Minute)
	tok, err = p.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.EqualValues(t, 1, fake.calls.Load())

	// inside the refresh skew
	now = now.Add(90 * time.Second)
	tok, err = p.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.EqualValues(t, 2, fake.calls.Load())
}

func TestTokenUsesAbsoluteExpiration(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fake := &fakeIAM{body: func(n int32) string {
		return fmt.Sprintf(`{"access_token":"tok-%d","expires_in":3600,"expiration":%d}`, n, now.Add(10*time.Minute).Unix())
	}}
	p := newTestProvider(t, fake, func() time.Time { return now })

	_, err := p.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute), p.expiresAt)
}

func TestTokenWithoutLifetimeIsNotReused(t *testing.T) {
	fake := &fakeIAM{body: func(n int32) string {
		return fmt.Sprintf(`{"access_token":"tok-%d"}`, n)
	}}
	p := newTestProvider(t, fake, nil)

	_, err := p.Token(t.Context())
	require.NoError(t, err)
	tok, err := p.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}

func TestConcurrentCallersShareOneExchange(t *testing.T) {
	fake := &fakeIAM{
		delay: 50 * time.Millisecond,
		body: func(n int32) string {
			return fmt.Sprintf(`{"access_token":"tok-%d","expires_in":3600}`, n)
		},
	}
	p := newTestProvider(t, fake, nil)

	var wg sync.WaitGroup
	tokens := make([]string, 16)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := p.Token(t.Context())
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, fake.calls.Load())
	for _, tok := range tokens {
		assert.Equal(t, "tok-1", tok)
	}
}

func TestInvalidateForcesExchange(t *testing.T) {
	fake := &fakeIAM{body: func(n int32) string {
		return fmt.Sprintf(`{"access_token":"tok-%d","expires_in":3600}`, n)
	}}
	p := newTestProvider(t, fake, nil)

	_, err := p.Token(t.Context())
	require.NoError(t, err)
	p.Invalidate()
	tok, err := p.Token(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}

func TestAuthError(t *testing.T) {
	fake := &fakeIAM{
		status: http.StatusBadRequest,
		body:   func(int32) string { return `{"errorCode":"BXNIM0415E","errorMessage":"Provided API key could not be found."}` },
	}
	p := newTestProvider(t, fake, nil)

	_, err := p.Token(t.Context())
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusBadRequest, authErr.Status)
	assert.Contains(t, authErr.Body, "BXNIM0415E")

	// failures are not cached
	_, err = p.Token(t.Context())
	assert.Error(t, err)
	assert.EqualValues(t, 2, fake.calls.Load())
}
