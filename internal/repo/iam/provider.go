package iam

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nguyentranbao-ct/meritflow/internal/config"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger/log"
	"github.com/nguyentranbao-ct/meritflow/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

const apikeyGrantType = "urn:ibm:params:oauth:grant-type:apikey"

// TokenProvider hands out bearer tokens for the document store.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	// Invalidate drops the cached token so the next Token call exchanges again.
	Invalidate()
}

// AuthError is returned when the identity endpoint rejects the exchange.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("iam token exchange failed: status %d: %s", e.Status, e.Body)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Expiration  int64  `json:"expiration"`
}

type provider struct {
	client  *resty.Client
	url     string
	apiKey  string
	skew    time.Duration
	now     func() time.Time
	metrics *prometheus.HistogramVec

	group     singleflight.Group
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewTokenProvider(conf *config.Config) (TokenProvider, error) {
	metrics, err := util.GetHistogramVec("iam_token_exchange_duration_seconds", "status")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &provider{
		client:  util.NewRestyClient(conf.Cloudant.Timeout),
		url:     conf.Cloudant.IAMURL,
		apiKey:  conf.Cloudant.APIKey,
		skew:    conf.Cloudant.TokenRefreshSkew,
		now:     time.Now,
		metrics: metrics,
	}, nil
}

func (p *provider) Token(ctx context.Context) (string, error) {
	if token, ok := p.cached(); ok {
		return token, nil
	}

	// concurrent callers share one exchange; it must outlive any single caller
	v, err, _ := p.group.Do("token", func() (any, error) {
		if token, ok := p.cached(); ok {
			return token, nil
		}
		return p.exchange(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (p *provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expiresAt = time.Time{}
}

func (p *provider) cached() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == "" || !p.now().Before(p.expiresAt.Add(-p.skew)) {
		return "", false
	}
	return p.token, true
}

func (p *provider) exchange(ctx context.Context) (string, error) {
	start := time.Now()
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetFormData(map[string]string{
			"grant_type": apikeyGrantType,
			"apikey":     p.apiKey,
		}).
		Post(p.url)
	if err != nil {
		p.metrics.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return "", fmt.Errorf("iam token exchange: %w", err)
	}
	p.metrics.WithLabelValues(strconv.Itoa(resp.StatusCode())).Observe(time.Since(start).Seconds())

	if !resp.IsSuccess() {
		return "", &AuthError{Status: resp.StatusCode(), Body: resp.String()}
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		return "", fmt.Errorf("decode iam response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("iam response has no access_token")
	}

	now := p.now()
	var expiresAt time.Time
	switch {
	case tr.Expiration > 0:
		expiresAt = time.Unix(tr.Expiration, 0)
	case tr.ExpiresIn > 0:
		expiresAt = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		// no lifetime reported, use it for this call only
		expiresAt = now
	}

	p.mu.Lock()
	p.token = tr.AccessToken
	p.expiresAt = expiresAt
	p.mu.Unlock()

	log.Debugw(ctx, "iam token refreshed", "expires_at", expiresAt.UTC().Format(time.RFC3339))
	return tr.AccessToken, nil
}
