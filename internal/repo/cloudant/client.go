package cloudant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nguyentranbao-ct/meritflow/internal/config"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/docstore"
	"github.com/nguyentranbao-ct/meritflow/internal/repo/iam"
	"github.com/nguyentranbao-ct/meritflow/pkg/logger/log"
	"github.com/nguyentranbao-ct/meritflow/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
)

// keep the client in sync with the docstore contract
var _ docstore.Store = (*client)(nil)

type client struct {
	http    *resty.Client
	baseURL string
	tokens  iam.TokenProvider
	metrics *prometheus.HistogramVec
}

func NewStore(conf *config.Config, tokens iam.TokenProvider) (docstore.Store, error) {
	if conf.Cloudant.URL == "" {
		return nil, &config.ConfigError{Missing: []string{"CLOUDANT_URL"}}
	}
	metrics, err := util.GetHistogramVec("docstore_request_duration_seconds", "op", "collection", "status")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &client{
		http:    util.NewRestyClient(conf.Cloudant.Timeout),
		baseURL: strings.TrimRight(conf.Cloudant.URL, "/"),
		tokens:  tokens,
		metrics: metrics,
	}, nil
}

type writeResponse struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

func (c *client) Find(ctx context.Context, collection string, q docstore.Query) (*docstore.ResultSet, error) {
	resp, err := c.do(ctx, "find", collection, func(req *resty.Request) (*resty.Response, error) {
		return req.SetBody(q).Post(c.endpoint(collection, "_find"))
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		log.Warnw(ctx, "docstore find rejected", "collection", collection, "status", resp.StatusCode())
		return nil, &docstore.QueryError{Status: resp.StatusCode(), Body: resp.String()}
	}

	var rs docstore.ResultSet
	if err := json.Unmarshal(resp.Body(), &rs); err != nil {
		return nil, fmt.Errorf("decode find response: %w", err)
	}
	if rs.Docs == nil {
		rs.Docs = []docstore.Document{}
	}
	return &rs, nil
}

func (c *client) Upsert(ctx context.Context, collection, id string, doc docstore.Document, opts ...docstore.UpsertOption) (*docstore.WriteResult, error) {
	body := make(docstore.Document, len(doc)+2)
	for k, v := range doc {
		body[k] = v
	}
	body["_id"] = id
	if rev := docstore.ApplyUpsertOptions(opts...); rev != "" {
		body["_rev"] = rev
	}

	resp, err := c.do(ctx, "upsert", collection, func(req *resty.Request) (*resty.Response, error) {
		return req.SetBody(body).Put(c.endpoint(collection, id))
	})
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		log.Warnw(ctx, "docstore upsert rejected", "collection", collection, "id", id, "status", resp.StatusCode())
		return nil, &docstore.WriteError{Status: resp.StatusCode(), Body: resp.String()}
	}

	var wr writeResponse
	if err := json.Unmarshal(resp.Body(), &wr); err != nil {
		return nil, fmt.Errorf("decode upsert response: %w", err)
	}
	if wr.ID == "" {
		wr.ID = id
	}
	return &docstore.WriteResult{ID: wr.ID, Revision: wr.Rev, Status: resp.StatusCode()}, nil
}

func (c *client) Revision(ctx context.Context, collection, id string) (string, error) {
	resp, err := c.do(ctx, "revision", collection, func(req *resty.Request) (*resty.Response, error) {
		return req.Head(c.endpoint(collection, id))
	})
	if err != nil {
		return "", err
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNotModified:
		return strings.Trim(resp.Header().Get("ETag"), `"`), nil
	case http.StatusNotFound:
		return "", docstore.ErrNotFound
	}
	return "", &docstore.QueryError{Status: resp.StatusCode(), Body: resp.String()}
}

func (c *client) Ping(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, "ping", "", func(req *resty.Request) (*resty.Response, error) {
		return req.Get(c.baseURL + "/_all_dbs")
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &docstore.QueryError{Status: resp.StatusCode(), Body: resp.String()}
	}

	dbs := []string{}
	if err := json.Unmarshal(resp.Body(), &dbs); err != nil {
		return nil, fmt.Errorf("decode _all_dbs response: %w", err)
	}
	return dbs, nil
}

// do authenticates and sends one request. A 401 drops the cached token so
// the next call exchanges a fresh one; the current call is not repeated.
func (c *client) do(
	ctx context.Context,
	op, collection string,
	send func(*resty.Request) (*resty.Response, error),
) (*resty.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Accept", "application/json")

	start := time.Now()
	resp, err := send(req)
	if err != nil {
		c.metrics.WithLabelValues(op, collection, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("docstore %s %s: %w", op, collection, err)
	}
	c.metrics.WithLabelValues(op, collection, strconv.Itoa(resp.StatusCode())).Observe(time.Since(start).Seconds())

	if resp.StatusCode() == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	return resp, nil
}

func (c *client) endpoint(segments ...string) string {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, c.baseURL)
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return strings.Join(escaped, "/")
}
