// Package httpapi implements a resolver backed by a remote JSON search API.
// The remote service receives the query terms as URL parameters and answers
// with a document of the form:
//
//	{"results": [{"artist": "...", "track": "...", "album": "...",
//	              "url": "...", "bitrate": 320, "duration_ms": 215000,
//	              "score": 0.95}]}
package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/resolvd/resolvd/pkg/logger"
	"github.com/resolvd/resolvd/pkg/pipeline"
	"github.com/resolvd/resolvd/pkg/query"
)

const (
	defaultWeight  = 50
	defaultTimeout = 5 * time.Second
	retryMax       = 2
)

// Config describes one remote search API.
type Config struct {
	// Name identifies the resolver; empty defaults to the endpoint host.
	Name string

	// Endpoint is the base URL of the search API.
	Endpoint string

	Weight  int
	Timeout time.Duration
}

type Resolver struct {
	name     string
	endpoint string
	weight   int
	timeout  time.Duration
	client   *retryablehttp.Client
	sink     pipeline.ResultSink
	logger   logger.Logger
}

var _ pipeline.Resolver = (*Resolver)(nil)

func New(cfg Config, sink pipeline.ResultSink, l logger.Logger) (*Resolver, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse resolver endpoint: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = u.Host
	}

	weight := cfg.Weight
	if weight == 0 {
		weight = defaultWeight
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	// Attempts are time-bounded by the pipeline, so retries back off far
	// more aggressively than the retryablehttp defaults.
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.HTTPClient.Timeout = timeout
	client.Logger = nil

	return &Resolver{
		name:     name,
		endpoint: cfg.Endpoint,
		weight:   weight,
		timeout:  timeout,
		client:   client,
		sink:     sink,
		logger:   l,
	}, nil
}

func (r *Resolver) Name() string {
	return r.name
}

func (r *Resolver) Weight() int {
	return r.weight
}

func (r *Resolver) Timeout() time.Duration {
	return r.timeout
}

// Resolve queries the remote API and reports whatever it answers. Transport
// failures report zero results so the attempt fails fast instead of waiting
// for the pipeline's timeout.
func (r *Resolver) Resolve(ctx context.Context, req pipeline.Request) {
	q, ok := req.(*query.Query)
	if !ok {
		r.sink.ReportResults(req.ID(), nil)
		return
	}

	body, err := r.search(ctx, q)
	if err != nil {
		r.logger.Warn("remote search failed",
			zap.String("resolver", r.name),
			zap.String("request_id", req.ID()),
			zap.Error(err),
		)
		r.sink.ReportResults(req.ID(), nil)
		return
	}

	r.sink.ReportResults(req.ID(), parseResults(r.name, body))
}

func (r *Resolver) search(ctx context.Context, q *query.Query) ([]byte, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return nil, err
	}

	params := u.Query()
	if q.IsExhaustiveSearch() {
		params.Set("fulltext", q.FullText())
	} else {
		params.Set("artist", q.Artist())
		params.Set("track", q.Track())
		if q.Album() != "" {
			params.Set("album", q.Album())
		}
	}
	u.RawQuery = params.Encode()

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, r.name)
	}

	return io.ReadAll(resp.Body)
}

func parseResults(source string, body []byte) []pipeline.Result {
	var results []pipeline.Result
	gjson.GetBytes(body, "results").ForEach(func(_, item gjson.Result) bool {
		res := query.NewResult()
		res.Artist = item.Get("artist").String()
		res.Track = item.Get("track").String()
		res.Album = item.Get("album").String()
		res.URL = item.Get("url").String()
		res.Bitrate = int(item.Get("bitrate").Int())
		res.Duration = time.Duration(item.Get("duration_ms").Int()) * time.Millisecond
		res.Score = item.Get("score").Float()
		res.Source = source
		results = append(results, res)
		return true
	})
	return results
}
