// Package server exposes the resolution service over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/resolvd/resolvd/pkg/logger"
	"github.com/resolvd/resolvd/pkg/query"
	"github.com/resolvd/resolvd/pkg/service"
)

// defaultResolveWait bounds how long a resolve call blocks for results
// before answering with whatever has arrived so far.
const defaultResolveWait = 10 * time.Second

type Server struct {
	logger logger.Logger
	svc    *service.Service
}

func New(svc *service.Service, l logger.Logger) *Server {
	return &Server{logger: l, svc: svc}
}

// Handler returns the HTTP surface: /healthz and /v1/resolve.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/resolve", s.handleResolve)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type resolveResponse struct {
	RequestID string          `json:"request_id"`
	Complete  bool            `json:"complete"`
	Results   []resolveResult `json:"results"`
}

type resolveResult struct {
	ID         string  `json:"id"`
	Artist     string  `json:"artist"`
	Track      string  `json:"track"`
	Album      string  `json:"album,omitempty"`
	Source     string  `json:"source"`
	URL        string  `json:"url"`
	Bitrate    int     `json:"bitrate,omitempty"`
	DurationMs int64   `json:"duration_ms,omitempty"`
	Score      float64 `json:"score"`
}

// handleResolve submits a prioritized, temporary query and waits for it to
// finalize, answering early with partial results if the wait bound expires
// first.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var q *query.Query
	switch {
	case params.Get("fulltext") != "":
		q = query.NewFullText(params.Get("fulltext"))
	case params.Get("artist") != "" && params.Get("track") != "":
		q = query.New(params.Get("artist"), params.Get("track"), params.Get("album"))
	default:
		http.Error(w, "missing artist/track or fulltext parameter", http.StatusBadRequest)
		return
	}

	wait := defaultResolveWait
	if v := params.Get("wait"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			http.Error(w, "invalid wait duration", http.StatusBadRequest)
			return
		}
		wait = d
	}

	s.svc.Pipeline().SubmitOne(q, true, true)

	complete := false
	select {
	case <-q.Finished():
		complete = true
	case <-time.After(wait):
	case <-r.Context().Done():
		return
	}

	resp := resolveResponse{
		RequestID: q.ID(),
		Complete:  complete,
		Results:   []resolveResult{},
	}
	for _, res := range q.Results() {
		qr, ok := res.(*query.Result)
		if !ok {
			continue
		}
		resp.Results = append(resp.Results, resolveResult{
			ID:         qr.ResultID,
			Artist:     qr.Artist,
			Track:      qr.Track,
			Album:      qr.Album,
			Source:     qr.Source,
			URL:        qr.URL,
			Bitrate:    qr.Bitrate,
			DurationMs: qr.Duration.Milliseconds(),
			Score:      qr.Score,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to write resolve response", zap.Error(err))
	}
}
