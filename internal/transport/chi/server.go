// Package chi implements the HTTP transport over the go-chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/domain/search/mode"
	"github.com/parley-ai/recall/internal/domain/search/request"
	"github.com/parley-ai/recall/internal/domain/search/result"
	fragmentuc "github.com/parley-ai/recall/internal/usecase/fragment"
	healthuc "github.com/parley-ai/recall/internal/usecase/health"
	searchuc "github.com/parley-ai/recall/internal/usecase/search"
	speakeruc "github.com/parley-ai/recall/internal/usecase/speaker"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the retrieval engine over HTTP.
type Server struct {
	fragments *fragmentuc.Service
	search    *searchuc.Service
	speakers  *speakeruc.Service
	health    *healthuc.Service
	// embedder vectorizes text-only search queries server-side; nil means
	// clients must send query embeddings themselves.
	embedder domain.Embedder

	// defaultWeights apply to search requests that carry none; nil falls
	// back to the engine defaults.
	defaultWeights *request.Weights

	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. embedder may be nil.
func NewServer(
	fragments *fragmentuc.Service,
	search *searchuc.Service,
	speakers *speakeruc.Service,
	health *healthuc.Service,
	embedder domain.Embedder,
	logger *zap.Logger,
) *Server {
	s := &Server{
		fragments: fragments,
		search:    search,
		speakers:  speakers,
		health:    health,
		embedder:  embedder,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrFragmentNotFound, http.StatusNotFound, codeFragmentNotFound),
		sentinelHandler(domain.ErrSpeakerNotFound, http.StatusNotFound, codeSpeakerNotFound),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, codeDimensionMismatch),
		sentinelHandler(domain.ErrInvalidRange, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrModelVersionMismatch, http.StatusConflict, codeModelVersionMismatch),
		sentinelHandler(domain.ErrSpeakerNotRegistered, http.StatusConflict, codeSpeakerNotRegistered),
		sentinelHandler(domain.ErrTransient, http.StatusServiceUnavailable, codeStoreUnavailable),
		sentinelHandler(domain.ErrProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// WithDefaultWeights sets deployment-level fusion weights for search
// requests that do not carry their own.
func (s *Server) WithDefaultWeights(w request.Weights) *Server {
	s.defaultWeights = &w
	return s
}

// Routes mounts all API routes onto the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Put("/fragments/{id}", s.UpsertFragment)
		r.Get("/fragments/{id}", s.GetFragment)
		r.Put("/fragments/{id}/speaker", s.AssignSpeaker)
		r.Get("/meetings/{meetingID}/fragments", s.ListFragmentRange)
		r.Post("/search", s.Search)
		r.Post("/speakers/match", s.MatchSpeaker)
		r.Put("/speakers/{id}", s.RegisterSpeaker)
		r.Post("/speakers/{id}/confidence", s.ConfidenceFor)
	})
}

// UpsertFragment handles PUT /v1/fragments/{id}.
func (s *Server) UpsertFragment(w http.ResponseWriter, r *http.Request) {
	var req fragmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	frag := domain.Fragment{
		ID:            chi.URLParam(r, "id"),
		MeetingID:     req.MeetingID,
		SequenceIndex: req.SequenceIndex,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		SpeakerRef:    req.SpeakerRef,
		Text:          req.Text,
		Embedding:     req.Embedding,
		ModelVersion:  req.ModelVersion,
	}

	if err := s.fragments.Emit(r.Context(), &frag); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fragmentToDTO(&frag))
}

// GetFragment handles GET /v1/fragments/{id}.
func (s *Server) GetFragment(w http.ResponseWriter, r *http.Request) {
	frag, err := s.fragments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fragmentToDTO(&frag))
}

// AssignSpeaker handles PUT /v1/fragments/{id}/speaker.
func (s *Server) AssignSpeaker(w http.ResponseWriter, r *http.Request) {
	var req assignSpeakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.fragments.Assign(r.Context(), chi.URLParam(r, "id"), req.SpeakerID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFragmentRange handles GET /v1/meetings/{meetingID}/fragments?from=&to=.
func (s *Server) ListFragmentRange(w http.ResponseWriter, r *http.Request) {
	from, err := queryInt(r, "from", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "from must be an integer")
		return
	}
	to, err := queryInt(r, "to", from)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "to must be an integer")
		return
	}

	frags, err := s.fragments.Range(r.Context(), chi.URLParam(r, "meetingID"), from, to)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]fragmentResponse, len(frags))
	for i := range frags {
		items[i] = fragmentToDTO(&frags[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"fragments": items, "total": len(items)})
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	m := mode.Mode(req.Mode)
	embedding := req.Embedding

	// Vectorize text-only queries server-side when a provider is configured
	// and the requested mode wants semantic scoring.
	if len(embedding) == 0 && req.Query != "" && s.embedder != nil &&
		(m == "" || m.UsesSemantic()) {
		res, err := s.embedder.Embed(r.Context(), req.Query)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		embedding = res.Embedding
	}

	weights := s.defaultWeights
	if req.Weights != nil {
		weights = &request.Weights{Lexical: req.Weights.Lexical, Semantic: req.Weights.Semantic}
	}

	searchReq, err := request.New(req.Query, embedding, m, req.MeetingID, req.Limit, weights)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	results, err := s.search.Search(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = resultToDTO(&results[i])
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: items, Total: len(items)})
}

// MatchSpeaker handles POST /v1/speakers/match.
func (s *Server) MatchSpeaker(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	m, err := s.speakers.Match(r.Context(), &speakeruc.MatchRequest{
		Voiceprint:   req.Voiceprint,
		ModelVersion: req.ModelVersion,
		OwnerID:      req.OwnerID,
		Threshold:    req.Threshold,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, matchResponse{
		Matched:     m.Matched,
		SpeakerID:   m.SpeakerID,
		DisplayName: m.DisplayName,
		Confidence:  m.Confidence,
	})
}

// RegisterSpeaker handles PUT /v1/speakers/{id}.
func (s *Server) RegisterSpeaker(w http.ResponseWriter, r *http.Request) {
	var req registerSpeakerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sp, err := s.speakers.Register(r.Context(), chi.URLParam(r, "id"),
		req.OwnerID, req.DisplayName, req.Voiceprint, req.ModelVersion)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, speakerResponse{
		ID:          sp.ID,
		OwnerID:     sp.OwnerID,
		DisplayName: sp.DisplayName,
		Registered:  sp.Registered,
		SampleCount: sp.SampleCount,
	})
}

// ConfidenceFor handles POST /v1/speakers/{id}/confidence.
func (s *Server) ConfidenceFor(w http.ResponseWriter, r *http.Request) {
	var req confidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	speakerID := chi.URLParam(r, "id")
	confidence, err := s.speakers.ConfidenceFor(r.Context(), speakerID, req.Voiceprint, req.ModelVersion)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, confidenceResponse{SpeakerID: speakerID, Confidence: confidence})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func fragmentToDTO(f *domain.Fragment) fragmentResponse {
	return fragmentResponse{
		ID:            f.ID,
		MeetingID:     f.MeetingID,
		SequenceIndex: f.SequenceIndex,
		StartTime:     f.StartTime,
		EndTime:       f.EndTime,
		SpeakerRef:    f.SpeakerRef,
		Text:          f.Text,
		ModelVersion:  f.ModelVersion,
	}
}

func resultToDTO(r *result.Result) searchResultItem {
	return searchResultItem{
		FragmentID:    r.FragmentID(),
		MeetingID:     r.MeetingID(),
		SequenceIndex: r.SequenceIndex(),
		StartTime:     r.StartTime(),
		EndTime:       r.EndTime(),
		SpeakerRef:    r.SpeakerRef(),
		Text:          r.Text(),
		LexicalScore:  r.LexicalScore(),
		SemanticScore: r.SemanticScore(),
		CombinedScore: r.CombinedScore(),
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrFragmentNotFound,
		domain.ErrSpeakerNotFound,
		domain.ErrDimensionMismatch,
		domain.ErrModelVersionMismatch,
		domain.ErrInvalidRange,
		domain.ErrSpeakerNotRegistered,
		domain.ErrTransient,
		domain.ErrProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
