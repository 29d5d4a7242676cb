package stubserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"viveo/internal/domain"
)

type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

type wireJob struct {
	ID          string `json:"id"`
	Prompt      string `json:"prompt"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CreditsUsed int    `json:"creditsUsed"`
	VideoURL    string `json:"videoUrl,omitempty"`
	CreatedAt   string `json:"createdAt"`
	CompletedAt string `json:"completedAt,omitempty"`
}

type wireLedgerEntry struct {
	ID           string `json:"id"`
	Amount       int    `json:"amount"`
	BalanceAfter int    `json:"balanceAfter"`
	Type         string `json:"type"`
	ReferenceID  string `json:"referenceId,omitempty"`
	Description  string `json:"description,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// Router builds the HTTP surface matching the backend contract.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	if s.requireToken != "" {
		r.Use(s.authenticate)
	}

	r.Route("/video", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Get("/history", s.handleJobHistory)
		r.Get("/{id}", s.handleGetJob)
	})

	r.Route("/wallet", func(r chi.Router) {
		r.Get("/balance", s.handleBalance)
		r.Post("/add", s.handleAddCredits)
		r.Get("/history", s.handleLedgerHistory)
	})

	return r
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != s.requireToken {
			s.error(w, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt          string `json:"prompt"`
		DurationSeconds int    `json:"durationSeconds"`
		AspectRatio     string `json:"aspectRatio"`
		Style           string `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	job, err := s.createJob(strings.TrimSpace(req.Prompt), req.DurationSeconds, req.AspectRatio, req.Style)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			s.error(w, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS", "not enough credits for this job")
			return
		}
		s.error(w, http.StatusInternalServerError, "internal", "failed to create job")
		return
	}
	s.json(w, http.StatusCreated, map[string]any{"job": encodeJob(job)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.getJob(id)
	if !ok {
		s.error(w, http.StatusNotFound, "not_found", "unknown job id")
		return
	}
	s.json(w, http.StatusOK, map[string]any{"job": encodeJob(job)})
}

func (s *Server) handleJobHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)
	jobs, total := s.jobPage(limit, offset)
	encoded := make([]wireJob, 0, len(jobs))
	for _, job := range jobs {
		encoded = append(encoded, encodeJob(job))
	}
	s.json(w, http.StatusOK, map[string]any{
		"jobs":   encoded,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	credits, plan := s.balance()
	s.json(w, http.StatusOK, map[string]any{"credits": credits, "plan": plan})
}

func (s *Server) handleAddCredits(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount    int    `json:"amount"`
		PaymentID string `json:"paymentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Amount <= 0 {
		s.error(w, http.StatusBadRequest, "bad_request", "amount must be positive")
		return
	}
	credits := s.addCredits(req.Amount, req.PaymentID)
	s.json(w, http.StatusOK, map[string]any{"credits": credits, "added": req.Amount})
}

func (s *Server) handleLedgerHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)
	entries, total := s.ledgerPage(limit, offset)
	encoded := make([]wireLedgerEntry, 0, len(entries))
	for _, entry := range entries {
		encoded = append(encoded, encodeLedgerEntry(entry))
	}
	s.json(w, http.StatusOK, map[string]any{
		"entries": encoded,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: v})
}

func (s *Server) error(w http.ResponseWriter, code int, errCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   map[string]string{"code": errCode, "message": msg},
	})
}

func encodeJob(job *stubJob) wireJob {
	out := wireJob{
		ID:          job.id,
		Prompt:      job.prompt,
		Status:      string(job.status),
		Progress:    job.progress,
		CreditsUsed: job.creditsUsed,
		VideoURL:    job.videoURL,
		CreatedAt:   job.createdAt.UTC().Format(time.RFC3339),
	}
	if !job.completedAt.IsZero() {
		out.CompletedAt = job.completedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func encodeLedgerEntry(entry domain.LedgerEntry) wireLedgerEntry {
	return wireLedgerEntry{
		ID:           entry.ID,
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		Type:         string(entry.Type),
		ReferenceID:  entry.ReferenceID,
		Description:  entry.Description,
		CreatedAt:    entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
