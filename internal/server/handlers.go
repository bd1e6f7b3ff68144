package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lightwheel10/affiliate-finder-mvp-sub004/internal/utils"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/candidate"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/searcher"
	"github.com/lightwheel10/affiliate-finder-mvp-sub004/pkg/storage"
)

// SearchBody is the inbound request payload for both delivery modes.
type SearchBody struct {
	Owner             string   `json:"owner"`
	Keyword           string   `json:"keyword"`
	Platforms         []string `json:"platforms"`
	Country           string   `json:"country"`
	Language          string   `json:"language"`
	BrandDomain       string   `json:"brandDomain"`
	CompetitorDomains []string `json:"competitorDomains"`
	BudgetSeconds     int      `json:"budgetSeconds"`
}

func (b SearchBody) toRequest() (candidate.SearchRequest, error) {
	req := candidate.SearchRequest{
		Owner:             b.Owner,
		Keyword:           b.Keyword,
		Country:           b.Country,
		Language:          b.Language,
		BrandDomain:       b.BrandDomain,
		CompetitorDomains: b.CompetitorDomains,
	}
	if req.Owner == "" {
		req.Owner = "default"
	}
	if b.BudgetSeconds > 0 {
		req.Budget = time.Duration(b.BudgetSeconds) * time.Second
	}
	for _, p := range b.Platforms {
		parsed, err := candidate.ParsePlatform(p)
		if err != nil {
			return req, err
		}
		req.Platforms = append(req.Platforms, parsed)
	}
	return req, nil
}

// endFrame is the distinguished terminal frame closing every stream.
type endFrame struct {
	Kind string `json:"kind"`
}

// handleStream runs a search and delivers events as newline-delimited JSON
// frames, flushed per event so clients and proxies see them as they happen.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var body SearchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	events, err := s.Searcher.Run(r.Context(), req)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher, _ := w.(http.Flusher)

	enc := json.NewEncoder(w)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			// Client went away; drain the channel so the searcher can finish.
			for range events {
			}
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	enc.Encode(endFrame{Kind: "end"})
	if flusher != nil {
		flusher.Flush()
	}
}

// handleStart launches a fire-and-forget search and returns a job id the
// caller polls via /api/search/status. Results land in the store.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "job mode requires a database", http.StatusServiceUnavailable)
		return
	}

	var body SearchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Mode = candidate.ModeJob
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Detach from the HTTP request: the job outlives this response.
	events, err := s.Searcher.Run(context.Background(), req)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	jobID := uuid.NewString()
	if err := s.DB.CreateSearchJob(r.Context(), jobID, req.Owner, req.Keyword, len(req.Platforms)); err != nil {
		go func() {
			for range events {
			}
		}()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	go s.trackJob(jobID, len(req.Platforms), events)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"jobId": jobID})
}

// trackJob consumes a job's event stream and mirrors progress into the
// search_jobs table.
func (s *Server) trackJob(jobID string, platformsTotal int, events <-chan searcher.Event) {
	ctx := context.Background()
	found := 0
	sawDone := false

	for ev := range events {
		switch ev.Kind {
		case searcher.EventCandidate:
			found++
			if err := s.DB.UpdateSearchJobProgress(ctx, jobID, 0, found); err != nil {
				utils.Log.Warnf("Job %s progress write failed: %v", jobID, err)
			}
		case searcher.EventDone:
			sawDone = true
			if err := s.DB.UpdateSearchJobProgress(ctx, jobID, platformsTotal, ev.Summary.Total); err != nil {
				utils.Log.Warnf("Job %s progress write failed: %v", jobID, err)
			}
		}
	}

	state := storage.JobStateCompleted
	errMsg := ""
	if !sawDone {
		state = storage.JobStateFailed
		errMsg = "stream ended without a done signal"
	}
	if err := s.DB.FinishSearchJob(ctx, jobID, state, errMsg); err != nil {
		utils.Log.Warnf("Job %s finish write failed: %v", jobID, err)
	}
	utils.Log.Infof("Job %s finished %s with %d candidates", jobID, state, found)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "job mode requires a database", http.StatusServiceUnavailable)
		return
	}
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		http.Error(w, "jobId is required", http.StatusBadRequest)
		return
	}

	job, err := s.DB.GetSearchJob(r.Context(), jobID)
	if errors.Is(err, storage.ErrJobNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jobId":           job.ID,
		"state":           job.State,
		"platformsTotal":  job.PlatformsTotal,
		"platformsDone":   job.PlatformsDone,
		"candidatesFound": job.CandidatesFound,
		"error":           job.Error,
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "results require a database", http.StatusServiceUnavailable)
		return
	}
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = "default"
	}

	rows, err := s.DB.ListByOwner(r.Context(), owner, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

// writeRequestError maps request-level failures to status codes. These are
// the only errors a caller ever sees as an explicit failure response.
func writeRequestError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, searcher.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
	case errors.Is(err, searcher.ErrUnknownPlatform),
		errors.Is(err, candidate.ErrEmptyKeyword),
		errors.Is(err, candidate.ErrNoPlatforms):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), status)
}
