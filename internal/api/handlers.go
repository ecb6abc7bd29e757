package api

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"talknote/internal/deps"
	"talknote/internal/logging"
	"talknote/internal/workflow"
)

// maxFollowWait bounds how long a follow=1 log request blocks.
const maxFollowWait = 25 * time.Second

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	if s.jobs == nil {
		s.writeError(w, http.StatusServiceUnavailable, "job execution unavailable")
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		req workflow.Request
		err error
	)
	switch mediaType {
	case "multipart/form-data":
		req, err = s.saveUpload(r)
	case "application/json", "":
		req, err = decodeURLSubmission(r)
	default:
		s.writeError(w, http.StatusUnsupportedMediaType, "expected multipart/form-data or application/json")
		return
	}
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	req.Owner = owner

	id, err := s.jobs.Submit(r.Context(), req)
	if err != nil {
		if req.RemoveSource {
			discardUpload(req.Source)
		}
		s.writeFailure(w, r, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("job accepted",
		logging.String(logging.FieldEventType, "job_accepted"),
		logging.String(logging.FieldJobID, id),
		logging.String("owner", owner),
	)
	s.writeJSON(w, http.StatusAccepted, SubmitResponse{JobID: id})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	jobs, err := s.store.ListVisible(r.Context(), owner)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, JobListResponse{Jobs: FromJobsHistory(jobs)})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, JobResponse{Job: FromJob(job)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := workflow.LoadStatus(r.Context(), s.store, r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, FromStatusView(view))
}

func (s *Server) handleHide(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	hidden, err := s.store.Hide(r.Context(), r.PathValue("id"), owner)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if !hidden {
		s.writeError(w, http.StatusNotFound, "job not found or not owned by caller")
		return
	}
	s.writeJSON(w, http.StatusOK, HideResponse{Hidden: 1})
}

func (s *Server) handleHideAll(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	count, err := s.store.HideAll(r.Context(), owner)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, HideResponse{Hidden: count})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeJSON(w, http.StatusOK, LogStreamResponse{Events: []LogEvent{}})
		return
	}
	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 200
	}
	follow := query.Get("follow") == "1" || strings.EqualFold(query.Get("follow"), "true")
	jobID := strings.TrimSpace(query.Get("job"))

	ctx := r.Context()
	if follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxFollowWait)
		defer cancel()
	}
	raw, next, err := s.hub.Fetch(ctx, since, jobID, follow)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(raw) > limit {
		raw = raw[len(raw)-limit:]
	}
	s.writeJSON(w, http.StatusOK, LogStreamResponse{Events: convertLogEvents(raw), Next: next})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", JobCounts: map[string]int{}}
	if s.store != nil {
		resp.LedgerPath = s.store.Path()
		if err := s.store.Ping(r.Context()); err != nil {
			resp.LedgerError = err.Error()
		} else {
			resp.LedgerOK = true
			if stats, err := s.store.Stats(r.Context()); err == nil {
				resp.JobCounts = FromStats(stats)
			}
		}
	}
	if s.jobs != nil {
		resp.ActiveJobs = s.jobs.Active()
	}
	statuses := deps.CheckBinaries(deps.Requirements(s.cfg))
	resp.Dependencies = FromDependencies(statuses)

	code := http.StatusOK
	if !resp.LedgerOK || len(deps.Missing(statuses)) > 0 {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, resp)
}
