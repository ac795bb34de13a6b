package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goalcal/goalcal/internal/ai"
	"github.com/goalcal/goalcal/internal/calendar"
	"github.com/goalcal/goalcal/internal/export"
	"github.com/goalcal/goalcal/internal/planning"
	"github.com/goalcal/goalcal/internal/storage"
	"github.com/goalcal/goalcal/internal/types"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// GenerateResponse is the reply to POST /plans
type GenerateResponse struct {
	Plan     *types.GoalPlan              `json:"plan"`
	Status   ai.Status                    `json:"status"`
	Reason   string                       `json:"reason,omitempty"`
	Warnings []planning.ValidationWarning `json:"warnings,omitempty"`
}

// ScheduleUpdate is the body of PATCH /plans/{goalId}/schedule. Edit and
// Completed may be combined; at least one must be set.
type ScheduleUpdate struct {
	Ref       types.ScheduleRef   `json:"ref"`
	Edit      *types.ScheduleEdit `json:"edit,omitempty"`
	Completed *bool               `json:"completed,omitempty"`
}

// DayResponse lists the entries scheduled on one date
type DayResponse struct {
	Date    string           `json:"date"`
	Entries []calendar.Entry `json:"entries"`
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func decodeBody(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseDateParam accepts YYYY-MM-DD or "today"
func (s *Server) parseDateParam(dateStr string) (string, error) {
	if dateStr == "today" {
		return s.cfg.Now().Format(types.DateLayout), nil
	}
	if _, err := types.ParseDate(dateStr); err != nil {
		return "", fmt.Errorf("invalid date format: %s, use YYYY-MM-DD or 'today'", dateStr)
	}
	return dateStr, nil
}

// loadPlan fetches the plan named in the URL or writes a 404.
func (s *Server) loadPlan(w http.ResponseWriter, r *http.Request) (*types.GoalPlan, bool) {
	goalID := chi.URLParam(r, "goalId")
	plan, ok := s.store.Get(r.Context(), goalID)
	if !ok {
		s.respondWithError(w, http.StatusNotFound, fmt.Sprintf("plan %s not found", goalID))
		return nil, false
	}
	return plan, true
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var input types.GoalInput
	if err := decodeBody(r, &input); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.Priority == "" {
		input.Priority = types.PriorityMedium
	}
	if err := input.Validate(); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.generator.TryGenerate(r.Context(), input)
	if errors.Is(err, ai.ErrBusy) {
		s.respondWithError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.store.Save(r.Context(), result.Plan)

	resp := GenerateResponse{
		Plan:     result.Plan,
		Status:   result.Status,
		Warnings: result.Warnings,
	}
	if result.Reason != nil {
		resp.Reason = result.Reason.Error()
	}
	s.respondWithJSON(w, http.StatusCreated, resp)
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.store.List(r.Context()))
}

func (s *Server) clearPlans(w http.ResponseWriter, r *http.Request) {
	s.store.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	s.respondWithJSON(w, http.StatusOK, plan)
}

func (s *Server) deletePlan(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "goalId")
	if !s.store.Delete(r.Context(), goalID) {
		s.respondWithError(w, http.StatusNotFound, fmt.Sprintf("plan %s not found", goalID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) planSummary(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	s.respondWithJSON(w, http.StatusOK, calendar.Summarize(plan))
}

// planCalendar returns the month grid for ?month=YYYY-MM, defaulting to the
// month the plan starts in.
func (s *Server) planCalendar(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}

	var month time.Time
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := time.Parse("2006-01", m)
		if err != nil {
			s.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid month format: %s, use YYYY-MM", m))
			return
		}
		month = parsed
	} else if start, err := types.ParseDate(plan.StartDate); err == nil {
		month = start
	} else {
		month = s.cfg.Now()
	}

	grid := calendar.Month(month.Year(), month.Month(), calendar.IndexByDate(plan), s.cfg.Now())
	s.respondWithJSON(w, http.StatusOK, grid)
}

func (s *Server) planDay(w http.ResponseWriter, r *http.Request) {
	date, err := s.parseDateParam(chi.URLParam(r, "date"))
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	s.respondWithJSON(w, http.StatusOK, DayResponse{
		Date:    date,
		Entries: calendar.IndexByDate(plan).EntriesOn(date),
	})
}

func (s *Server) patchSchedule(w http.ResponseWriter, r *http.Request) {
	var update ScheduleUpdate
	if err := decodeBody(r, &update); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if (update.Edit == nil || update.Edit.IsEmpty()) && update.Completed == nil {
		s.respondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	goalID := chi.URLParam(r, "goalId")
	plan, err := s.store.Update(r.Context(), goalID, func(p *types.GoalPlan) error {
		if update.Edit != nil && !update.Edit.IsEmpty() {
			if err := p.EditSchedule(update.Ref, *update.Edit); err != nil {
				return err
			}
		}
		if update.Completed != nil {
			return p.SetCompleted(update.Ref, *update.Completed)
		}
		return nil
	})
	if err != nil {
		s.respondWithUpdateError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, plan)
}

func (s *Server) putProgress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Progress *int `json:"progress"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Progress == nil {
		s.respondWithError(w, http.StatusBadRequest, "progress is required")
		return
	}

	plan, err := s.store.Update(r.Context(), chi.URLParam(r, "goalId"), func(p *types.GoalPlan) error {
		p.SetProgress(*body.Progress)
		return nil
	})
	if err != nil {
		s.respondWithUpdateError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, plan)
}

func (s *Server) respondWithUpdateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrPlanNotFound), errors.Is(err, types.ErrScheduleNotFound):
		s.respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrUnavailable):
		s.respondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.respondWithError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) exportICS(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}

	filename, content, _, err := export.Render(plan, s.cfg.Export)
	if err != nil {
		s.respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if content == nil {
		s.respondWithError(w, http.StatusUnprocessableEntity, "计划中没有可同步的任务")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="goal.ics"; filename*=UTF-8''%s`, url.PathEscape(filename)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

func (s *Server) exportInstructions(w http.ResponseWriter, r *http.Request) {
	device := export.DetectDevice(r.UserAgent())
	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"device":       string(device),
		"instructions": export.Instructions(device),
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"circuit": s.generator.CircuitState().String(),
	})
}
