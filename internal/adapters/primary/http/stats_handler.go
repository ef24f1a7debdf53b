package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/lorrc/service-desk-analytics/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-analytics/internal/adapters/primary/validation"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
)

// StatsHandler serves statistics recompute and report endpoints.
type StatsHandler struct {
	statsService ports.StatsService
	errorHandler *ErrorHandler
	logger       *slog.Logger
	location     *time.Location
}

// NewStatsHandler creates a new StatsHandler. Short dates in query
// parameters are read in loc.
func NewStatsHandler(
	statsService ports.StatsService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
	loc *time.Location,
) *StatsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsHandler{
		statsService: statsService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "stats"),
		location:     loc,
	}
}

// RegisterRoutes registers the /stats routes.
func (h *StatsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tickets/recompute-open", h.HandleRecomputeOpenTickets)
	r.Post("/tickets/{ticketID}/recompute", h.HandleRecomputeTicket)
	r.Post("/daily/recompute", h.HandleRecomputeDay)
	r.Post("/daily/backfill", h.HandleBackfill)
	r.Get("/report", h.HandleRangeReport)
	r.Get("/new-tickets", h.HandleNewTicketCounts)
	r.Get("/users/{userID}/tickets", h.HandleUserTicketStats)
}

// HandleRecomputeTicket handles POST /stats/tickets/{ticketID}/recompute.
func (h *StatsHandler) HandleRecomputeTicket(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.getAuth(w, r)
	if !ok {
		return
	}

	ticketID, err := validation.ParseTicketID(chi.URLParam(r, "ticketID"))
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	stats, err := h.statsService.RecomputeTicket(r.Context(), auth, ticketID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, toTicketStatsDTO(stats))
}

// HandleRecomputeOpenTickets handles POST /stats/tickets/recompute-open.
// The sweep runs in the background unless wait=true is passed.
func (h *StatsHandler) HandleRecomputeOpenTickets(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.getAuth(w, r)
	if !ok {
		return
	}

	v := validation.NewValidator()
	wait := r.URL.Query().Get("wait")
	v.OneOf("wait", wait, []string{"true", "false"})
	if HandleError(w, r, v.Err(), h.errorHandler) {
		return
	}

	if wait == "true" {
		summary, err := h.statsService.RecomputeOpenTickets(r.Context(), auth)
		if HandleError(w, r, err, h.errorHandler) {
			return
		}
		WriteJSON(w, http.StatusOK, SweepSummaryDTO{Processed: summary.Processed, Failed: summary.Failed})
		return
	}

	if HandleError(w, r, h.statsService.StartOpenTicketSweep(r.Context(), auth), h.errorHandler) {
		return
	}
	h.logger.InfoContext(r.Context(), "open ticket sweep started")
	WriteAccepted(w, "Open ticket recompute started")
}

// HandleRecomputeDay handles POST /stats/daily/recompute?date=. A missing
// date rebuilds yesterday.
func (h *StatsHandler) HandleRecomputeDay(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.getAuth(w, r)
	if !ok {
		return
	}

	v := validation.NewValidator()
	day := v.OptionalDate(r, "date", h.location)
	v.Custom("date", !day.After(time.Now()), "Must not be in the future")
	if HandleError(w, r, v.Err(), h.errorHandler) {
		return
	}

	stats, err := h.statsService.RecomputeDay(r.Context(), auth, day)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, toDailyStatsDTO(stats))
}

// HandleBackfill handles POST /stats/daily/backfill?from=.
func (h *StatsHandler) HandleBackfill(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.getAuth(w, r)
	if !ok {
		return
	}

	v := validation.NewValidator()
	from := v.OptionalDate(r, "from", h.location)
	v.Custom("from", !from.After(time.Now()), "Must not be in the future")
	if HandleError(w, r, v.Err(), h.errorHandler) {
		return
	}

	if HandleError(w, r, h.statsService.StartBackfill(r.Context(), auth, from), h.errorHandler) {
		return
	}
	h.logger.InfoContext(r.Context(), "daily backfill started", "from", from)
	WriteAccepted(w, "Daily backfill started")
}

// HandleRangeReport handles GET /stats/report?start=&end=&unit=.
func (h *StatsHandler) HandleRangeReport(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.getAuth(w, r)
	if !ok {
		return
	}

	params, err := h.rangeParams(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	reports, err := h.statsService.GetRangeReport(r.Context(), auth, params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteList(w, toRangeReportDTOs(reports))
}

// HandleNewTicketCounts handles GET /stats/new-tickets?start=&end=&unit=.
func (h *StatsHandler) HandleNewTicketCounts(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.getAuth(w, r)
	if !ok {
		return
	}

	params, err := h.rangeParams(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	counts, err := h.statsService.GetNewTicketCounts(r.Context(), auth, params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteList(w, toBucketCountDTOs(counts))
}

// HandleUserTicketStats handles GET /stats/users/{userID}/tickets?start=&end=.
// The literal "me" resolves to the caller.
func (h *StatsHandler) HandleUserTicketStats(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.getAuth(w, r)
	if !ok {
		return
	}

	var userID uuid.UUID
	if raw := chi.URLParam(r, "userID"); raw == "me" {
		userID = auth.UserID
	} else {
		id, err := validation.ParseUUID(raw, "user ID")
		if HandleError(w, r, err, h.errorHandler) {
			return
		}
		userID = id
	}

	v := validation.NewValidator()
	start := v.Date(r, "start", h.location)
	end := v.Date(r, "end", h.location)
	if HandleError(w, r, v.Err(), h.errorHandler) {
		return
	}

	stats, err := h.statsService.GetUserTicketStats(r.Context(), auth, userID, domain.DateRange{Start: start, End: end})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteList(w, toTicketStatsDTOs(stats))
}

func (h *StatsHandler) rangeParams(r *http.Request) (ports.RangeParams, error) {
	v := validation.NewValidator()
	params := ports.RangeParams{
		Start: v.Date(r, "start", h.location),
		End:   v.Date(r, "end", h.location),
		Unit:  v.TimeUnit(r, "unit", domain.UnitDay),
	}
	return params, v.Err()
}

// getAuth resolves the caller from the validated token.
func (h *StatsHandler) getAuth(w http.ResponseWriter, r *http.Request) (domain.AuthContext, bool) {
	auth, ok := mw.GetAuthContext(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Not authorized"))
		return domain.AuthContext{}, false
	}
	return auth, true
}
