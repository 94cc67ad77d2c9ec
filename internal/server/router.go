package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/availability"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/cache"
)

// AvailabilityReader is the slice of the availability service the day-lookup
// endpoint needs.
type AvailabilityReader interface {
	GetDay(ctx context.Context, date, location string, forceRefresh bool) ([]cache.Slot, error)
}

// SlotResolver locates one slot by identifier for deep-linked detail pages.
type SlotResolver interface {
	ResolveSlot(ctx context.Context, slotID string) (availability.SlotDetail, error)
}

// BookingInvalidator evicts cache entries after confirmed bookings.
type BookingInvalidator interface {
	InvalidateForBooking(ctx context.Context, days []availability.BookingDay)
}

// DiagnosticsReporter produces the admin cache inventory.
type DiagnosticsReporter interface {
	Report(ctx context.Context) (availability.Report, error)
}

// RouterOptions carries everything the HTTP surface dispatches to. Store is
// used directly by the admin clearing endpoints; the read paths go through
// the narrower interfaces above.
type RouterOptions struct {
	Logger            *slog.Logger
	CorrelationHeader string

	Availability AvailabilityReader
	Slots        SlotResolver
	Invalidator  BookingInvalidator
	Reporter     DiagnosticsReporter
	Store        cache.Store

	Metrics http.Handler
}

type router struct {
	logger       *slog.Logger
	availability AvailabilityReader
	slots        SlotResolver
	invalidator  BookingInvalidator
	reporter     DiagnosticsReporter
	store        cache.Store
}

// NewRouter assembles the full request mux: public availability API, booking
// webhook, admin cache surface, and operational endpoints.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rt := &router{
		logger:       logger,
		availability: opts.Availability,
		slots:        opts.Slots,
		invalidator:  opts.Invalidator,
		reporter:     opts.Reporter,
		store:        opts.Store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/availability", rt.handleGetAvailability)
	mux.HandleFunc("GET /api/slots/{slotID}", rt.handleGetSlot)
	mux.HandleFunc("POST /api/bookings/confirmed", rt.handleBookingConfirmed)
	mux.HandleFunc("GET /api/admin/cache", rt.handleCacheReport)
	mux.HandleFunc("DELETE /api/admin/cache", rt.handleCacheClearAll)
	mux.HandleFunc("DELETE /api/admin/cache/expired", rt.handleCacheClearExpired)
	mux.HandleFunc("DELETE /api/admin/cache/{date}", rt.handleCacheClearDate)
	mux.HandleFunc("GET /healthz", rt.handleHealth)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return withRequestID(opts.CorrelationHeader, logger, mux)
}

func (rt *router) handleGetAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	date := query.Get("date")
	location := query.Get("location")
	refresh := query.Get("refresh") == "true" || query.Get("refresh") == "1"

	slots, err := rt.availability.GetDay(r.Context(), date, location, refresh)
	if err != nil {
		rt.writeAvailabilityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (rt *router) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	slotID := r.PathValue("slotID")

	detail, err := rt.slots.ResolveSlot(r.Context(), slotID)
	if err != nil {
		var verr *availability.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, availability.ErrSlotNotFound):
			writeError(w, http.StatusNotFound, "slot not found")
		default:
			rt.logger.Error("slot resolution failed", "slot_id", slotID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type bookingConfirmedRequest struct {
	Bookings []availability.BookingDay `json:"bookings"`
}

// handleBookingConfirmed accepts the payment workflow's webhook. Once the
// payload parses, the response is 202 no matter what the store does; the
// booking is already final and retrying the webhook would not help.
func (rt *router) handleBookingConfirmed(w http.ResponseWriter, r *http.Request) {
	var payload bookingConfirmedRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := decoder.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(payload.Bookings) == 0 {
		writeError(w, http.StatusBadRequest, "bookings list required")
		return
	}

	rt.invalidator.InvalidateForBooking(r.Context(), payload.Bookings)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (rt *router) handleCacheReport(w http.ResponseWriter, r *http.Request) {
	report, err := rt.reporter.Report(r.Context())
	if err != nil {
		rt.logger.Error("cache report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *router) handleCacheClearAll(w http.ResponseWriter, r *http.Request) {
	if err := rt.store.DeleteAll(r.Context()); err != nil {
		rt.logger.Error("cache clear failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	rt.logger.Info("cache cleared by admin request")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (rt *router) handleCacheClearExpired(w http.ResponseWriter, r *http.Request) {
	removed, err := rt.store.SweepExpired(r.Context())
	if err != nil {
		rt.logger.Error("expired sweep failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (rt *router) handleCacheClearDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !cache.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		return
	}
	location := strings.TrimSpace(r.URL.Query().Get("location"))

	removed, err := rt.store.DeleteByDate(r.Context(), date, location)
	if err != nil {
		rt.logger.Error("date-scoped clear failed", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (rt *router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeAvailabilityError maps service errors to caller-facing statuses. The
// upstream detail stays in the logs; customers get a retryable message.
func (rt *router) writeAvailabilityError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *availability.ValidationError
	var uerr *availability.UpstreamError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &uerr):
		rt.logger.Error("upstream availability fetch failed",
			"location", uerr.Location, "date", uerr.Date, "error", uerr.Err)
		writeError(w, http.StatusBadGateway, "availability is temporarily unavailable, please try again")
	default:
		rt.logger.Error("availability lookup failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
