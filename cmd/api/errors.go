package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/manager"
	"eventconnect/internal/mapview"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) badGatewayResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("upstream error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusBadGateway, "the events service is unavailable, try again later")
}

func (app *application) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("service unavailable", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusServiceUnavailable, err.Error())
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter.String())
}

// errorResponse maps listing and map errors onto status codes.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var verr *events.ValidationError
	switch {
	case errors.As(err, &verr):
		app.badRequestResponse(w, r, verr)
	case events.IsUpstream(err):
		app.badGatewayResponse(w, r, err)
	case errors.Is(err, manager.ErrSuperseded):
		app.conflictResponse(w, r, err)
	case errors.Is(err, manager.ErrNotStarted):
		app.serviceUnavailableResponse(w, r, err)
	case errors.Is(err, mapview.ErrUnknownMarker):
		app.notFoundResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
