package main

import (
	"fmt"
	"net/http"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/manager"
	"eventconnect/internal/mapview"

	"github.com/go-chi/chi/v5"
)

type mapResponse struct {
	Position events.Position `json:"position"`
	Map      mapview.State   `json:"map"`
}

type detailResponse struct {
	Event     events.RawEvent           `json:"event"`
	Attendees []events.AttendeeLocation `json:"attendees"`
	Map       mapview.State             `json:"map"`
}

type markerEventResponse struct {
	Navigate string        `json:"navigate,omitempty"`
	Map      mapview.State `json:"map"`
}

func asDrawable(m mapview.Map) (drawable, error) {
	d, ok := m.(drawable)
	if !ok {
		return nil, fmt.Errorf("map %T cannot be drawn", m)
	}
	return d, nil
}

// GetMap godoc
//
//	@Summary		Listing map
//	@Description	Center, zoom, markers and open info window of the listing map.
//	@Tags			Map
//	@Produce		json
//	@Success		200	{object}	mapResponse
//	@Failure		503	{object}	error	"Not started"
//	@Router			/map [get]
func (app *application) mapHandler(w http.ResponseWriter, r *http.Request) {
	m := app.manager.Map()
	if m == nil {
		app.errorResponse(w, r, manager.ErrNotStarted)
		return
	}
	d, err := asDrawable(m)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := mapResponse{Position: app.manager.Position(), Map: d.Snapshot()}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// MarkerEvent godoc
//
//	@Summary		Replay a marker interaction
//	@Description	Fires click, mouseover or mouseout on a marker of the listing map or of the last opened detail map.
//	@Tags			Map
//	@Produce		json
//	@Param			markerID	path		string	true	"Marker handle"
//	@Param			action		path		string	true	"click | mouseover | mouseout"
//	@Success		200			{object}	markerEventResponse
//	@Failure		400			{object}	error	"Unknown action"
//	@Failure		404			{object}	error	"Unknown marker"
//	@Router			/map/markers/{markerID}/{action} [post]
func (app *application) markerEventHandler(w http.ResponseWriter, r *http.Request) {
	h := mapview.MarkerHandle(chi.URLParam(r, "markerID"))
	action := chi.URLParam(r, "action")

	ev, ok := mapview.ParseEventType(action)
	if !ok {
		app.badRequestResponse(w, r, fmt.Errorf("unknown marker action %q", action))
		return
	}

	target := app.mapWithMarker(h)
	if target == nil {
		app.errorResponse(w, r, mapview.ErrUnknownMarker)
		return
	}

	route, err := app.navigator.capture(func() error { return target.Trigger(h, ev) })
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	resp := markerEventResponse{Navigate: route, Map: target.Snapshot()}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) mapWithMarker(h mapview.MarkerHandle) drawable {
	if m := app.manager.Map(); m != nil {
		if d, err := asDrawable(m); err == nil && d.Has(h) {
			return d
		}
	}

	app.detailMu.Lock()
	page := app.detail
	app.detailMu.Unlock()
	if page != nil {
		if d, err := asDrawable(page.Map); err == nil && d.Has(h) {
			return d
		}
	}
	return nil
}

// EventDetails godoc
//
//	@Summary		Event details
//	@Description	The event and a map of where its attendees are.
//	@Tags			Events
//	@Produce		json
//	@Param			eventID	path		string	true	"Event ID"
//	@Success		200		{object}	detailResponse
//	@Failure		502		{object}	error	"Events backend unavailable"
//	@Router			/events/{eventID} [get]
func (app *application) eventDetailsHandler(w http.ResponseWriter, r *http.Request) {
	id := events.EventID(chi.URLParam(r, "eventID"))

	page, err := app.details.Load(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}
	d, err := asDrawable(page.Map)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.detailMu.Lock()
	app.detail = page
	app.detailMu.Unlock()

	resp := detailResponse{Event: page.Event, Attendees: page.Attendees, Map: d.Snapshot()}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
