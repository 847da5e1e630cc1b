package main

import (
	"net/http"

	"eventconnect/internal/domain/events"
	"eventconnect/internal/params"
	"eventconnect/internal/render"
)

type listingResponse struct {
	Cards      []render.Card         `json:"cards"`
	Pagination params.Pagination     `json:"pagination"`
	Criteria   events.FilterCriteria `json:"criteria"`
	Position   events.Position       `json:"position"`
}

func (app *application) listing(r *http.Request) listingResponse {
	p := params.ParsePagination(r.URL.Query())
	cards := params.Page(&p, app.manager.Cards())
	return listingResponse{
		Cards:      cards,
		Pagination: p,
		Criteria:   app.manager.Criteria(),
		Position:   app.manager.Position(),
	}
}

// ListEvents godoc
//
//	@Summary		Current listing
//	@Description	Returns the cards of the currently rendered listing, paginated, with the criteria that produced them.
//	@Tags			Events
//	@Produce		json
//	@Param			page	query		int	false	"Page number"
//	@Param			limit	query		int	false	"Cards per page"
//	@Success		200		{object}	listingResponse
//	@Router			/events [get]
func (app *application) listEventsHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.jsonResponse(w, http.StatusOK, app.listing(r)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// SearchEvents godoc
//
//	@Summary		Apply filters
//	@Description	Validates a filter form, fetches and enriches matching events and replaces the listing and map markers.
//	@Tags			Events
//	@Accept			json
//	@Produce		json
//	@Param			filters	body		events.FilterForm	true	"Filters"
//	@Success		200		{object}	listingResponse
//	@Failure		400		{object}	error	"Invalid filters"
//	@Failure		409		{object}	error	"Superseded by a newer search"
//	@Failure		502		{object}	error	"Events backend unavailable"
//	@Router			/events/search [post]
func (app *application) searchEventsHandler(w http.ResponseWriter, r *http.Request) {
	var form events.FilterForm
	if err := readJSON(w, r, &form); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	app.submit(w, r, form)
}

// searchEventsQueryHandler accepts the same filters as query parameters, the way the
// search form submits them.
func (app *application) searchEventsQueryHandler(w http.ResponseWriter, r *http.Request) {
	app.submit(w, r, params.ParseFilterForm(r.URL.Query()))
}

func (app *application) submit(w http.ResponseWriter, r *http.Request, form events.FilterForm) {
	if err := app.manager.Submit(r.Context(), form); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, app.listing(r)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// RefreshEvents godoc
//
//	@Summary		Reload listing
//	@Description	Re-runs the current criteria and re-renders.
//	@Tags			Events
//	@Produce		json
//	@Success		200	{object}	listingResponse
//	@Failure		409	{object}	error	"A search is in flight"
//	@Failure		502	{object}	error	"Events backend unavailable"
//	@Router			/events/refresh [post]
func (app *application) refreshEventsHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.manager.Refresh(r.Context()); err != nil {
		app.errorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, app.listing(r)); err != nil {
		app.internalServerError(w, r, err)
	}
}
