package command

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/WardWatch/WW-Backend/internal/consensus"
	"github.com/WardWatch/WW-Backend/internal/leaderboard"
	"github.com/WardWatch/WW-Backend/internal/problem"
	"github.com/WardWatch/WW-Backend/internal/resolution"
	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDuplicateDelivery):
		// Neutral response: the original delivery already answered.
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]bool{"duplicate": true})
	case errors.Is(err, problem.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, problem.ErrValidation),
		errors.Is(err, consensus.ErrValidation),
		errors.Is(err, resolution.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, resolution.ErrNoOffer):
		http.Error(w, err.Error(), http.StatusPreconditionFailed)
	case errors.Is(err, resolution.ErrAlreadyResolved),
		errors.Is(err, resolution.ErrProblemClosed),
		errors.Is(err, problem.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, resolution.ErrImageStore):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		log.Printf("[api] internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func problemID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	return uint(id), err == nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

// API carries the handler dependencies: the engine for writes, the registry
// and aggregator for reads.
type API struct {
	Engine *Engine
}

func (a *API) ReportProblem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reporter     string   `json:"reporter"`
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		LocationText string   `json:"location_text"`
		Lat          *float64 `json:"lat"`
		Lng          *float64 `json:"lng"`
	}
	if !decode(w, r, &body) {
		return
	}

	result, err := a.Engine.Dispatch(r.Context(), Report{
		Reporter:     body.Reporter,
		Title:        body.Title,
		Description:  body.Description,
		LocationText: body.LocationText,
		Lat:          body.Lat,
		Lng:          body.Lng,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

func (a *API) Upvote(w http.ResponseWriter, r *http.Request) {
	id, ok := problemID(r)
	if !ok {
		http.Error(w, "bad problem id", http.StatusBadRequest)
		return
	}
	var body struct {
		Voter string `json:"voter"`
	}
	if !decode(w, r, &body) {
		return
	}

	result, err := a.Engine.Dispatch(r.Context(), Upvote{ProblemID: id, Voter: body.Voter})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (a *API) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := problemID(r)
	if !ok {
		http.Error(w, "bad problem id", http.StatusBadRequest)
		return
	}
	var body struct {
		Verifier  string   `json:"verifier"`
		Lat       *float64 `json:"lat"`
		Lng       *float64 `json:"lng"`
		ImageRefs []string `json:"image_refs"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Lat == nil || body.Lng == nil {
		http.Error(w, "lat and lng are required", http.StatusBadRequest)
		return
	}

	result, err := a.Engine.Dispatch(r.Context(), Verify{
		ProblemID: id,
		Verifier:  body.Verifier,
		Lat:       *body.Lat,
		Lng:       *body.Lng,
		ImageRefs: body.ImageRefs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (a *API) OfferHelp(w http.ResponseWriter, r *http.Request) {
	id, ok := problemID(r)
	if !ok {
		http.Error(w, "bad problem id", http.StatusBadRequest)
		return
	}
	var body struct {
		Volunteer string `json:"volunteer"`
		Message   string `json:"message"`
	}
	if !decode(w, r, &body) {
		return
	}

	result, err := a.Engine.Dispatch(r.Context(), OfferHelp{ProblemID: id, Volunteer: body.Volunteer, Message: body.Message})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (a *API) SubmitProof(w http.ResponseWriter, r *http.Request) {
	id, ok := problemID(r)
	if !ok {
		http.Error(w, "bad problem id", http.StatusBadRequest)
		return
	}
	var body struct {
		Volunteer string `json:"volunteer"`
		ProofRef  string `json:"proof_ref"`
		Notes     string `json:"notes"`
	}
	if !decode(w, r, &body) {
		return
	}

	result, err := a.Engine.Dispatch(r.Context(), SubmitProof{
		ProblemID: id,
		Volunteer: body.Volunteer,
		ProofRef:  body.ProofRef,
		Notes:     body.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (a *API) GetProblem(w http.ResponseWriter, r *http.Request) {
	id, ok := problemID(r)
	if !ok {
		http.Error(w, "bad problem id", http.StatusBadRequest)
		return
	}
	p, err := a.Engine.Registry.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, p)
}

func (a *API) ListProblems(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := problem.Status(r.URL.Query().Get("status"))

	problems, err := a.Engine.Registry.List(r.Context(), status, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, problems)
}

func (a *API) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := problemID(r)
	if !ok {
		http.Error(w, "bad problem id", http.StatusBadRequest)
		return
	}
	events, err := a.Engine.Registry.Timeline(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, events)
}

func (a *API) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	metric, err := leaderboard.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := a.Engine.Leaderboard.Top(r.Context(), metric, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, entries)
}

func (a *API) FindWard(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		http.Error(w, "lat and lng query params are required", http.StatusBadRequest)
		return
	}

	ward := a.Engine.FindWard(lat, lng)
	if ward == nil {
		http.Error(w, "no ward contains this point", http.StatusNotFound)
		return
	}
	writeJSON(w, ward)
}

// RejectProblem is the administrative sideways transition.
func (a *API) RejectProblem(w http.ResponseWriter, r *http.Request) {
	id, ok := problemID(r)
	if !ok {
		http.Error(w, "bad problem id", http.StatusBadRequest)
		return
	}
	p, err := a.Engine.Registry.Transition(r.Context(), id, problem.StatusRejected, "admin")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, p)
}

// ReloadBoundaries re-reads the boundary datasets from disk.
func (a *API) ReloadBoundaries(w http.ResponseWriter, r *http.Request) {
	if err := a.Engine.Layers.ReloadAll(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"reloaded": true})
}
