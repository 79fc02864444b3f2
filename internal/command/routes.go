package command

import (
	"net/http"

	"github.com/WardWatch/WW-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func (a *API) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Post("/problems", a.ReportProblem)
	r.Get("/problems", a.ListProblems)
	r.Get("/problems/{id}", a.GetProblem)
	r.Get("/problems/{id}/timeline", a.GetTimeline)
	r.Post("/problems/{id}/upvote", a.Upvote)
	r.Post("/problems/{id}/verify", a.Verify)
	r.Post("/problems/{id}/offer", a.OfferHelp)
	r.Post("/problems/{id}/proof", a.SubmitProof)
	r.Get("/leaderboard", a.GetLeaderboard)
	r.Get("/wards", a.FindWard)

	// Admin routes
	r.With(middleware.AdminOnly).Post("/problems/{id}/reject", a.RejectProblem)
	r.With(middleware.AdminOnly).Post("/boundaries/reload", a.ReloadBoundaries)

	return r
}
