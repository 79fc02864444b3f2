package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/WardWatch/WW-Backend/internal/boundary"
	"github.com/WardWatch/WW-Backend/internal/consensus"
	"github.com/WardWatch/WW-Backend/internal/dedup"
	"github.com/WardWatch/WW-Backend/internal/geo"
	"github.com/WardWatch/WW-Backend/internal/leaderboard"
	"github.com/WardWatch/WW-Backend/internal/problem"
	"github.com/WardWatch/WW-Backend/internal/resolution"
)

// ErrDuplicateDelivery marks an inbound command suppressed by the idempotency
// guard. Callers answer neutrally and move on; nothing was processed.
var ErrDuplicateDelivery = errors.New("duplicate delivery suppressed")

// Engine wires the lifecycle components behind the operation contracts in one
// place. It owns no state of its own.
type Engine struct {
	Guard       *dedup.Guard
	Resolver    *geo.Resolver
	Registry    *problem.Registry
	Consensus   *consensus.Engine
	Workflow    *resolution.Workflow
	Layers      *boundary.Layers
	Leaderboard *leaderboard.Aggregator
}

// Dispatch routes one command through the guard and into the matching
// operation. The type switch is exhaustive over the closed command set;
// an unknown type is a programming error, not an input error.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if e.Guard != nil && !e.Guard.ShouldProcess(ctx, cmd.Submitter(), cmd.Payload()) {
		return nil, ErrDuplicateDelivery
	}

	switch c := cmd.(type) {
	case Report:
		return e.ReportProblem(ctx, c)
	case Upvote:
		return e.Consensus.Upvote(ctx, c.ProblemID, c.Voter)
	case Verify:
		return e.Consensus.Verify(ctx, c.ProblemID, c.Verifier, c.Lat, c.Lng, c.ImageRefs)
	case OfferHelp:
		return e.Workflow.OfferHelp(ctx, c.ProblemID, c.Volunteer, c.Message)
	case SubmitProof:
		return e.Workflow.SubmitProof(ctx, c.ProblemID, c.Volunteer, c.ProofRef, c.Notes)
	default:
		return nil, fmt.Errorf("unhandled command type %T", cmd)
	}
}

// ReportProblem resolves the report's geodata and registers the problem.
func (e *Engine) ReportProblem(ctx context.Context, c Report) (*problem.Problem, error) {
	loc := e.Resolver.Resolve(ctx, geo.Input{Lat: c.Lat, Lng: c.Lng, Text: c.LocationText})
	return e.Registry.Create(ctx, c.Reporter, c.Title, c.Description, loc)
}

// FindWard answers the mapping collaborators' point lookup.
func (e *Engine) FindWard(lat, lng float64) *boundary.Feature {
	return e.Layers.FindWard(lat, lng)
}
