// Package consensus enforces per-submitter uniqueness for upvotes and
// verifications and decides when community verification reaches consensus.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/WardWatch/WW-Backend/internal/problem"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrValidation = errors.New("validation failed")

// Engine layers the consensus rules over the problem registry. It relies on
// the store's unique constraints to settle races: the second of two
// concurrent inserts for the same (problem, identity) pair loses at commit
// and is reported as a no-op, never an error.
type Engine struct {
	registry  *problem.Registry
	threshold int
	radiusM   float64
}

func NewEngine(registry *problem.Registry, threshold int, radiusM float64) *Engine {
	return &Engine{registry: registry, threshold: threshold, radiusM: radiusM}
}

type UpvoteResult struct {
	Accepted bool `json:"accepted"`
	Count    int  `json:"count"`
}

// Upvote records a supporter's vote. A repeat vote from the same voter is a
// successful no-op carrying the current count, so transport retries are safe.
func (e *Engine) Upvote(ctx context.Context, problemID uint, voter string) (*UpvoteResult, error) {
	voter = strings.TrimSpace(voter)
	if voter == "" {
		return nil, fmt.Errorf("%w: voter identity required", ErrValidation)
	}
	if _, err := e.registry.Get(ctx, problemID); err != nil {
		return nil, err
	}

	result := &UpvoteResult{}
	err := e.registry.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Create(&problem.Upvote{ProblemID: problemID, Voter: voter}).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return tx.Model(&problem.Problem{}).
					Where("id = ?", problemID).
					Pluck("upvote_count", &result.Count).Error
			}
			return fmt.Errorf("insert upvote: %w", err)
		}

		// Same transaction as the insert: the denormalized count can never
		// drift from the row count.
		if err := tx.Model(&problem.Problem{}).
			Where("id = ?", problemID).
			UpdateColumn("upvote_count", gorm.Expr("upvote_count + 1")).Error; err != nil {
			return fmt.Errorf("increment upvote count: %w", err)
		}
		if err := tx.Model(&problem.Problem{}).
			Where("id = ?", problemID).
			Pluck("upvote_count", &result.Count).Error; err != nil {
			return err
		}

		result.Accepted = true
		return problem.AppendEvent(tx, problemID, voter, "upvoted", map[string]any{
			"count": result.Count,
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Accepted {
		log.Printf("[consensus] problem %d upvoted (count=%d)", problemID, result.Count)
	}
	return result, nil
}

type VerifyResult struct {
	Accepted         bool     `json:"accepted"`
	Count            int      `json:"count"`
	ThresholdReached bool     `json:"threshold_reached"`
	MaxSpreadM       float64  `json:"max_spread_m"`
	Accuracy         Accuracy `json:"accuracy"`
}

// Verify records an on-site confirmation with the verifier's coordinates.
// The threshold-th distinct verifier flips the problem's locationVerified
// flag; the spatial-accuracy score is recomputed for display on every accept.
func (e *Engine) Verify(ctx context.Context, problemID uint, verifier string, lat, lng float64, imageRefs []string) (*VerifyResult, error) {
	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return nil, fmt.Errorf("%w: verifier identity required", ErrValidation)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrValidation, lat, lng)
	}

	p, err := e.registry.Get(ctx, problemID)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{}
	err = e.registry.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v := problem.Verification{
			ProblemID: problemID,
			Verifier:  verifier,
			Latitude:  lat,
			Longitude: lng,
			ImageRefs: pq.StringArray(imageRefs),
		}
		if err := tx.Create(&v).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return tx.Model(&problem.Problem{}).
					Where("id = ?", problemID).
					Pluck("verification_count", &result.Count).Error
			}
			return fmt.Errorf("insert verification: %w", err)
		}

		// Lock the row so the threshold check reads the post-increment count
		// even with verifiers racing.
		var locked problem.Problem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, problemID).Error; err != nil {
			return fmt.Errorf("lock problem %d: %w", problemID, err)
		}

		result.Count = locked.VerificationCount + 1
		result.Accepted = true
		updates := map[string]any{"verification_count": result.Count}

		if result.Count >= e.threshold {
			result.ThresholdReached = true
			if !locked.LocationVerified {
				updates["location_verified"] = true
				if err := problem.AppendEvent(tx, problemID, verifier, "location_verified", map[string]any{
					"verifications": result.Count,
				}); err != nil {
					return err
				}
			}
		}

		if err := tx.Model(&problem.Problem{}).
			Where("id = ?", problemID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("update verification count: %w", err)
		}

		return problem.AppendEvent(tx, problemID, verifier, "verified", map[string]any{
			"count": result.Count,
		})
	})
	if err != nil {
		return nil, err
	}

	result.MaxSpreadM, result.Accuracy = e.scoreSpread(ctx, p, problemID)

	if result.Accepted {
		log.Printf("[consensus] problem %d verified (count=%d threshold=%v accuracy=%s)",
			problemID, result.Count, result.ThresholdReached, result.Accuracy)
	}
	return result, nil
}

// scoreSpread classifies the agreement among all verification points plus the
// originally reported point when present. Failures degrade to an empty score:
// the accepted verification already committed.
func (e *Engine) scoreSpread(ctx context.Context, p *problem.Problem, problemID uint) (float64, Accuracy) {
	var verifications []problem.Verification
	if err := e.registry.DB().WithContext(ctx).
		Where("problem_id = ?", problemID).
		Find(&verifications).Error; err != nil {
		log.Printf("[consensus] spread score skipped for %d: %v", problemID, err)
		return 0, AccuracyAccurate
	}

	points := make([][2]float64, 0, len(verifications)+1)
	for _, v := range verifications {
		points = append(points, [2]float64{v.Latitude, v.Longitude})
	}
	if p.Latitude != nil && p.Longitude != nil {
		points = append(points, [2]float64{*p.Latitude, *p.Longitude})
	}
	return ClassifySpread(points, e.radiusM)
}
