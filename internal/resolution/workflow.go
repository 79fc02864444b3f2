// Package resolution drives the volunteer side of a problem's life: the
// offer-help handshake, proof submission, and the supporter notification
// fanout that follows a resolution.
package resolution

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/WardWatch/WW-Backend/internal/problem"
	"github.com/WardWatch/WW-Backend/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrAlreadyResolved = errors.New("problem already resolved")
	ErrProblemClosed   = errors.New("problem is closed")
	ErrNoOffer         = errors.New("no help offer on record; offer help before submitting proof")
	ErrImageStore      = errors.New("proof image upload failed")
)

// Workflow enforces the offer → proof → resolve sequence.
type Workflow struct {
	registry *problem.Registry
	images   storage.ImageStore
	fanout   *Fanout
}

// NewWorkflow accepts a nil image store (proof refs are then recorded as
// given) and a nil fanout (resolutions then go unannounced).
func NewWorkflow(registry *problem.Registry, images storage.ImageStore, fanout *Fanout) *Workflow {
	return &Workflow{registry: registry, images: images, fanout: fanout}
}

type OfferResult struct {
	Accepted bool           `json:"accepted"`
	Status   problem.Status `json:"status"`
}

// OfferHelp records a volunteer stepping up and moves the problem to
// IN_PROGRESS if it has not passed that point. A duplicate offer from the
// same volunteer is a successful no-op.
func (w *Workflow) OfferHelp(ctx context.Context, problemID uint, volunteer, message string) (*OfferResult, error) {
	volunteer = strings.TrimSpace(volunteer)
	if volunteer == "" {
		return nil, fmt.Errorf("%w: volunteer identity required", ErrValidation)
	}

	if _, err := w.registry.Get(ctx, problemID); err != nil {
		return nil, err
	}

	result := &OfferResult{}
	err := w.registry.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The status guard runs on the locked row, not the copy loaded above:
		// an admin rejection or a racing resolution committed in between must
		// win, never be regressed to IN_PROGRESS.
		var locked problem.Problem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, problemID).Error; err != nil {
			return fmt.Errorf("lock problem %d: %w", problemID, err)
		}
		switch locked.Status {
		case problem.StatusResolved:
			return ErrAlreadyResolved
		case problem.StatusRejected:
			return fmt.Errorf("%w: offers are not accepted on rejected problems", ErrProblemClosed)
		}
		result.Status = locked.Status

		offer := problem.ResolutionOffer{
			ProblemID: problemID,
			Volunteer: volunteer,
			Message:   strings.TrimSpace(message),
		}
		if err := tx.Create(&offer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil // repeat offer: report current state, change nothing
			}
			return fmt.Errorf("insert offer: %w", err)
		}
		result.Accepted = true

		if problem.CanTransition(locked.Status, problem.StatusInProgress) {
			if err := tx.Model(&problem.Problem{}).
				Where("id = ?", problemID).
				Update("status", problem.StatusInProgress).Error; err != nil {
				return fmt.Errorf("move to in-progress: %w", err)
			}
			result.Status = problem.StatusInProgress
		}

		return problem.AppendEvent(tx, problemID, volunteer, "offer_made", map[string]any{
			"message": offer.Message,
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Accepted {
		log.Printf("[resolution] problem %d: help offered (status=%s)", problemID, result.Status)
	}
	return result, nil
}

type ProofResult struct {
	Resolved bool             `json:"resolved"`
	ProofURL string           `json:"proof_url"`
	Problem  *problem.Problem `json:"problem"`
	Queued   bool             `json:"notifications_queued"`
}

// SubmitProof finalizes a resolution. It requires a prior offer from this
// volunteer, stores the proof image durably, fills the immutable resolution
// fields, and queues the supporter fanout. A second submission after
// resolution is reported back as already-resolved, never overwritten.
func (w *Workflow) SubmitProof(ctx context.Context, problemID uint, volunteer, proofRef, notes string) (*ProofResult, error) {
	volunteer = strings.TrimSpace(volunteer)
	proofRef = strings.TrimSpace(proofRef)
	if volunteer == "" {
		return nil, fmt.Errorf("%w: volunteer identity required", ErrValidation)
	}
	if proofRef == "" {
		return nil, fmt.Errorf("%w: proof image required", ErrValidation)
	}

	p, err := w.registry.Get(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if p.Status == problem.StatusResolved {
		return nil, ErrAlreadyResolved
	}

	var offer problem.ResolutionOffer
	err = w.registry.DB().WithContext(ctx).
		Where("problem_id = ? AND volunteer = ?", problemID, volunteer).
		First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOffer
		}
		return nil, fmt.Errorf("load offer: %w", err)
	}

	// Upload failure fails the whole submission: the problem must never be
	// half-resolved with a dangling proof reference.
	proofURL := proofRef
	if w.images != nil {
		stored, err := w.images.StoreFromURL(ctx, proofRef, fmt.Sprintf("problem-%d-proof.jpg", problemID), "image/jpeg")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImageStore, err)
		}
		proofURL = stored.URL
	}

	result := &ProofResult{ProofURL: proofURL}
	err = w.registry.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked problem.Problem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, problemID).Error; err != nil {
			return fmt.Errorf("lock problem %d: %w", problemID, err)
		}
		// Re-check under the lock: a racing submission may have resolved it.
		if locked.Status == problem.StatusResolved {
			return ErrAlreadyResolved
		}
		if !problem.CanTransition(locked.Status, problem.StatusResolved) {
			return fmt.Errorf("%w: cannot resolve from %s", ErrProblemClosed, locked.Status)
		}

		now := time.Now().UTC()
		locked.Status = problem.StatusResolved
		locked.ResolvedBy = &volunteer
		locked.ResolvedAt = &now
		locked.ResolutionNotes = strings.TrimSpace(notes)
		locked.ResolutionProof = append(locked.ResolutionProof, proofURL)
		if err := tx.Save(&locked).Error; err != nil {
			return fmt.Errorf("persist resolution: %w", err)
		}

		offer.ProofAccepted = true
		offer.ProofRefs = append(offer.ProofRefs, proofURL)
		if err := tx.Save(&offer).Error; err != nil {
			return fmt.Errorf("mark offer accepted: %w", err)
		}

		result.Problem = &locked
		return problem.AppendEvent(tx, problemID, volunteer, "resolved", map[string]any{
			"proof": proofURL,
		})
	})
	if err != nil {
		return nil, err
	}
	result.Resolved = true

	// Notification success is independent of resolution success: the commit
	// above stands whatever happens from here.
	if w.fanout != nil {
		result.Queued = w.fanout.Enqueue(Job{ProblemID: problemID, ProofURL: proofURL})
	}

	log.Printf("[resolution] problem %d resolved (fanout queued=%v)", problemID, result.Queued)
	return result, nil
}
