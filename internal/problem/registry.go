package problem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/WardWatch/WW-Backend/internal/boundary"
	"github.com/WardWatch/WW-Backend/internal/geo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate row-locks the problem while a transition's guard runs.
var forUpdate = clause.Locking{Strength: "UPDATE"}

var (
	ErrNotFound          = errors.New("problem not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
)

// statusRank orders the forward lifecycle. REJECTED sits outside the ladder:
// reachable from any non-terminal state, terminal itself.
var statusRank = map[Status]int{
	StatusReported:   0,
	StatusInReview:   1,
	StatusInProgress: 2,
	StatusResolved:   3,
}

// CanTransition reports whether moving from one status to another is allowed.
// Statuses never regress, terminal states never change.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	if from == StatusResolved || from == StatusRejected {
		return false
	}
	if to == StatusRejected {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// Registry owns the Problem entity: it is the only writer of persisted
// problem state, and every creation and transition lands a timeline event in
// the same transaction.
type Registry struct {
	db     *gorm.DB
	layers *boundary.Layers
}

func NewRegistry(db *gorm.DB, layers *boundary.Layers) *Registry {
	return &Registry{db: db, layers: layers}
}

// DB exposes the registry's handle for components that persist through its
// transactional boundary (consensus, resolution workflow).
func (r *Registry) DB() *gorm.DB { return r.db }

// Create persists a new problem from a report. loc may be nil (no geodata);
// boundary assignment happens here when the location carries coordinates.
func (r *Registry) Create(ctx context.Context, reporter, title, description string, loc *geo.Result) (*Problem, error) {
	reporter = strings.TrimSpace(reporter)
	title = strings.TrimSpace(title)
	if reporter == "" {
		return nil, fmt.Errorf("%w: reporter identity required", ErrValidation)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}

	p := &Problem{
		Reporter:    reporter,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      StatusReported,
	}

	if loc != nil {
		p.LocationText = loc.NormalizedText
		p.Latitude = loc.Lat
		p.Longitude = loc.Lng
		p.LocationVerified = loc.Verified()
		src := string(loc.Source)
		p.LocationSource = &src

		if loc.Lat != nil && loc.Lng != nil {
			if ward := r.layers.FindWard(*loc.Lat, *loc.Lng); ward != nil {
				p.Ward = ward.Name
			}
			if district := r.layers.FindDistrict(*loc.Lat, *loc.Lng); district != nil {
				p.District = district.Name
			}
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("create problem: %w", err)
		}
		return appendEvent(tx, p.ID, reporter, "reported", map[string]any{
			"title": title,
			"ward":  p.Ward,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[registry] problem %d reported by %s (ward=%q verified=%v)",
		p.ID, maskLog(reporter), p.Ward, p.LocationVerified)
	return p, nil
}

// Get loads one problem by id.
func (r *Registry) Get(ctx context.Context, id uint) (*Problem, error) {
	var p Problem
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load problem %d: %w", id, err)
	}
	return &p, nil
}

// List returns problems newest first, optionally filtered by status.
func (r *Registry) List(ctx context.Context, status Status, limit, offset int) ([]Problem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []Problem
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	return out, nil
}

// Transition moves a problem to target, enforcing the forward-only machine.
// The status check and update run in one transaction with a row lock so two
// racing transitions cannot both pass the guard.
func (r *Registry) Transition(ctx context.Context, id uint, target Status, actor string) (*Problem, error) {
	var p Problem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate).First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load problem %d: %w", id, err)
		}

		if !CanTransition(p.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, target)
		}

		from := p.Status
		p.Status = target
		if err := tx.Model(&p).Update("status", target).Error; err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return appendEvent(tx, p.ID, actor, "status_changed", map[string]any{
			"from": from,
			"to":   target,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[registry] problem %d -> %s (by %s)", p.ID, target, maskLog(actor))
	return &p, nil
}

// Timeline returns a problem's audit events oldest first.
func (r *Registry) Timeline(ctx context.Context, id uint) ([]TimelineEvent, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	var events []TimelineEvent
	if err := r.db.WithContext(ctx).
		Where("problem_id = ?", id).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("load timeline for %d: %w", id, err)
	}
	return events, nil
}

// AppendEvent records an audit event for other components working inside
// their own transaction against this registry's database.
func AppendEvent(tx *gorm.DB, problemID uint, actor, eventType string, metadata map[string]any) error {
	return appendEvent(tx, problemID, actor, eventType, metadata)
}

func appendEvent(tx *gorm.DB, problemID uint, actor, eventType string, metadata map[string]any) error {
	meta := "{}"
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("marshal event metadata: %w", err)
		}
		meta = string(raw)
	}
	ev := TimelineEvent{
		ProblemID: problemID,
		Actor:     actor,
		EventType: eventType,
		Metadata:  meta,
	}
	if err := tx.Create(&ev).Error; err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	return nil
}

// maskLog shortens identity tokens in log lines; full tokens only belong in
// the database.
func maskLog(identity string) string {
	if len(identity) <= 4 {
		return identity
	}
	return identity[:4] + "…"
}
