package problem

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status is the lifecycle state of a reported problem. It only moves forward
// (REPORTED → IN_REVIEW → IN_PROGRESS → RESOLVED) or sideways to REJECTED.
type Status string

const (
	StatusReported   Status = "REPORTED"
	StatusInReview   Status = "IN_REVIEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusRejected   Status = "REJECTED"
)

// Problem is a citizen-reported civic issue. Counts are denormalized from the
// upvote/verification tables and maintained in the same transaction as the
// row inserts, so they never drift between operations.
type Problem struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Reporter    string `json:"reporter" gorm:"size:32;index"`
	Title       string `json:"title"`
	Description string `json:"description"`

	LocationText     string   `json:"location_text"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	LocationVerified bool     `json:"location_verified"`
	LocationSource   *string  `json:"location_source,omitempty" gorm:"size:16"`
	Ward             string   `json:"ward,omitempty"`
	District         string   `json:"district,omitempty"`

	Status            Status `json:"status" gorm:"size:16;index"`
	UpvoteCount       int    `json:"upvote_count"`
	VerificationCount int    `json:"verification_count"`

	ResolvedBy      *string        `json:"resolved_by,omitempty" gorm:"size:32"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
	ResolutionProof pq.StringArray `json:"resolution_proof,omitempty" gorm:"type:text[]"`
	ResolutionNotes string         `json:"resolution_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Upvote is one supporter's vote. Append-only; the unique index is what
// serializes two racing upvotes from the same voter.
type Upvote struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProblemID uint      `json:"problem_id" gorm:"index:uniq_problem_voter,unique"`
	Voter     string    `json:"voter" gorm:"size:32;index:uniq_problem_voter,unique"`
	CreatedAt time.Time `json:"created_at"`
}

// Verification is one community member's on-site confirmation, with the
// coordinates they confirmed from. Append-only.
type Verification struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProblemID uint           `json:"problem_id" gorm:"index:uniq_problem_verifier,unique"`
	Verifier  string         `json:"verifier" gorm:"size:32;index:uniq_problem_verifier,unique"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	ImageRefs pq.StringArray `json:"image_refs,omitempty" gorm:"type:text[]"`
	CreatedAt time.Time      `json:"created_at"`
}

// ResolutionOffer records a volunteer stepping up. ProofAccepted flips when
// their proof submission resolves the problem.
type ResolutionOffer struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProblemID     uint           `json:"problem_id" gorm:"index:uniq_problem_volunteer,unique"`
	Volunteer     string         `json:"volunteer" gorm:"size:32;index:uniq_problem_volunteer,unique"`
	Message       string         `json:"message"`
	ProofAccepted bool           `json:"proof_accepted"`
	ProofRefs     pq.StringArray `json:"proof_refs,omitempty" gorm:"type:text[]"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TimelineEvent is the append-only audit log behind every creation and state
// change. Never updated, never deleted.
type TimelineEvent struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	ProblemID uint      `json:"problem_id" gorm:"index"`
	Actor     string    `json:"actor" gorm:"size:32"`
	EventType string    `json:"event_type" gorm:"size:32"`
	Metadata  string    `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at"`
}

func (Problem) TableName() string         { return "civic.problems" }
func (Upvote) TableName() string          { return "civic.upvotes" }
func (Verification) TableName() string    { return "civic.verifications" }
func (ResolutionOffer) TableName() string { return "civic.resolution_offers" }
func (TimelineEvent) TableName() string   { return "civic.timeline_events" }
