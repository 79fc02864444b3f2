package resolution

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/WardWatch/WW-Backend/internal/notify"
	"github.com/WardWatch/WW-Backend/internal/problem"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Job is one resolution to announce to a problem's supporters.
type Job struct {
	ProblemID uint
	ProofURL  string
}

// Report summarizes one fanout run for observability.
type Report struct {
	ProblemID uint `json:"problem_id"`
	Attempted int  `json:"attempted"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Skipped   int  `json:"skipped"` // syntactically invalid recipients
}

// Fanout announces resolutions to every upvoter of a problem. A single
// worker drains a bounded queue at the outbound channel's rate limit, so
// delivery never stalls the resolution that triggered it. A failed delivery
// is logged and skipped; it cannot affect the other recipients or the
// resolution itself.
type Fanout struct {
	db      *gorm.DB
	sender  notify.Sender
	limiter *rate.Limiter

	queue chan Job
	wg    sync.WaitGroup
	once  sync.Once

	mu     sync.Mutex
	closed bool
}

// NewFanout starts the delivery worker. sender may be nil, which logs
// deliveries instead of sending (local development).
func NewFanout(db *gorm.DB, sender notify.Sender, delay time.Duration, queueSize int) *Fanout {
	f := &Fanout{
		db:      db,
		sender:  sender,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		queue:   make(chan Job, queueSize),
	}
	f.wg.Add(1)
	go f.run()
	return f
}

// Enqueue hands a resolution to the worker. Returns false when the queue is
// full or the fanout has shut down; the caller's resolution has already
// committed either way.
func (f *Fanout) Enqueue(job Job) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		log.Printf("[fanout] shut down, dropping notification job for problem %d", job.ProblemID)
		return false
	}
	select {
	case f.queue <- job:
		return true
	default:
		log.Printf("[fanout] queue full, dropping notification job for problem %d", job.ProblemID)
		return false
	}
}

// Close stops accepting jobs and waits for the worker to drain the queue.
// The closed flag is flipped under the same lock Enqueue sends under, so a
// racing Enqueue either lands before the channel closes or is rejected.
func (f *Fanout) Close() {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.queue)
	})
	f.wg.Wait()
}

func (f *Fanout) run() {
	defer f.wg.Done()
	for job := range f.queue {
		report := f.deliver(context.Background(), job)
		log.Printf("[fanout] problem %d: attempted=%d succeeded=%d failed=%d skipped=%d",
			report.ProblemID, report.Attempted, report.Succeeded, report.Failed, report.Skipped)

		if err := problem.AppendEvent(f.db, job.ProblemID, "system", "fanout_completed", map[string]any{
			"attempted": report.Attempted,
			"succeeded": report.Succeeded,
			"failed":    report.Failed,
		}); err != nil {
			log.Printf("[fanout] problem %d: record report: %v", job.ProblemID, err)
		}
	}
}

// deliver loads the problem and its supporters, then runs the notification
// loop.
func (f *Fanout) deliver(ctx context.Context, job Job) Report {
	report := Report{ProblemID: job.ProblemID}

	var p problem.Problem
	if err := f.db.WithContext(ctx).First(&p, job.ProblemID).Error; err != nil {
		log.Printf("[fanout] problem %d vanished before fanout: %v", job.ProblemID, err)
		return report
	}

	var upvotes []problem.Upvote
	if err := f.db.WithContext(ctx).
		Where("problem_id = ?", job.ProblemID).
		Order("created_at ASC").
		Find(&upvotes).Error; err != nil {
		log.Printf("[fanout] problem %d: load supporters: %v", job.ProblemID, err)
		return report
	}

	voters := make([]string, 0, len(upvotes))
	for _, u := range upvotes {
		voters = append(voters, u.Voter)
	}
	return f.deliverTo(ctx, p.ID, p.Title, voters, job.ProofURL)
}

// deliverTo notifies the given supporters one by one, pacing sends with the
// rate limiter. Every delivery failure is isolated to its recipient.
func (f *Fanout) deliverTo(ctx context.Context, problemID uint, title string, voters []string, proofURL string) Report {
	report := Report{ProblemID: problemID}
	text := fmt.Sprintf("Good news! Problem #%d (%s) you supported has been resolved. Proof attached.", problemID, title)

	for _, voter := range voters {
		if !notify.ValidRecipient(voter) {
			report.Skipped++
			continue
		}
		report.Attempted++

		if err := f.limiter.Wait(ctx); err != nil {
			log.Printf("[fanout] problem %d: limiter: %v", problemID, err)
			report.Failed++
			return report
		}

		if err := f.send(ctx, voter, text, proofURL); err != nil {
			log.Printf("[fanout] problem %d: deliver to %s…: %v", problemID, voter[:5], err)
			report.Failed++
			continue
		}
		report.Succeeded++
	}

	return report
}

func (f *Fanout) send(ctx context.Context, recipient, text, mediaURL string) error {
	if f.sender == nil {
		log.Printf("[fanout] (dry-run) would notify %s", recipient)
		return nil
	}
	sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return f.sender.Send(sendCtx, recipient, text, mediaURL)
}
