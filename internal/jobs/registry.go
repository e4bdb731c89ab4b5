package jobs

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/janzheng/mailcheck/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Item statuses.
const (
	StatusPending  = "pending"
	StatusChecking = "checking"
	StatusDone     = "done"
	StatusError    = "error"
)

// ErrNoItems is returned when a job request carries no usable addresses.
var ErrNoItems = errors.New("no valid items")

// Item is a single address within a job.
type Item struct {
	ID     string               `json:"id"`
	Email  string               `json:"email"`
	Status string               `json:"status"`
	Result *core.PipelineResult `json:"result"`
	Error  string               `json:"error,omitempty"`
}

// CreateRequest describes a batch to evaluate.
type CreateRequest struct {
	Emails            []string
	APIKey            string
	ExtraInstructions string
	Allowlist         []string
	Blocklist         []string
	Concurrency       int
}

// Summary is a point-in-time snapshot of a job, safe to serialize.
type Summary struct {
	ID                string  `json:"id"`
	Running           bool    `json:"running"`
	Cancelled         bool    `json:"cancelled"`
	Total             int     `json:"total"`
	Completed         int     `json:"completed"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
	ExtraInstructions string  `json:"extraInstructions"`
	Items             []*Item `json:"items"`
}

type job struct {
	mu        sync.Mutex
	id        string
	running   bool
	cancelled bool
	total     int
	completed int
	createdAt time.Time
	updatedAt time.Time
	items     []*Item
	req       CreateRequest
	cancel    context.CancelFunc
}

func (j *job) summary() *Summary {
	j.mu.Lock()
	defer j.mu.Unlock()

	items := make([]*Item, len(j.items))
	for i, it := range j.items {
		copied := *it
		items[i] = &copied
	}
	return &Summary{
		ID:                j.id,
		Running:           j.running,
		Cancelled:         j.cancelled,
		Total:             j.total,
		Completed:         j.completed,
		CreatedAt:         j.createdAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:         j.updatedAt.UTC().Format(time.RFC3339Nano),
		ExtraInstructions: j.req.ExtraInstructions,
		Items:             items,
	}
}

// Registry holds in-memory async check jobs for the lifetime of the process.
type Registry struct {
	mu                 sync.RWMutex
	jobs               map[string]*job
	checker            *core.CheckerService
	logger             *zap.Logger
	defaultConcurrency int
}

// NewRegistry creates a job registry.
func NewRegistry(checker *core.CheckerService, defaultConcurrency int, logger *zap.Logger) *Registry {
	if defaultConcurrency < 1 {
		defaultConcurrency = 8
	}
	return &Registry{
		jobs:               make(map[string]*job),
		checker:            checker,
		logger:             logger,
		defaultConcurrency: defaultConcurrency,
	}
}

// Create registers a job and starts evaluating its items in the background.
func (r *Registry) Create(req CreateRequest) (*Summary, error) {
	items := make([]*Item, 0, len(req.Emails))
	for _, raw := range req.Emails {
		email := strings.TrimSpace(raw)
		if email == "" {
			continue
		}
		items = append(items, &Item{ID: uuid.NewString(), Email: email, Status: StatusPending})
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	now := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		id:        uuid.NewString(),
		running:   true,
		total:     len(items),
		createdAt: now,
		updatedAt: now,
		items:     items,
		req:       req,
		cancel:    cancel,
	}

	r.mu.Lock()
	r.jobs[j.id] = j
	r.mu.Unlock()

	go r.run(ctx, j)

	return j.summary(), nil
}

// run evaluates the job's items through a bounded worker group.
func (r *Registry) run(ctx context.Context, j *job) {
	concurrency := j.req.Concurrency
	if concurrency < 1 {
		concurrency = r.defaultConcurrency
	}

	j.mu.Lock()
	for _, it := range j.items {
		it.Status = StatusChecking
	}
	j.updatedAt = time.Now()
	j.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, it := range j.items {
		item := it
		g.Go(func() error {
			// Skipped and interrupted items still count toward completion so
			// cancelled jobs settle.
			if gctx.Err() != nil {
				j.mu.Lock()
				item.Status = StatusError
				item.Error = "cancelled"
				j.completed++
				j.updatedAt = time.Now()
				j.mu.Unlock()
				return nil
			}
			result := r.checker.Check(gctx, core.AssessRequest{
				APIKey:            j.req.APIKey,
				Email:             item.Email,
				ExtraInstructions: j.req.ExtraInstructions,
				Allowlist:         j.req.Allowlist,
				Blocklist:         j.req.Blocklist,
			})

			j.mu.Lock()
			if gctx.Err() == nil {
				item.Result = result
				item.Status = StatusDone
			} else {
				item.Status = StatusError
				item.Error = "cancelled"
			}
			j.completed++
			j.updatedAt = time.Now()
			j.mu.Unlock()
			return nil
		})
	}

	// Workers never return errors, cancellation just stops the remainder.
	_ = g.Wait()

	j.mu.Lock()
	j.running = false
	j.updatedAt = time.Now()
	j.mu.Unlock()

	r.logger.Info("Job finished",
		zap.String("job_id", j.id),
		zap.Int("total", j.total),
		zap.Bool("cancelled", j.cancelled))
}

// Get returns a snapshot of the job, or false when unknown.
func (r *Registry) Get(id string) (*Summary, bool) {
	r.mu.RLock()
	j, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return j.summary(), true
}

// List returns snapshots of all known jobs, newest first.
func (r *Registry) List() []*Summary {
	r.mu.RLock()
	all := make([]*job, 0, len(r.jobs))
	for _, j := range r.jobs {
		all = append(all, j)
	}
	r.mu.RUnlock()

	// createdAt is immutable after registration.
	sort.Slice(all, func(i, k int) bool {
		return all[i].createdAt.After(all[k].createdAt)
	})

	summaries := make([]*Summary, 0, len(all))
	for _, j := range all {
		summaries = append(summaries, j.summary())
	}
	return summaries
}

// Cancel marks the job cancelled and stops scheduling remaining items.
func (r *Registry) Cancel(id string) (*Summary, bool) {
	r.mu.RLock()
	j, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	j.mu.Lock()
	j.cancelled = true
	j.running = false
	j.updatedAt = time.Now()
	cancel := j.cancel
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return j.summary(), true
}
