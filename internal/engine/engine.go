package engine

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"crewmatch/internal/config"
	"crewmatch/internal/domain"
	"crewmatch/internal/events"
	"crewmatch/internal/match"
	"crewmatch/internal/repo"
)

// Engine owns the mutable collections and the matching operations over
// them. Reads run against snapshots without locking; Confirm, Cancel and
// the cascading deletes serialize on a single mutation lock so the
// check-then-act sequences stay atomic with respect to double-booking.
// Write volume is human-driven confirmations, so one coarse lock is enough.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time

	mu sync.Mutex
}

func New(db *sql.DB, cfg *config.Config) *Engine {
	return &Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// --- workers ---

type WorkerCreateOptions struct {
	Name       string
	Department string
	Skills     []string
	Phone      string
	Email      string
	ActorID    string
}

func (e *Engine) CreateWorker(ctx context.Context, opts WorkerCreateOptions) (domain.Worker, error) {
	if opts.Name == "" {
		return domain.Worker{}, validationf("name is required")
	}
	w := domain.Worker{
		ID:         uuid.New().String(),
		Name:       opts.Name,
		Department: opts.Department,
		Skills:     repo.NormalizeSkills(opts.Skills),
		Phone:      opts.Phone,
		Email:      opts.Email,
		CreatedAt:  e.timestamp(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Worker{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertWorker(ctx, tx, w); err != nil {
		return domain.Worker{}, err
	}
	if err := e.Events.Append(ctx, tx, "worker.created", "worker", w.ID, opts.ActorID, events.EventPayload{"name": w.Name}); err != nil {
		return domain.Worker{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Worker{}, err
	}
	return w, nil
}

// DeleteWorker cascades: the worker's availability periods and assignments
// go with it, and any task the worker was assigned to reverts to pending.
func (e *Engine) DeleteWorker(ctx context.Context, id, actorID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := e.Repo.GetWorkerTx(ctx, tx, id); err != nil {
		return err
	}
	held, err := e.Repo.ListAssignmentsByWorkerTx(ctx, tx, id)
	if err != nil {
		return err
	}
	for _, a := range held {
		if err := e.Repo.SetTaskAssignmentTx(ctx, tx, a.TaskID, "pending", nil); err != nil {
			return err
		}
	}
	if err := e.Repo.DeleteWorkerTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "worker.deleted", "worker", id, actorID, events.EventPayload{"cascaded_assignments": len(held)}); err != nil {
		return err
	}
	return tx.Commit()
}

// --- chiefs ---

type ChiefCreateOptions struct {
	Name       string
	Department string
	Email      string
	ActorID    string
}

func (e *Engine) CreateChief(ctx context.Context, opts ChiefCreateOptions) (domain.Chief, error) {
	if opts.Name == "" {
		return domain.Chief{}, validationf("name is required")
	}
	c := domain.Chief{
		ID:         uuid.New().String(),
		Name:       opts.Name,
		Department: opts.Department,
		Email:      opts.Email,
		CreatedAt:  e.timestamp(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Chief{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertChief(ctx, tx, c); err != nil {
		return domain.Chief{}, err
	}
	if err := e.Events.Append(ctx, tx, "chief.created", "chief", c.ID, opts.ActorID, events.EventPayload{"name": c.Name}); err != nil {
		return domain.Chief{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Chief{}, err
	}
	return c, nil
}

// DeleteChief cascades to the chief's tasks and their assignments.
func (e *Engine) DeleteChief(ctx context.Context, id, actorID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteChiefTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "chief.deleted", "chief", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// --- availability ---

type AvailabilityCreateOptions struct {
	WorkerID  string
	StartDate string
	EndDate   string
	ActorID   string
}

// CreateAvailability records a window in which the worker may be assigned.
// Overlap with the worker's existing periods is legal; coverage queries use
// the union.
func (e *Engine) CreateAvailability(ctx context.Context, opts AvailabilityCreateOptions) (domain.AvailabilityPeriod, error) {
	if opts.WorkerID == "" {
		return domain.AvailabilityPeriod{}, validationf("worker_id is required")
	}
	if _, err := match.ParseRange(opts.StartDate, opts.EndDate); err != nil {
		return domain.AvailabilityPeriod{}, validationf("%v", err)
	}
	if _, err := e.Repo.GetWorker(ctx, opts.WorkerID); err != nil {
		return domain.AvailabilityPeriod{}, err
	}
	p := domain.AvailabilityPeriod{
		ID:        uuid.New().String(),
		WorkerID:  opts.WorkerID,
		StartDate: opts.StartDate,
		EndDate:   opts.EndDate,
		CreatedAt: e.timestamp(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.AvailabilityPeriod{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAvailability(ctx, tx, p); err != nil {
		return domain.AvailabilityPeriod{}, err
	}
	if err := e.Events.Append(ctx, tx, "availability.created", "availability", p.ID, opts.ActorID, events.EventPayload{
		"worker_id": p.WorkerID, "start_date": p.StartDate, "end_date": p.EndDate,
	}); err != nil {
		return domain.AvailabilityPeriod{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.AvailabilityPeriod{}, err
	}
	return p, nil
}

// DeleteAvailability removes a period. Existing assignments are untouched;
// availability is checked at confirm time only.
func (e *Engine) DeleteAvailability(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteAvailabilityTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "availability.deleted", "availability", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// --- tasks ---

type TaskCreateOptions struct {
	ChiefID            string
	Title              string
	Description        string
	RequiredSkills     []string
	RequiredDepartment string
	Priority           string
	StartDate          string
	EndDate            string
	ActorID            string
}

func (e *Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if opts.Title == "" {
		return domain.Task{}, validationf("title is required")
	}
	if opts.ChiefID == "" {
		return domain.Task{}, validationf("chief_id is required")
	}
	window, err := match.ParseRange(opts.StartDate, opts.EndDate)
	if err != nil {
		return domain.Task{}, validationf("%v", err)
	}
	switch opts.Priority {
	case "":
		opts.Priority = "medium"
	case "low", "medium", "high":
	default:
		return domain.Task{}, validationf("priority must be low, medium or high")
	}
	if _, err := e.Repo.GetChief(ctx, opts.ChiefID); err != nil {
		return domain.Task{}, err
	}
	t := domain.Task{
		ID:                 uuid.New().String(),
		ChiefID:            opts.ChiefID,
		Title:              opts.Title,
		Description:        opts.Description,
		RequiredSkills:     repo.NormalizeSkills(opts.RequiredSkills),
		RequiredDepartment: opts.RequiredDepartment,
		Priority:           opts.Priority,
		StartDate:          opts.StartDate,
		EndDate:            opts.EndDate,
		EstimatedDays:      window.Days(),
		Status:             "pending",
		CreatedAt:          e.timestamp(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if err := e.Events.Append(ctx, tx, "task.created", "task", t.ID, opts.ActorID, events.EventPayload{
		"title": t.Title, "status": t.Status,
	}); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// DeleteTask removes a task and its assignment if one exists.
func (e *Engine) DeleteTask(ctx context.Context, id, actorID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteTaskTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "task.deleted", "task", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// --- assignment ledger ---

type ConfirmOptions struct {
	TaskID     string
	WorkerID   string
	StartDate  string
	EndDate    string
	MatchScore *float64
	ActorID    string
}

// Confirm commits a proposed (task, worker) pair into a binding assignment.
// The proposal may be stale by now, so every check re-runs against current
// state inside the transaction: task still pending, worker still exists,
// worker still has availability over the window, and no assignment of the
// worker overlaps the window.
func (e *Engine) Confirm(ctx context.Context, opts ConfirmOptions) (domain.Assignment, error) {
	window, err := match.ParseRange(opts.StartDate, opts.EndDate)
	if err != nil {
		return domain.Assignment{}, validationf("%v", err)
	}
	if opts.MatchScore != nil && (*opts.MatchScore < 0 || *opts.MatchScore > 100) {
		return domain.Assignment{}, validationf("match_score must be in [0,100]")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Assignment{}, err
	}
	defer tx.Rollback()

	t, err := e.Repo.GetTaskTx(ctx, tx, opts.TaskID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if t.Status != "pending" {
		return domain.Assignment{}, conflictf("task %s already assigned", t.ID)
	}
	w, err := e.Repo.GetWorkerTx(ctx, tx, opts.WorkerID)
	if err != nil {
		return domain.Assignment{}, err
	}

	periods, err := e.Repo.ListAvailability(ctx, w.ID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if !match.NewIndex(periods).HasOverlap(w.ID, window) {
		return domain.Assignment{}, conflictf("worker %s has no availability overlapping %s..%s", w.ID, opts.StartDate, opts.EndDate)
	}

	held, err := e.Repo.ListAssignmentsByWorkerTx(ctx, tx, w.ID)
	if err != nil {
		return domain.Assignment{}, err
	}
	for _, a := range held {
		existing, err := match.ParseRange(a.StartDate, a.EndDate)
		if err != nil {
			continue
		}
		if window.Overlaps(existing) {
			return domain.Assignment{}, conflictf("worker %s already booked %s..%s", w.ID, a.StartDate, a.EndDate)
		}
	}

	a := domain.Assignment{
		ID:         uuid.New().String(),
		TaskID:     t.ID,
		WorkerID:   w.ID,
		StartDate:  opts.StartDate,
		EndDate:    opts.EndDate,
		MatchScore: opts.MatchScore,
		CreatedAt:  e.timestamp(),
	}
	if err := e.Repo.InsertAssignmentTx(ctx, tx, a); err != nil {
		return domain.Assignment{}, err
	}
	if err := e.Repo.SetTaskAssignmentTx(ctx, tx, t.ID, "assigned", &w.ID); err != nil {
		return domain.Assignment{}, err
	}
	if err := e.Events.Append(ctx, tx, "assignment.confirmed", "assignment", a.ID, opts.ActorID, events.EventPayload{
		"task_id": t.ID, "worker_id": w.ID, "start_date": a.StartDate, "end_date": a.EndDate,
	}); err != nil {
		return domain.Assignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Assignment{}, err
	}
	return a, nil
}

// Cancel deletes an assignment and resets its task to pending. Cancelling
// the same id twice is a not-found the second time, not a silent no-op.
func (e *Engine) Cancel(ctx context.Context, assignmentID, actorID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	a, err := e.Repo.GetAssignmentTx(ctx, tx, assignmentID)
	if err != nil {
		return err
	}
	if err := e.Repo.DeleteAssignmentTx(ctx, tx, a.ID); err != nil {
		return err
	}
	if err := e.Repo.SetTaskAssignmentTx(ctx, tx, a.TaskID, "pending", nil); err != nil {
		// Task may already be gone if a cascade raced us; the assignment
		// row going with it means there is nothing left to reset.
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
	}
	if err := e.Events.Append(ctx, tx, "assignment.canceled", "assignment", a.ID, actorID, events.EventPayload{
		"task_id": a.TaskID, "worker_id": a.WorkerID,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// --- match orchestrator ---

// MatchRun is a read-only proposal set: every pending task paired with its
// ranked candidates, plus the tasks that could not be scored.
type MatchRun struct {
	Proposals []domain.MatchProposal
	Skipped   []domain.SkippedTask
}

// RunMatching scores all pending tasks against the worker pool over one
// snapshot. It mutates nothing and may run concurrently with anything;
// staleness of the result is handled by re-validation inside Confirm.
func (e *Engine) RunMatching(ctx context.Context) (MatchRun, error) {
	workers, err := e.Repo.ListWorkers(ctx)
	if err != nil {
		return MatchRun{}, err
	}
	chiefs, err := e.Repo.ListChiefs(ctx)
	if err != nil {
		return MatchRun{}, err
	}
	periods, err := e.Repo.ListAvailability(ctx, "")
	if err != nil {
		return MatchRun{}, err
	}
	pending, err := e.Repo.ListTasks(ctx, repo.TaskFilters{Status: "pending"})
	if err != nil {
		return MatchRun{}, err
	}
	assignments, err := e.Repo.ListAssignments(ctx)
	if err != nil {
		return MatchRun{}, err
	}

	chiefIDs := make(map[string]bool, len(chiefs))
	for _, c := range chiefs {
		chiefIDs[c.ID] = true
	}
	booked := make(map[string][]match.DateRange)
	for _, a := range assignments {
		r, err := match.ParseRange(a.StartDate, a.EndDate)
		if err != nil {
			continue
		}
		booked[a.WorkerID] = append(booked[a.WorkerID], r)
	}

	ix := match.NewIndex(periods)
	weights := e.weights()
	topK := e.topK()

	run := MatchRun{Proposals: []domain.MatchProposal{}, Skipped: []domain.SkippedTask{}}
	for _, t := range pending {
		window, err := match.ParseRange(t.StartDate, t.EndDate)
		if err != nil {
			run.Skipped = append(run.Skipped, domain.SkippedTask{TaskID: t.ID, Reason: err.Error()})
			continue
		}
		if !chiefIDs[t.ChiefID] {
			run.Skipped = append(run.Skipped, domain.SkippedTask{TaskID: t.ID, Reason: "chief not found"})
			continue
		}
		cands := make([]domain.Candidate, 0, len(workers))
		for _, w := range workers {
			if overlapsAny(window, booked[w.ID]) {
				continue
			}
			res, err := match.Score(t, w, ix, weights)
			if err != nil {
				continue
			}
			cands = append(cands, domain.Candidate{
				WorkerID:         w.ID,
				WorkerName:       w.Name,
				WorkerDepartment: w.Department,
				WorkerSkills:     w.Skills,
				Score:            res.Score,
				Coverage:         res.Coverage,
				HasAvailability:  res.HasAvailability,
			})
		}
		match.Rank(cands)
		if len(cands) > topK {
			cands = cands[:topK]
		}
		run.Proposals = append(run.Proposals, domain.MatchProposal{Task: t, Candidates: cands})
	}
	return run, nil
}

func overlapsAny(window match.DateRange, ranges []match.DateRange) bool {
	for _, r := range ranges {
		if window.Overlaps(r) {
			return true
		}
	}
	return false
}

func (e *Engine) weights() match.Weights {
	if e.Config == nil {
		return match.DefaultWeights
	}
	return e.Config.Matching.Weights
}

func (e *Engine) topK() int {
	if e.Config == nil || e.Config.Matching.TopK < 1 {
		return 5
	}
	return e.Config.Matching.TopK
}
