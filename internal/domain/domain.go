package domain

// Dates are calendar days formatted as 2006-01-02. Ranges are inclusive on
// both ends; a task with start == end spans one day.

type Worker struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Department string   `json:"department,omitempty"`
	Skills     []string `json:"skills"`
	Phone      string   `json:"phone_number,omitempty"`
	Email      string   `json:"email,omitempty"`
	CreatedAt  string   `json:"created_at" format:"date-time"`
}

type Chief struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Email      string `json:"email,omitempty"`
	CreatedAt  string `json:"created_at" format:"date-time"`
}

type AvailabilityPeriod struct {
	ID        string `json:"id"`
	WorkerID  string `json:"worker_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Task struct {
	ID                 string   `json:"id"`
	ChiefID            string   `json:"chief_id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	RequiredSkills     []string `json:"required_skills"`
	RequiredDepartment string   `json:"required_department,omitempty"`
	Priority           string   `json:"priority" enum:"low,medium,high"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	EstimatedDays      int      `json:"estimated_days"`
	Status             string   `json:"status" enum:"pending,assigned"`
	MatchedWorkerID    *string  `json:"matched_worker_id,omitempty"`
	CreatedAt          string   `json:"created_at" format:"date-time"`
}

type Assignment struct {
	ID         string   `json:"id"`
	TaskID     string   `json:"task_id"`
	WorkerID   string   `json:"worker_id"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	MatchScore *float64 `json:"match_score,omitempty"`
	CreatedAt  string   `json:"created_at" format:"date-time"`
}

// AssignmentDetail is an Assignment joined with display fields from the task
// and worker rows, for listings.
type AssignmentDetail struct {
	Assignment
	TaskTitle       string `json:"task_title"`
	TaskDescription string `json:"task_description,omitempty"`
	TaskPriority    string `json:"task_priority"`
	WorkerName      string `json:"worker_name"`
}

// Candidate is a worker considered for one pending task, annotated with the
// score the operator sees.
type Candidate struct {
	WorkerID         string   `json:"worker_id"`
	WorkerName       string   `json:"worker_name"`
	WorkerDepartment string   `json:"worker_department,omitempty"`
	WorkerSkills     []string `json:"worker_skills"`
	Score            float64  `json:"score"`
	Coverage         float64  `json:"coverage"`
	HasAvailability  bool     `json:"has_availability"`
}

// MatchProposal pairs a pending task with its ranked candidates.
type MatchProposal struct {
	Task       Task        `json:"task"`
	Candidates []Candidate `json:"candidates"`
}

// SkippedTask reports a pending task the orchestrator could not score.
type SkippedTask struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
