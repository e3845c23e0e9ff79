package server

import (
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"

	"crewmatch/internal/domain"
)

// SkillList accepts the two shapes clients historically sent for skills: a
// JSON array of strings or a single comma-joined string. Either way the
// repo normalizer produces the canonical set before anything is stored.
type SkillList []string

// Schema widens the generated schema so body validation admits both shapes.
func (SkillList) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{
		OneOf: []*huma.Schema{
			{Type: huma.TypeArray, Items: &huma.Schema{Type: huma.TypeString}},
			{Type: huma.TypeString},
		},
	}
}

func (s *SkillList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single == "" {
		*s = nil
		return nil
	}
	*s = []string{single}
	return nil
}

// Request payloads

type CreateWorkerRequest struct {
	Name       string    `json:"name"`
	Department string    `json:"department,omitempty"`
	Skills     SkillList `json:"skills,omitempty"`
	Phone      string    `json:"phone_number,omitempty"`
	Email      string    `json:"email,omitempty"`
}

type CreateChiefRequest struct {
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Email      string `json:"email,omitempty"`
}

type CreateAvailabilityRequest struct {
	WorkerID  string `json:"worker_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type CreateTaskRequest struct {
	ChiefID            string    `json:"chief_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	RequiredSkills     SkillList `json:"required_skills,omitempty"`
	RequiredDepartment string    `json:"required_department,omitempty"`
	Priority           string    `json:"priority,omitempty" enum:"low,medium,high"`
	StartDate          string    `json:"start_date"`
	EndDate            string    `json:"end_date"`
}

type ConfirmAssignmentRequest struct {
	TaskID     string   `json:"task_id"`
	WorkerID   string   `json:"worker_id"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	MatchScore *float64 `json:"match_score,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Response payloads

type WorkerResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Department string   `json:"department,omitempty"`
	Skills     []string `json:"skills"`
	Phone      string   `json:"phone_number,omitempty"`
	Email      string   `json:"email,omitempty"`
	CreatedAt  string   `json:"created_at" format:"date-time"`
}

type ChiefResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Email      string `json:"email,omitempty"`
	CreatedAt  string `json:"created_at" format:"date-time"`
}

type AvailabilityResponse struct {
	ID        string `json:"id"`
	WorkerID  string `json:"worker_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type TaskResponse struct {
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

type AssignmentResponse struct {
	ID         string   `json:"id"`
	TaskID     string   `json:"task_id"`
	WorkerID   string   `json:"worker_id"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	MatchScore *float64 `json:"match_score,omitempty"`
	CreatedAt  string   `json:"created_at" format:"date-time"`
}

type AssignmentDetailResponse struct {
	AssignmentResponse
	TaskTitle       string `json:"task_title"`
	TaskDescription string `json:"task_description,omitempty"`
	TaskPriority    string `json:"task_priority"`
	WorkerName      string `json:"worker_name"`
}

type CandidateResponse struct {
	WorkerID         string   `json:"worker_id"`
	WorkerName       string   `json:"worker_name"`
	WorkerDepartment string   `json:"worker_department,omitempty"`
	WorkerSkills     []string `json:"worker_skills"`
	Score            float64  `json:"score"`
	Coverage         float64  `json:"coverage"`
	HasAvailability  bool     `json:"has_availability"`
}

type MatchProposalResponse struct {
	Task       TaskResponse        `json:"task"`
	Candidates []CandidateResponse `json:"candidates"`
}

type SkippedTaskResponse struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason"`
}

type MatchRunResponse struct {
	Matches []MatchProposalResponse `json:"matches"`
	Skipped []SkippedTaskResponse   `json:"skipped"`
	Count   int                     `json:"count"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	ActorID string `json:"actor_id"`
	Role    string `json:"role" enum:"admin,chief,worker"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// Conversion helpers

func workerResponse(w domain.Worker) WorkerResponse {
	return WorkerResponse{
		ID:         w.ID,
		Name:       w.Name,
		Department: w.Department,
		Skills:     nonNilSlice(w.Skills),
		Phone:      w.Phone,
		Email:      w.Email,
		CreatedAt:  w.CreatedAt,
	}
}

func chiefResponse(c domain.Chief) ChiefResponse {
	return ChiefResponse(c)
}

func availabilityResponse(p domain.AvailabilityPeriod) AvailabilityResponse {
	return AvailabilityResponse(p)
}

func taskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:                 t.ID,
		ChiefID:            t.ChiefID,
		Title:              t.Title,
		Description:        t.Description,
		RequiredSkills:     nonNilSlice(t.RequiredSkills),
		RequiredDepartment: t.RequiredDepartment,
		Priority:           t.Priority,
		StartDate:          t.StartDate,
		EndDate:            t.EndDate,
		EstimatedDays:      t.EstimatedDays,
		Status:             t.Status,
		MatchedWorkerID:    t.MatchedWorkerID,
		CreatedAt:          t.CreatedAt,
	}
}

func assignmentResponse(a domain.Assignment) AssignmentResponse {
	return AssignmentResponse(a)
}

func assignmentDetailResponse(d domain.AssignmentDetail) AssignmentDetailResponse {
	return AssignmentDetailResponse{
		AssignmentResponse: assignmentResponse(d.Assignment),
		TaskTitle:          d.TaskTitle,
		TaskDescription:    d.TaskDescription,
		TaskPriority:       d.TaskPriority,
		WorkerName:         d.WorkerName,
	}
}

func candidateResponse(c domain.Candidate) CandidateResponse {
	return CandidateResponse{
		WorkerID:         c.WorkerID,
		WorkerName:       c.WorkerName,
		WorkerDepartment: c.WorkerDepartment,
		WorkerSkills:     nonNilSlice(c.WorkerSkills),
		Score:            c.Score,
		Coverage:         c.Coverage,
		HasAvailability:  c.HasAvailability,
	}
}

func eventResponse(e domain.Event) EventResponse {
	var payload map[string]any
	if e.Payload != "" {
		_ = json.Unmarshal([]byte(e.Payload), &payload)
	}
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    payload,
	}
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
