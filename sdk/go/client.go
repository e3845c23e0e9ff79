package crewmatchsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Crewmatch HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Worker represents the API worker model.
type Worker struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Department string   `json:"department,omitempty"`
	Skills     []string `json:"skills"`
	Phone      string   `json:"phone_number,omitempty"`
	Email      string   `json:"email,omitempty"`
}

// Chief represents the API chief model.
type Chief struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Email      string `json:"email,omitempty"`
}

// AvailabilityPeriod is a worker's declared window.
type AvailabilityPeriod struct {
	ID        string `json:"id"`
	WorkerID  string `json:"worker_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Task represents the API task model.
type Task struct {
	ID                 string   `json:"id"`
	ChiefID            string   `json:"chief_id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	RequiredSkills     []string `json:"required_skills"`
	RequiredDepartment string   `json:"required_department,omitempty"`
	Priority           string   `json:"priority"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	EstimatedDays      int      `json:"estimated_days"`
	Status             string   `json:"status"`
	MatchedWorkerID    *string  `json:"matched_worker_id,omitempty"`
}

// Assignment is a confirmed booking.
type Assignment struct {
	ID         string   `json:"id"`
	TaskID     string   `json:"task_id"`
	WorkerID   string   `json:"worker_id"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	MatchScore *float64 `json:"match_score,omitempty"`
}

// AssignmentDetail is an assignment with display fields.
type AssignmentDetail struct {
	Assignment
	TaskTitle    string `json:"task_title"`
	TaskPriority string `json:"task_priority"`
	WorkerName   string `json:"worker_name"`
}

// Candidate is a scored worker for one task.
type Candidate struct {
	WorkerID         string   `json:"worker_id"`
	WorkerName       string   `json:"worker_name"`
	WorkerDepartment string   `json:"worker_department,omitempty"`
	WorkerSkills     []string `json:"worker_skills"`
	Score            float64  `json:"score"`
	Coverage         float64  `json:"coverage"`
	HasAvailability  bool     `json:"has_availability"`
}

// MatchProposal pairs a task with ranked candidates.
type MatchProposal struct {
	Task       Task        `json:"task"`
	Candidates []Candidate `json:"candidates"`
}

// MatchRun is the result of a matching pass.
type MatchRun struct {
	Matches []MatchProposal `json:"matches"`
	Skipped []struct {
		TaskID string `json:"task_id"`
		Reason string `json:"reason"`
	} `json:"skipped"`
	Count int `json:"count"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login obtains a bearer token by name and stores it on the client.
func (c *Client) Login(ctx context.Context, name string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "v1/auth/login", map[string]any{"name": name}, &resp); err != nil {
		return err
	}
	c.BearerToken = resp.Token
	return nil
}

// CreateWorker registers a worker.
func (c *Client) CreateWorker(ctx context.Context, name, department string, skills []string) (Worker, error) {
	body := map[string]any{
		"name":       name,
		"department": department,
		"skills":     skills,
	}
	var resp Worker
	err := c.do(ctx, http.MethodPost, "v1/workers", body, &resp)
	return resp, err
}

// ListWorkers returns all workers.
func (c *Client) ListWorkers(ctx context.Context) ([]Worker, error) {
	var resp []Worker
	err := c.do(ctx, http.MethodGet, "v1/workers", nil, &resp)
	return resp, err
}

// CreateChief registers a chief.
func (c *Client) CreateChief(ctx context.Context, name, department string) (Chief, error) {
	body := map[string]any{
		"name":       name,
		"department": department,
	}
	var resp Chief
	err := c.do(ctx, http.MethodPost, "v1/chiefs", body, &resp)
	return resp, err
}

// AddAvailability declares a period for a worker.
func (c *Client) AddAvailability(ctx context.Context, workerID, start, end string) (AvailabilityPeriod, error) {
	body := map[string]any{
		"worker_id":  workerID,
		"start_date": start,
		"end_date":   end,
	}
	var resp AvailabilityPeriod
	err := c.do(ctx, http.MethodPost, "v1/availability", body, &resp)
	return resp, err
}

// CreateTask posts a task for a chief.
func (c *Client) CreateTask(ctx context.Context, t Task) (Task, error) {
	body := map[string]any{
		"chief_id":            t.ChiefID,
		"title":               t.Title,
		"description":         t.Description,
		"required_skills":     t.RequiredSkills,
		"required_department": t.RequiredDepartment,
		"priority":            t.Priority,
		"start_date":          t.StartDate,
		"end_date":            t.EndDate,
	}
	var resp Task
	err := c.do(ctx, http.MethodPost, "v1/tasks", body, &resp)
	return resp, err
}

// ListTasks returns tasks, optionally filtered by status.
func (c *Client) ListTasks(ctx context.Context, status string) ([]Task, error) {
	endpoint := "v1/tasks"
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []Task
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// RunMatching asks the server to propose candidates for pending tasks.
func (c *Client) RunMatching(ctx context.Context) (MatchRun, error) {
	var resp MatchRun
	err := c.do(ctx, http.MethodPost, "v1/match/run", map[string]any{}, &resp)
	return resp, err
}

// ConfirmAssignment commits a proposed pairing.
func (c *Client) ConfirmAssignment(ctx context.Context, taskID, workerID, start, end string, score *float64) (Assignment, error) {
	body := map[string]any{
		"task_id":    taskID,
		"worker_id":  workerID,
		"start_date": start,
		"end_date":   end,
	}
	if score != nil {
		body["match_score"] = *score
	}
	var resp Assignment
	err := c.do(ctx, http.MethodPost, "v1/assignments/confirm", body, &resp)
	return resp, err
}

// ListAssignments returns assignments with task and worker detail.
func (c *Client) ListAssignments(ctx context.Context) ([]AssignmentDetail, error) {
	var resp []AssignmentDetail
	err := c.do(ctx, http.MethodGet, "v1/assignments", nil, &resp)
	return resp, err
}

// CancelAssignment cancels a booking and reopens its task.
func (c *Client) CancelAssignment(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("v1/assignments/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
