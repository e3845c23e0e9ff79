package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"crewmatch/internal/config"
	"crewmatch/internal/db"
	"crewmatch/internal/engine"
	"crewmatch/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T, auth AuthConfig) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	handler, err := New(Config{Engine: e, BasePath: "/v1", Auth: auth})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func decodeInto(t *testing.T, data []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode %s: %v", string(data), err)
	}
}

func TestHealth(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d body=%s", res.StatusCode, data)
	}
}

func TestMatchConfirmCancelFlow(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	client := srv.Client()

	var chief ChiefResponse
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/chiefs", map[string]any{
		"name": "Dana", "department": "platform",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create chief: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &chief)

	var worker WorkerResponse
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/workers", map[string]any{
		"name": "Alice", "department": "platform", "skills": []string{"Go", "sql"},
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create worker: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &worker)
	if len(worker.Skills) != 2 || worker.Skills[0] != "go" {
		t.Fatalf("normalized skills = %v", worker.Skills)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/availability", map[string]any{
		"worker_id": worker.ID, "start_date": "2025-06-01", "end_date": "2025-06-30",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create availability: %d %s", res.StatusCode, data)
	}

	var task TaskResponse
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/tasks", map[string]any{
		"chief_id": chief.ID, "title": "Ship it",
		"required_skills": "go,sql", "required_department": "platform",
		"start_date": "2025-06-02", "end_date": "2025-06-06",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &task)
	if task.EstimatedDays != 5 || task.Status != "pending" {
		t.Fatalf("task = %+v", task)
	}
	if len(task.RequiredSkills) != 2 {
		t.Fatalf("comma-string skills not normalized: %v", task.RequiredSkills)
	}

	var run MatchRunResponse
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/match/run", map[string]any{}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("match run: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &run)
	if run.Count != 1 || len(run.Matches) != 1 {
		t.Fatalf("match run = %+v", run)
	}
	cand := run.Matches[0].Candidates[0]
	if cand.WorkerID != worker.ID || cand.Score != 100 {
		t.Fatalf("top candidate = %+v", cand)
	}

	var assignment AssignmentResponse
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/assignments/confirm", map[string]any{
		"task_id": task.ID, "worker_id": worker.ID,
		"start_date": "2025-06-02", "end_date": "2025-06-06",
		"match_score": cand.Score,
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("confirm: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &assignment)

	// A second confirm of the same task must conflict.
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/assignments/confirm", map[string]any{
		"task_id": task.ID, "worker_id": worker.ID,
		"start_date": "2025-06-02", "end_date": "2025-06-06",
	}, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("second confirm: %d %s", res.StatusCode, data)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeInto(t, data, &envelope)
	if envelope.Error.Code != "conflict" {
		t.Fatalf("error code = %q body=%s", envelope.Error.Code, data)
	}

	var details []AssignmentDetailResponse
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/assignments", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list assignments: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &details)
	if len(details) != 1 || details[0].TaskTitle != "Ship it" || details[0].WorkerName != "Alice" {
		t.Fatalf("assignment details = %+v", details)
	}

	res, data = doJSON(t, client, http.MethodDelete, srv.URL+"/v1/assignments/"+assignment.ID, nil, nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("cancel: %d %s", res.StatusCode, data)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/tasks/"+task.ID, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get task: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &task)
	if task.Status != "pending" {
		t.Fatalf("task after cancel = %s", task.Status)
	}
}

func TestValidationAndNotFoundEnvelopes(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/workers/nope", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("missing worker: %d %s", res.StatusCode, data)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeInto(t, data, &envelope)
	if envelope.Error.Code != "not_found" {
		t.Fatalf("error code = %q", envelope.Error.Code)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/availability", map[string]any{
		"worker_id": "w", "start_date": "2025-06-10", "end_date": "2025-06-01",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("inverted window: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &envelope)
	if envelope.Error.Code != "bad_request" {
		t.Fatalf("error code = %q body=%s", envelope.Error.Code, data)
	}
}

func TestAuthRequiredWhenSecretConfigured(t *testing.T) {
	auth := AuthConfig{
		JWTSecret:      "test-secret",
		AdminUsername:  "admin",
		AdminPassword:  "hunter2",
		AllowNameLogin: true,
	}
	srv, cleanup := newTestServer(t, auth)
	defer cleanup()
	client := srv.Client()

	// Health stays open.
	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health: %d %s", res.StatusCode, data)
	}

	// Everything else needs a token.
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/workers", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: %d %s", res.StatusCode, data)
	}

	// Wrong password is rejected.
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/auth/login", map[string]any{
		"username": "admin", "password": "wrong",
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: %d %s", res.StatusCode, data)
	}

	var login LoginResponse
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/auth/login", map[string]any{
		"username": "admin", "password": "hunter2",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("admin login: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &login)
	if login.Role != "admin" || login.Token == "" {
		t.Fatalf("login = %+v", login)
	}

	headers := map[string]string{"Authorization": "Bearer " + login.Token}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/workers", nil, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("authenticated list: %d %s", res.StatusCode, data)
	}

	// Name login issues a worker token once the worker exists.
	var worker WorkerResponse
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/workers", map[string]any{
		"name": "Alice",
	}, headers)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create worker: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &worker)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/auth/login", map[string]any{
		"name": "alice",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("name login: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &login)
	if login.Role != "worker" || login.ActorID != worker.ID {
		t.Fatalf("name login = %+v", login)
	}
}

func TestWorkerDeleteCascadesOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	client := srv.Client()

	var worker WorkerResponse
	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/workers", map[string]any{"name": "Alice"}, nil)
	decodeInto(t, data, &worker)
	doJSON(t, client, http.MethodPost, srv.URL+"/v1/availability", map[string]any{
		"worker_id": worker.ID, "start_date": "2025-06-01", "end_date": "2025-06-30",
	}, nil)

	res, data := doJSON(t, client, http.MethodDelete, srv.URL+"/v1/workers/"+worker.ID, nil, nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete worker: %d %s", res.StatusCode, data)
	}

	var periods []AvailabilityResponse
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/availability?worker_id="+worker.ID, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list availability: %d %s", res.StatusCode, data)
	}
	decodeInto(t, data, &periods)
	if len(periods) != 0 {
		t.Fatalf("availability should cascade, got %+v", periods)
	}
}
