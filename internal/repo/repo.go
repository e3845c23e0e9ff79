package repo

import (
	"context"
	"database/sql"
	"errors"

	"crewmatch/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// --- workers ---

func (r Repo) InsertWorker(ctx context.Context, tx *sql.Tx, w domain.Worker) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO workers(id,name,department,skills,phone_number,email,created_at) VALUES (?,?,?,?,?,?,?)`,
		w.ID, w.Name, nullable(w.Department), nullable(JoinSkills(w.Skills)), nullable(w.Phone), nullable(w.Email), w.CreatedAt)
	return err
}

func scanWorker(scan func(dest ...any) error) (domain.Worker, error) {
	var w domain.Worker
	var dept, skills, phone, email sql.NullString
	err := scan(&w.ID, &w.Name, &dept, &skills, &phone, &email, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return w, ErrNotFound
	}
	if err != nil {
		return w, err
	}
	w.Department = dept.String
	w.Skills = SplitSkills(skills.String)
	w.Phone = phone.String
	w.Email = email.String
	return w, nil
}

const workerCols = `id,name,department,skills,phone_number,email,created_at`

func (r Repo) GetWorker(ctx context.Context, id string) (domain.Worker, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+workerCols+` FROM workers WHERE id=?`, id)
	return scanWorker(row.Scan)
}

func (r Repo) GetWorkerTx(ctx context.Context, tx *sql.Tx, id string) (domain.Worker, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+workerCols+` FROM workers WHERE id=?`, id)
	return scanWorker(row.Scan)
}

// GetWorkerByName matches case-insensitively; used only by the name-lookup
// login side-channel.
func (r Repo) GetWorkerByName(ctx context.Context, name string) (domain.Worker, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+workerCols+` FROM workers WHERE name=? COLLATE NOCASE LIMIT 1`, name)
	return scanWorker(row.Scan)
}

func (r Repo) ListWorkers(ctx context.Context) ([]domain.Worker, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+workerCols+` FROM workers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Worker
	for rows.Next() {
		w, err := scanWorker(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

func (r Repo) DeleteWorkerTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM workers WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- chiefs ---

func (r Repo) InsertChief(ctx context.Context, tx *sql.Tx, c domain.Chief) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO chiefs(id,name,department,email,created_at) VALUES (?,?,?,?,?)`,
		c.ID, c.Name, nullable(c.Department), nullable(c.Email), c.CreatedAt)
	return err
}

func scanChief(scan func(dest ...any) error) (domain.Chief, error) {
	var c domain.Chief
	var dept, email sql.NullString
	err := scan(&c.ID, &c.Name, &dept, &email, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	c.Department = dept.String
	c.Email = email.String
	return c, nil
}

func (r Repo) GetChief(ctx context.Context, id string) (domain.Chief, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,name,department,email,created_at FROM chiefs WHERE id=?`, id)
	return scanChief(row.Scan)
}

func (r Repo) GetChiefByName(ctx context.Context, name string) (domain.Chief, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT id,name,department,email,created_at FROM chiefs WHERE name=? COLLATE NOCASE LIMIT 1`, name)
	return scanChief(row.Scan)
}

func (r Repo) ListChiefs(ctx context.Context) ([]domain.Chief, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,department,email,created_at FROM chiefs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Chief
	for rows.Next() {
		c, err := scanChief(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) DeleteChiefTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM chiefs WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- availability periods ---

func (r Repo) InsertAvailability(ctx context.Context, tx *sql.Tx, p domain.AvailabilityPeriod) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO availability_periods(id,worker_id,start_date,end_date,created_at) VALUES (?,?,?,?,?)`,
		p.ID, p.WorkerID, p.StartDate, p.EndDate, p.CreatedAt)
	return err
}

func (r Repo) GetAvailability(ctx context.Context, id string) (domain.AvailabilityPeriod, error) {
	var p domain.AvailabilityPeriod
	err := r.DB.QueryRowContext(ctx, `SELECT id,worker_id,start_date,end_date,created_at FROM availability_periods WHERE id=?`, id).
		Scan(&p.ID, &p.WorkerID, &p.StartDate, &p.EndDate, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// ListAvailability returns all periods, or one worker's when workerID is
// non-empty, ordered by start date.
func (r Repo) ListAvailability(ctx context.Context, workerID string) ([]domain.AvailabilityPeriod, error) {
	query := `SELECT id,worker_id,start_date,end_date,created_at FROM availability_periods`
	var args []any
	if workerID != "" {
		query += ` WHERE worker_id=?`
		args = append(args, workerID)
	}
	query += ` ORDER BY start_date, id`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AvailabilityPeriod
	for rows.Next() {
		var p domain.AvailabilityPeriod
		if err := rows.Scan(&p.ID, &p.WorkerID, &p.StartDate, &p.EndDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) DeleteAvailabilityTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM availability_periods WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- tasks ---

const taskCols = `id,chief_id,title,description,required_skills,required_department,priority,start_date,end_date,estimated_days,status,matched_worker_id,created_at`

func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks(`+taskCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.ChiefID, t.Title, nullable(t.Description), nullable(JoinSkills(t.RequiredSkills)), nullable(t.RequiredDepartment),
		t.Priority, t.StartDate, t.EndDate, t.EstimatedDays, t.Status, nullableStringPtr(t.MatchedWorkerID), t.CreatedAt)
	return err
}

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var t domain.Task
	var desc, skills, dept, matched sql.NullString
	err := scan(&t.ID, &t.ChiefID, &t.Title, &desc, &skills, &dept, &t.Priority,
		&t.StartDate, &t.EndDate, &t.EstimatedDays, &t.Status, &matched, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.Description = desc.String
	t.RequiredSkills = SplitSkills(skills.String)
	t.RequiredDepartment = dept.String
	if matched.Valid {
		t.MatchedWorkerID = &matched.String
	}
	return t, nil
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

func (r Repo) GetTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.Task, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

type TaskFilters struct {
	Status  string
	ChiefID string
}

func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	query := `SELECT ` + taskCols + ` FROM tasks`
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, `status=?`)
		args = append(args, f.Status)
	}
	if f.ChiefID != "" {
		clauses = append(clauses, `chief_id=?`)
		args = append(args, f.ChiefID)
	}
	for i, c := range clauses {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// SetTaskAssignmentTx flips a task between pending and assigned, keeping
// matched_worker_id consistent with the status.
func (r Repo) SetTaskAssignmentTx(ctx context.Context, tx *sql.Tx, taskID, status string, matchedWorkerID *string) error {
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET status=?, matched_worker_id=? WHERE id=?`,
		status, nullableStringPtr(matchedWorkerID), taskID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTaskTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- assignments ---

const assignmentCols = `id,task_id,worker_id,start_date,end_date,match_score,created_at`

func (r Repo) InsertAssignmentTx(ctx context.Context, tx *sql.Tx, a domain.Assignment) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO assignments(`+assignmentCols+`) VALUES (?,?,?,?,?,?,?)`,
		a.ID, a.TaskID, a.WorkerID, a.StartDate, a.EndDate, nullableFloatPtr(a.MatchScore), a.CreatedAt)
	return err
}

func scanAssignment(scan func(dest ...any) error) (domain.Assignment, error) {
	var a domain.Assignment
	var score sql.NullFloat64
	err := scan(&a.ID, &a.TaskID, &a.WorkerID, &a.StartDate, &a.EndDate, &score, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if score.Valid {
		a.MatchScore = &score.Float64
	}
	return a, nil
}

func (r Repo) GetAssignment(ctx context.Context, id string) (domain.Assignment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id=?`, id)
	return scanAssignment(row.Scan)
}

func (r Repo) GetAssignmentTx(ctx context.Context, tx *sql.Tx, id string) (domain.Assignment, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id=?`, id)
	return scanAssignment(row.Scan)
}

func (r Repo) ListAssignments(ctx context.Context) ([]domain.Assignment, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+assignmentCols+` FROM assignments ORDER BY start_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ListAssignmentsByWorkerTx reads one worker's assignments inside the
// ledger's transaction for the booking-conflict re-check.
func (r Repo) ListAssignmentsByWorkerTx(ctx context.Context, tx *sql.Tx, workerID string) ([]domain.Assignment, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE worker_id=? ORDER BY start_date, id`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func collectAssignments(rows *sql.Rows) ([]domain.Assignment, error) {
	var res []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// ListAssignmentDetails joins assignments with task and worker display
// fields, ordered by start date as the board shows them.
func (r Repo) ListAssignmentDetails(ctx context.Context) ([]domain.AssignmentDetail, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT a.id,a.task_id,a.worker_id,a.start_date,a.end_date,a.match_score,a.created_at,
       t.title, COALESCE(t.description,''), t.priority, w.name
FROM assignments a
JOIN tasks t ON t.id = a.task_id
JOIN workers w ON w.id = a.worker_id
ORDER BY a.start_date, a.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AssignmentDetail
	for rows.Next() {
		var d domain.AssignmentDetail
		var score sql.NullFloat64
		if err := rows.Scan(&d.ID, &d.TaskID, &d.WorkerID, &d.StartDate, &d.EndDate, &score, &d.CreatedAt,
			&d.TaskTitle, &d.TaskDescription, &d.TaskPriority, &d.WorkerName); err != nil {
			return nil, err
		}
		if score.Valid {
			d.MatchScore = &score.Float64
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r Repo) DeleteAssignmentTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- events ---

func (r Repo) LatestEvents(ctx context.Context, limit int, evtType, entityKind, entityID string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id,ts,type,entity_kind,entity_id,actor_id,payload_json FROM events WHERE 1=1`
	var args []any
	if evtType != "" {
		query += ` AND type=?`
		args = append(args, evtType)
	}
	if entityKind != "" {
		query += ` AND entity_kind=?`
		args = append(args, entityKind)
	}
	if entityID != "" {
		query += ` AND entity_id=?`
		args = append(args, entityID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var entity sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &entity, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		e.EntityID = entity.String
		res = append(res, e)
	}
	return res, rows.Err()
}

// --- helpers ---

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func nullableFloatPtr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
