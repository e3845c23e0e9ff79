package match

import (
	"math"
	"testing"

	"crewmatch/internal/domain"
)

func scoreTask(skills []string, dept, start, end string) domain.Task {
	return domain.Task{
		RequiredSkills:     skills,
		RequiredDepartment: dept,
		StartDate:          start,
		EndDate:            end,
	}
}

func TestScoreWorkedExample(t *testing.T) {
	task := scoreTask([]string{"go", "sql"}, "platform", "2025-06-02", "2025-06-06")
	ix := NewIndex([]domain.AvailabilityPeriod{
		period("a", "2025-06-01", "2025-06-30"),
		period("b", "2025-06-05", "2025-06-06"),
	})

	a := domain.Worker{ID: "a", Department: "platform", Skills: []string{"go", "sql", "docker"}}
	resA, err := Score(task, a, ix, DefaultWeights)
	if err != nil {
		t.Fatal(err)
	}
	if resA.Score != 100 {
		t.Fatalf("worker a score = %v, want 100", resA.Score)
	}
	if !resA.HasAvailability || resA.Coverage != 1 {
		t.Fatalf("worker a availability: has=%v coverage=%v", resA.HasAvailability, resA.Coverage)
	}

	// No skill overlap, wrong department, 2 of 5 days covered.
	b := domain.Worker{ID: "b", Department: "support", Skills: []string{"excel"}}
	resB, err := Score(task, b, ix, DefaultWeights)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(resB.Score-8) > 1e-9 {
		t.Fatalf("worker b score = %v, want 8", resB.Score)
	}
	if resB.SkillScore != 0 || resB.DeptScore != 0 {
		t.Fatalf("worker b components: skill=%v dept=%v", resB.SkillScore, resB.DeptScore)
	}
}

func TestScoreNoRequiredSkillsGivesFullComponent(t *testing.T) {
	task := scoreTask(nil, "", "2025-06-01", "2025-06-05")
	ix := NewIndex(nil)
	res, err := Score(task, domain.Worker{ID: "w"}, ix, DefaultWeights)
	if err != nil {
		t.Fatal(err)
	}
	// Full skills and department components, zero availability.
	if res.Score != 80 {
		t.Fatalf("score = %v, want 80", res.Score)
	}
	if res.HasAvailability {
		t.Fatalf("worker without periods must report no availability")
	}
}

func TestScorePartialSkillOverlap(t *testing.T) {
	task := scoreTask([]string{"go", "sql", "docker", "k8s"}, "", "2025-06-01", "2025-06-05")
	ix := NewIndex(nil)
	w := domain.Worker{ID: "w", Skills: []string{"go", "docker"}}
	res, err := Score(task, w, ix, DefaultWeights)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.SkillScore-25) > 1e-9 {
		t.Fatalf("skill score = %v, want 25", res.SkillScore)
	}
}

func TestScoreDepartmentCaseInsensitive(t *testing.T) {
	task := scoreTask(nil, "Platform", "2025-06-01", "2025-06-05")
	ix := NewIndex(nil)
	res, err := Score(task, domain.Worker{ID: "w", Department: "platform"}, ix, DefaultWeights)
	if err != nil {
		t.Fatal(err)
	}
	if res.DeptScore != DefaultWeights.Department {
		t.Fatalf("dept score = %v, want %v", res.DeptScore, DefaultWeights.Department)
	}
}

func TestScoreMonotonicInSkillOverlap(t *testing.T) {
	task := scoreTask([]string{"go", "sql", "docker"}, "", "2025-06-01", "2025-06-05")
	ix := NewIndex([]domain.AvailabilityPeriod{period("w", "2025-06-01", "2025-06-05")})
	prev := -1.0
	for _, skills := range [][]string{nil, {"go"}, {"go", "sql"}, {"go", "sql", "docker"}} {
		res, err := Score(task, domain.Worker{ID: "w", Skills: skills}, ix, DefaultWeights)
		if err != nil {
			t.Fatal(err)
		}
		if res.Score <= prev {
			t.Fatalf("score must grow with skill overlap: %v after %v", res.Score, prev)
		}
		prev = res.Score
	}
}

func TestScoreRejectsMalformedTaskWindow(t *testing.T) {
	task := scoreTask(nil, "", "2025-06-10", "2025-06-01")
	if _, err := Score(task, domain.Worker{ID: "w"}, NewIndex(nil), DefaultWeights); err == nil {
		t.Fatalf("expected error for inverted window")
	}
}

func TestRankDeterministicTieBreak(t *testing.T) {
	cands := []domain.Candidate{
		{WorkerID: "3", WorkerName: "zoe", Score: 80, Coverage: 0.5},
		{WorkerID: "1", WorkerName: "Amy", Score: 80, Coverage: 0.9},
		{WorkerID: "2", WorkerName: "amy", Score: 80, Coverage: 0.9},
		{WorkerID: "4", WorkerName: "bob", Score: 95, Coverage: 0.1},
	}
	Rank(cands)
	got := []string{cands[0].WorkerID, cands[1].WorkerID, cands[2].WorkerID, cands[3].WorkerID}
	want := []string{"4", "1", "2", "3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank order = %v, want %v", got, want)
		}
	}
}
