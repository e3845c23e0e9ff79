package match

import (
	"sort"
	"strings"

	"crewmatch/internal/domain"
)

// Weights are the scoring component maxima. They must be explicit so runs
// are reproducible and the ranking explainable to the operator.
type Weights struct {
	Skills       float64 `yaml:"skills" json:"skills"`
	Department   float64 `yaml:"department" json:"department"`
	Availability float64 `yaml:"availability" json:"availability"`
}

// DefaultWeights: skill overlap up to 50, department fit 30, date coverage 20.
var DefaultWeights = Weights{Skills: 50, Department: 30, Availability: 20}

func (w Weights) total() float64 {
	return w.Skills + w.Department + w.Availability
}

// Result is a score breakdown for one (task, worker) pair.
type Result struct {
	Score           float64
	SkillScore      float64
	DeptScore       float64
	AvailScore      float64
	Coverage        float64
	HasAvailability bool
}

// Score evaluates a worker against a task over the availability snapshot.
// Pure: no side effects, deterministic for identical inputs.
//
//   - skills: w.Skills × |required ∩ worker| / |required|; no required
//     skills means the full component.
//   - department: w.Department if the task names no department or the
//     worker's matches (case-insensitive), else 0.
//   - availability: w.Availability × CoverageFraction over the task window.
//
// A worker with no skill overlap and the wrong department still gets the
// availability component; exclusion is the orchestrator's booking-conflict
// filter, never the score.
func Score(task domain.Task, worker domain.Worker, ix *Index, w Weights) (Result, error) {
	window, err := ParseRange(task.StartDate, task.EndDate)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if len(task.RequiredSkills) == 0 {
		res.SkillScore = w.Skills
	} else {
		have := make(map[string]bool, len(worker.Skills))
		for _, s := range worker.Skills {
			have[strings.ToLower(strings.TrimSpace(s))] = true
		}
		matched := 0
		for _, s := range task.RequiredSkills {
			if have[strings.ToLower(strings.TrimSpace(s))] {
				matched++
			}
		}
		res.SkillScore = w.Skills * float64(matched) / float64(len(task.RequiredSkills))
	}

	if task.RequiredDepartment == "" || strings.EqualFold(task.RequiredDepartment, worker.Department) {
		res.DeptScore = w.Department
	}

	res.Coverage = ix.CoverageFraction(worker.ID, window)
	res.AvailScore = w.Availability * res.Coverage
	res.HasAvailability = ix.HasOverlap(worker.ID, window)

	res.Score = res.SkillScore + res.DeptScore + res.AvailScore
	if res.Score < 0 {
		res.Score = 0
	}
	if max := w.total(); res.Score > max {
		res.Score = max
	}
	if res.Score > 100 {
		res.Score = 100
	}
	return res, nil
}

// Rank orders candidates for presentation: score descending, then coverage
// descending, then name (case-insensitive), then worker id. Fully
// deterministic so repeated runs over unchanged data agree.
func Rank(cands []domain.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Coverage != b.Coverage {
			return a.Coverage > b.Coverage
		}
		an, bn := strings.ToLower(a.WorkerName), strings.ToLower(b.WorkerName)
		if an != bn {
			return an < bn
		}
		return a.WorkerID < b.WorkerID
	})
}
