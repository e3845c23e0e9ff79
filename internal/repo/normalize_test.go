package repo

import (
	"reflect"
	"testing"
)

func TestNormalizeSkills(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"trims and lowercases", []string{"  Go ", "SQL"}, []string{"go", "sql"}},
		{"dedupes", []string{"go", "Go", "go "}, []string{"go"}},
		{"splits comma strings", []string{"go, sql,docker"}, []string{"docker", "go", "sql"}},
		{"mixed list and comma", []string{"Go", "sql, K8s"}, []string{"go", "k8s", "sql"}},
		{"drops empties", []string{"", " , ", "go"}, []string{"go"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NormalizeSkills(c.in); !reflect.DeepEqual(got, c.want) {
				t.Fatalf("NormalizeSkills(%v) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestJoinSplitSkillsRoundTrip(t *testing.T) {
	skills := []string{"docker", "go", "sql"}
	if got := SplitSkills(JoinSkills(skills)); !reflect.DeepEqual(got, skills) {
		t.Fatalf("round trip = %v, want %v", got, skills)
	}
	if got := SplitSkills(""); len(got) != 0 {
		t.Fatalf("empty string must split to empty slice, got %v", got)
	}
}
