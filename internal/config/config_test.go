package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Matching.TopK != 5 {
		t.Fatalf("top_k = %d, want 5", cfg.Matching.TopK)
	}
	w := cfg.Matching.Weights
	if w.Skills != 50 || w.Department != 30 || w.Availability != 20 {
		t.Fatalf("weights = %+v", w)
	}
}

func TestFromYAMLKeepsDefaultsForOmittedFields(t *testing.T) {
	cfg, err := FromYAML([]byte("matching:\n  top_k: 3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Matching.TopK != 3 {
		t.Fatalf("top_k = %d, want 3", cfg.Matching.TopK)
	}
	if cfg.Matching.Weights.Skills != 50 {
		t.Fatalf("omitted weights must keep defaults, got %+v", cfg.Matching.Weights)
	}
}

func TestFromYAMLRejectsBadWeights(t *testing.T) {
	cases := []string{
		"matching:\n  weights:\n    skills: -1\n",
		"matching:\n  weights:\n    skills: 0\n    department: 0\n    availability: 0\n",
		"matching:\n  top_k: 0\n",
		"matching: [not a map\n",
	}
	for _, raw := range cases {
		if _, err := FromYAML([]byte(raw)); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Matching.TopK != 5 {
		t.Fatalf("top_k = %d, want default 5", cfg.Matching.TopK)
	}
}

func TestLoadReadsWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	raw := "matching:\n  weights:\n    skills: 60\n    department: 20\n    availability: 20\n"
	if err := os.WriteFile(filepath.Join(dir, "crewmatch.yml"), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Matching.Weights.Skills != 60 {
		t.Fatalf("skills weight = %v, want 60", cfg.Matching.Weights.Skills)
	}
}

func TestGenerateDefaultParses(t *testing.T) {
	if _, err := FromYAML([]byte(GenerateDefault())); err != nil {
		t.Fatalf("generated default must parse: %v", err)
	}
}
