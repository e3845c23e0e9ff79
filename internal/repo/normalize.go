package repo

import (
	"sort"
	"strings"
)

// Clients historically sent skills either as a JSON list or a single
// comma-joined string. Everything is normalized here so only the fixed
// "set of strings" form reaches the scorer: trimmed, lowercased, deduped,
// sorted.

// NormalizeSkills canonicalizes a skill list.
func NormalizeSkills(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			s := strings.ToLower(strings.TrimSpace(part))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// JoinSkills encodes a skill set for storage.
func JoinSkills(skills []string) string {
	return strings.Join(skills, ",")
}

// SplitSkills decodes a stored skill set; empty storage is an empty set.
func SplitSkills(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}
