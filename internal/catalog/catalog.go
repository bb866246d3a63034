// Package catalog holds the static learning-path catalog: which paths
// exist, how many quiz and challenge items each one ships with, and the
// module descriptors used for completion tracking.
//
// The item totals are authoritative configuration, not something derived
// from stored results. Changing a path's content without updating this
// table silently skews every progress reading for that path.
package catalog

import "fmt"

type ModuleKind string

const (
	KindQuiz      ModuleKind = "quiz"
	KindChallenge ModuleKind = "challenge"
)

// Path is one learning path in the training catalog.
type Path struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	TotalQuizItems      int    `json:"total_quiz_items"`
	TotalChallengeItems int    `json:"total_challenge_items"`
}

// Module is the unit of completion tracking: one quiz or challenge
// grouping inside a path.
type Module struct {
	ID     string     `json:"id"`
	PathID string     `json:"path_id"`
	Kind   ModuleKind `json:"kind"`
	Order  int        `json:"order"`
}

var paths = []Path{
	{ID: "phishing", Title: "Phishing Awareness", TotalQuizItems: 4, TotalChallengeItems: 3},
	{ID: "password", Title: "Password Security", TotalQuizItems: 4, TotalChallengeItems: 2},
	{ID: "social", Title: "Social Engineering", TotalQuizItems: 4, TotalChallengeItems: 3},
	{ID: "data", Title: "Data Protection", TotalQuizItems: 5, TotalChallengeItems: 4},
}

// Paths returns the full catalog in display order.
func Paths() []Path {
	out := make([]Path, len(paths))
	copy(out, paths)
	return out
}

// PathByID looks up one path.
func PathByID(id string) (Path, bool) {
	for _, p := range paths {
		if p.ID == id {
			return p, true
		}
	}
	return Path{}, false
}

// TotalItems returns the configured item count for one (path, kind) pair.
func TotalItems(pathID string, kind ModuleKind) (int, bool) {
	p, ok := PathByID(pathID)
	if !ok {
		return 0, false
	}
	switch kind {
	case KindQuiz:
		return p.TotalQuizItems, true
	case KindChallenge:
		return p.TotalChallengeItems, true
	}
	return 0, false
}

// ModuleFor resolves the module descriptor for a (path, kind) pair.
// Module ids are deterministic ("<path>-quiz", "<path>-challenge") so the
// completion table needs no separate module catalog.
func ModuleFor(pathID string, kind ModuleKind) (Module, bool) {
	p, ok := PathByID(pathID)
	if !ok {
		return Module{}, false
	}
	switch kind {
	case KindQuiz:
		return Module{ID: p.ID + "-quiz", PathID: p.ID, Kind: KindQuiz, Order: 0}, true
	case KindChallenge:
		return Module{ID: p.ID + "-challenge", PathID: p.ID, Kind: KindChallenge, Order: 1}, true
	}
	return Module{}, false
}

// ModuleByID parses a module id back into its descriptor.
func ModuleByID(id string) (Module, bool) {
	for _, p := range paths {
		for _, k := range []ModuleKind{KindQuiz, KindChallenge} {
			if m, _ := ModuleFor(p.ID, k); m.ID == id {
				return m, true
			}
		}
	}
	return Module{}, false
}

// Modules lists both modules of a path in order.
func Modules(pathID string) ([]Module, error) {
	p, ok := PathByID(pathID)
	if !ok {
		return nil, fmt.Errorf("unknown path %q", pathID)
	}
	q, _ := ModuleFor(p.ID, KindQuiz)
	c, _ := ModuleFor(p.ID, KindChallenge)
	return []Module{q, c}, nil
}
