package detection

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ringsight/ringsight/pkg/models"
)

// Cycles are treated as high-confidence evidence and carry a fixed risk
// rather than a confidence-scaled one.
const cycleRisk = 0.85

// RingCandidate is a detector's proposed fraud ring prior to registration.
type RingCandidate struct {
	Pattern string
	Members []string
	Risk    float64
}

// CycleDetector enumerates simple directed cycles whose node count lies in
// [minLen, maxLen], each reported exactly once regardless of start node or
// traversal direction.
type CycleDetector struct {
	graph  *Graph
	class  *classifier
	logger *zap.SugaredLogger
	minLen int
	maxLen int
}

func NewCycleDetector(g *Graph, class *classifier, logger *zap.SugaredLogger, minLen, maxLen int) *CycleDetector {
	return &CycleDetector{
		graph:  g,
		class:  class,
		logger: logger,
		minLen: minLen,
		maxLen: maxLen,
	}
}

// Detect runs a depth-first search from every non-excluded account and returns
// one candidate per canonical cycle, members in first-found order.
func (cd *CycleDetector) Detect() []RingCandidate {
	var out []RingCandidate
	emitted := make(map[string]struct{})
	for _, start := range cd.graph.accounts {
		if cd.class.excluded(start) {
			continue
		}
		out = cd.search(start, emitted, out)
	}
	cd.logger.Debugw("cycle detection finished", "cycles", len(out))
	return out
}

type cycleFrame struct {
	node string
	next int
}

// search walks an explicit frame stack with a toggled on-path set, so deep or
// wide graphs never pay for per-step path copies. A node may not repeat within
// one path, which guarantees simplicity.
func (cd *CycleDetector) search(start string, emitted map[string]struct{}, out []RingCandidate) []RingCandidate {
	stack := []cycleFrame{{node: start}}
	path := []string{start}
	onPath := map[string]struct{}{start: {}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		nbrs := cd.graph.adj[top.node]
		if top.next >= len(nbrs) {
			delete(onPath, top.node)
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
			continue
		}
		n := nbrs[top.next]
		top.next++

		if n == start {
			if len(path) < cd.minLen {
				continue
			}
			key := canonicalCycleKey(path)
			if _, dup := emitted[key]; dup {
				continue
			}
			emitted[key] = struct{}{}
			members := append([]string(nil), path...)
			out = append(out, RingCandidate{
				Pattern: models.PatternCycle,
				Members: members,
				Risk:    cycleRisk,
			})
			continue
		}
		if _, busy := onPath[n]; busy {
			continue
		}
		if len(path) >= cd.maxLen {
			continue
		}
		stack = append(stack, cycleFrame{node: n})
		path = append(path, n)
		onPath[n] = struct{}{}
	}
	return out
}

// canonicalCycleKey maps every rotation of a cycle's node sequence, and every
// rotation of its reverse, to the same key: the lexicographically smallest
// joined representative.
func canonicalCycleKey(seq []string) string {
	n := len(seq)
	rev := make([]string, n)
	for i, s := range seq {
		rev[n-1-i] = s
	}

	var best string
	rotated := make([]string, 0, n)
	for _, base := range [2][]string{seq, rev} {
		for r := 0; r < n; r++ {
			rotated = append(rotated[:0], base[r:]...)
			rotated = append(rotated, base[:r]...)
			key := strings.Join(rotated, ",")
			if best == "" || key < best {
				best = key
			}
		}
	}
	return best
}
