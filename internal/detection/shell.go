package detection

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ringsight/ringsight/pkg/models"
)

const (
	shellSpeedWeight    = 0.7
	shellBaseRisk       = 0.1
	shellFastSpeedScore = 1.0
	shellSlowSpeedScore = 0.75

	// shellRiskFloor is unreachable for either speed outcome (0.8 and
	// 0.625 both pass) but remains part of the contract until a
	// low-confidence tier is defined.
	shellRiskFloor = 0.6

	// A shell intermediary has 2-3 total transaction entries.
	shellMinTotalTx = 2
	shellMaxTotalTx = 3
)

var shellPassThroughFloor = decimal.NewFromFloat(0.6)

// ShellDetector finds 4-hop pass-through chains A->B->C->D where B and C are
// genuine shell intermediaries and no node is a confirmed cycle member.
type ShellDetector struct {
	graph      *Graph
	class      *classifier
	logger     *zap.SugaredLogger
	fastSpread time.Duration
}

func NewShellDetector(g *Graph, class *classifier, logger *zap.SugaredLogger, cfg Config) *ShellDetector {
	return &ShellDetector{
		graph:      g,
		class:      class,
		logger:     logger,
		fastSpread: cfg.ShellFastSpread,
	}
}

// shellIntermediate reports whether the account is a plausible pass-through:
// very little history, non-zero inflow, and a pass-through ratio of at least
// 0.6 (near 1 means pure fund forwarding).
func (sd *ShellDetector) shellIntermediate(acct string) bool {
	st := sd.class.stat(acct)
	if st == nil {
		return false
	}
	total := st.incomingCount + st.outgoingCount
	if total < shellMinTotalTx || total > shellMaxTotalTx {
		return false
	}
	if !st.totalIncoming.IsPositive() || !st.totalOutgoing.IsPositive() {
		return false
	}
	ratio := decimal.Min(
		st.totalOutgoing.Div(st.totalIncoming),
		st.totalIncoming.Div(st.totalOutgoing),
	)
	return ratio.GreaterThanOrEqual(shellPassThroughFloor)
}

// Detect walks every edge A->B in batch order, extending through qualifying
// intermediaries to chains A->B->C->D with strictly increasing hop times.
// cycleMembers is the confirmed member set from the cycle detector; a D->A
// back-edge is left to the cycle detector as well.
func (sd *ShellDetector) Detect(cycleMembers map[string]struct{}) []RingCandidate {
	var out []RingCandidate
	seen := make(map[string]struct{})

	inCycle := func(a string) bool {
		_, ok := cycleMembers[a]
		return ok
	}

	for _, a := range sd.graph.accounts {
		if inCycle(a) || sd.class.excluded(a) {
			continue
		}
		for _, b := range sd.graph.adj[a] {
			if inCycle(b) || !sd.shellIntermediate(b) {
				continue
			}
			abTime, ok := sd.graph.txTime(a, b)
			if !ok {
				continue
			}
			for _, c := range sd.graph.adj[b] {
				if c == a || inCycle(c) || !sd.shellIntermediate(c) {
					continue
				}
				bcTime, ok := sd.graph.txTime(b, c)
				if !ok || bcTime <= abTime {
					continue
				}
				for _, d := range sd.graph.adj[c] {
					if d == a || d == b || d == c {
						continue
					}
					if sd.graph.hasEdge(d, a) {
						continue
					}
					cdTime, ok := sd.graph.txTime(c, d)
					if !ok || cdTime <= bcTime {
						continue
					}

					key := strings.Join([]string{a, b, c, d}, ",")
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}

					speedScore := shellSlowSpeedScore
					if cdTime-abTime < sd.fastSpread.Milliseconds() {
						speedScore = shellFastSpeedScore
					}
					risk := shellSpeedWeight*speedScore + shellBaseRisk
					if risk < shellRiskFloor {
						continue
					}
					out = append(out, RingCandidate{
						Pattern: models.PatternShell,
						Members: []string{a, b, c, d},
						Risk:    risk,
					})
				}
			}
		}
	}
	sd.logger.Debugw("shell detection finished", "chains", len(out))
	return out
}
