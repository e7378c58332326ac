package detection

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/ringsight/ringsight/pkg/models"
)

// Registry assigns ring identifiers, clamps and scales risk scores, and
// merges per-account suspicion records for one analysis call. The counter is
// call-scoped, never process-wide, so concurrent analyses of different
// batches cannot produce colliding ring ids.
type Registry struct {
	class   *classifier
	counter int
	rings   []models.FraudRing
	records map[string]*suspectRecord
	// order keeps accounts in discovery order so equal scores sort stably
	order []string
}

type suspectRecord struct {
	score    float64
	patterns []string
	ringID   string
}

func newRegistry(class *classifier) *Registry {
	return &Registry{
		class:   class,
		records: make(map[string]*suspectRecord),
	}
}

// Add registers a candidate as the next ring and folds its members into the
// suspicious-account map. Merchant/payroll members stay in the ring's member
// list but are skipped in the map.
func (r *Registry) Add(c RingCandidate) {
	r.counter++
	id := fmt.Sprintf("RING_%03d", r.counter)

	risk := c.Risk
	if risk < 0 {
		risk = 0
	} else if risk > 1 {
		risk = 1
	}
	score := math.Round(risk*1000) / 10

	r.rings = append(r.rings, models.FraudRing{
		RingID:         id,
		MemberAccounts: c.Members,
		PatternType:    c.Pattern,
		RiskScore:      score,
	})

	for _, acct := range c.Members {
		if r.class.excluded(acct) {
			continue
		}
		rec := r.records[acct]
		if rec == nil {
			r.records[acct] = &suspectRecord{
				score:    score,
				patterns: []string{c.Pattern},
				ringID:   id,
			}
			r.order = append(r.order, acct)
			continue
		}
		// ring_id tracks only the single highest-scoring ring; the
		// pattern set is a union across all of them
		if score > rec.score {
			rec.score = score
			rec.ringID = id
		}
		if !slices.Contains(rec.patterns, c.Pattern) {
			rec.patterns = append(rec.patterns, c.Pattern)
		}
	}
}

// Result returns the merged suspicious accounts, sorted descending by score
// with ties kept in discovery order, and all registered rings.
func (r *Registry) Result() ([]models.SuspiciousAccount, []models.FraudRing) {
	accounts := make([]models.SuspiciousAccount, 0, len(r.order))
	for _, acct := range r.order {
		rec := r.records[acct]
		accounts = append(accounts, models.SuspiciousAccount{
			AccountID:        acct,
			SuspicionScore:   rec.score,
			DetectedPatterns: rec.patterns,
			RingID:           rec.ringID,
		})
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].SuspicionScore > accounts[j].SuspicionScore
	})
	return accounts, r.rings
}
