package detection

import (
	"github.com/shopspring/decimal"
)

// Merchant/payroll classification thresholds over full-history statistics.
const (
	merchantMinFanIn    = 100
	payrollMinReceivers = 100
	payrollMaxIncoming  = 5
)

var merchantMinAvgAmount = decimal.NewFromInt(2000)

// accountStats aggregates an account's full-history activity.
type accountStats struct {
	incomingCount   int
	outgoingCount   int
	uniqueSenders   int
	uniqueReceivers int
	totalIncoming   decimal.Decimal
	totalOutgoing   decimal.Decimal
}

func (st *accountStats) avgIncoming() decimal.Decimal {
	if st.incomingCount == 0 {
		return decimal.Zero
	}
	return st.totalIncoming.Div(decimal.NewFromInt(int64(st.incomingCount)))
}

// classifier holds per-account history statistics and the merchant/payroll
// predicate. Classified accounts are skipped as search roots by all detectors
// and never enter the suspicious-account map; they may still appear inside a
// ring's member list when another member caused the emission.
type classifier struct {
	stats map[string]*accountStats
}

func newClassifier(g *Graph) *classifier {
	stats := make(map[string]*accountStats, len(g.accounts))
	senders := make(map[string]map[string]struct{})
	receivers := make(map[string]map[string]struct{})

	stat := func(acct string) *accountStats {
		st := stats[acct]
		if st == nil {
			st = &accountStats{totalIncoming: decimal.Zero, totalOutgoing: decimal.Zero}
			stats[acct] = st
		}
		return st
	}
	track := func(m map[string]map[string]struct{}, acct, other string) bool {
		set := m[acct]
		if set == nil {
			set = make(map[string]struct{})
			m[acct] = set
		}
		if _, ok := set[other]; ok {
			return false
		}
		set[other] = struct{}{}
		return true
	}

	for _, rec := range g.records {
		out := stat(rec.tx.SenderID)
		out.outgoingCount++
		out.totalOutgoing = out.totalOutgoing.Add(rec.tx.Amount)
		if track(receivers, rec.tx.SenderID, rec.tx.ReceiverID) {
			out.uniqueReceivers++
		}

		in := stat(rec.tx.ReceiverID)
		in.incomingCount++
		in.totalIncoming = in.totalIncoming.Add(rec.tx.Amount)
		if track(senders, rec.tx.ReceiverID, rec.tx.SenderID) {
			in.uniqueSenders++
		}
	}
	return &classifier{stats: stats}
}

func (c *classifier) stat(acct string) *accountStats {
	return c.stats[acct]
}

// excluded reports whether the account classifies as merchant or payroll on
// its full transaction history.
func (c *classifier) excluded(acct string) bool {
	st := c.stats[acct]
	if st == nil {
		return false
	}
	return c.excludedWith(acct, st.uniqueSenders, st.avgIncoming())
}

// excludedWith applies the predicate with caller-supplied fan-in and average
// incoming amount. The smurfing detector uses it for its burst-local re-check;
// the payroll clause always evaluates on full-history counts.
func (c *classifier) excludedWith(acct string, fanIn int, avgIncoming decimal.Decimal) bool {
	st := c.stats[acct]
	if st == nil {
		return false
	}
	merchant := fanIn > merchantMinFanIn &&
		st.outgoingCount == 0 &&
		avgIncoming.GreaterThan(merchantMinAvgAmount)
	payroll := st.uniqueReceivers > payrollMinReceivers &&
		st.incomingCount <= payrollMaxIncoming
	return merchant || payroll
}
