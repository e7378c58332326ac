package detection

import (
	"time"

	"github.com/ringsight/ringsight/pkg/errors"
	"github.com/ringsight/ringsight/pkg/models"
)

// txRecord pairs an input transaction with its parsed epoch-millisecond
// timestamp. The parse happens once per transaction at index build time; the
// caller-owned record itself is never mutated.
type txRecord struct {
	tx     *models.Transaction
	timeMs int64
}

// timestampLayouts are tried in order when parsing a transaction timestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(ts string) (int64, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

// Graph is the directed adjacency structure and per-account transaction index
// built once per batch. Account and neighbor lists preserve first-appearance
// order so traversal, and therefore ring numbering, is deterministic across
// identical batches.
type Graph struct {
	// accounts in order of first appearance in the batch
	accounts []string
	// adj maps sender -> distinct receivers, multi-edges collapsed
	adj    map[string][]string
	adjSet map[string]map[string]struct{}
	// txIndex maps account -> every record the account plays a role in,
	// batch order, one entry per role
	txIndex map[string][]*txRecord
	// records holds every wrapped transaction in batch order
	records []*txRecord
}

// BuildGraph indexes a transaction batch in one pass. An unparsable timestamp
// fails the whole build; no record with a bogus time value ever enters the
// index.
func BuildGraph(txs []models.Transaction) (*Graph, error) {
	g := &Graph{
		adj:     make(map[string][]string),
		adjSet:  make(map[string]map[string]struct{}),
		txIndex: make(map[string][]*txRecord),
	}
	seen := make(map[string]struct{})

	for i := range txs {
		tx := &txs[i]
		ms, ok := parseTimestamp(tx.Timestamp)
		if !ok {
			return nil, errors.NewWithKind(errors.KindMalformedTimestamp).
				Explain("transaction %s: unparsable timestamp %q", tx.ID, tx.Timestamp)
		}
		rec := &txRecord{tx: tx, timeMs: ms}
		g.records = append(g.records, rec)

		g.touch(seen, tx.SenderID)
		g.touch(seen, tx.ReceiverID)

		edges := g.adjSet[tx.SenderID]
		if edges == nil {
			edges = make(map[string]struct{})
			g.adjSet[tx.SenderID] = edges
		}
		if _, dup := edges[tx.ReceiverID]; !dup {
			edges[tx.ReceiverID] = struct{}{}
			g.adj[tx.SenderID] = append(g.adj[tx.SenderID], tx.ReceiverID)
		}

		g.txIndex[tx.SenderID] = append(g.txIndex[tx.SenderID], rec)
		g.txIndex[tx.ReceiverID] = append(g.txIndex[tx.ReceiverID], rec)
	}
	return g, nil
}

func (g *Graph) touch(seen map[string]struct{}, account string) {
	if _, ok := seen[account]; ok {
		return
	}
	seen[account] = struct{}{}
	g.accounts = append(g.accounts, account)
}

func (g *Graph) hasEdge(from, to string) bool {
	_, ok := g.adjSet[from][to]
	return ok
}

// txTime returns the timestamp of the first transaction found for the ordered
// pair in the sender's transaction list. Repeated transfers between the same
// pair are not aggregated, so this is first-found, not earliest; temporal
// verdicts on such pairs follow input order.
func (g *Graph) txTime(from, to string) (int64, bool) {
	for _, rec := range g.txIndex[from] {
		if rec.tx.SenderID == from && rec.tx.ReceiverID == to {
			return rec.timeMs, true
		}
	}
	return 0, false
}
