package detection

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ringsight/ringsight/pkg/models"
)

// Smurfing risk weights. With fan-out the ring is both collecting and
// redistributing, which earns the larger structural bonus.
const (
	smurfSenderWeight   = 0.5
	smurfHubWeight      = 0.3
	smurfFanOutBonus    = 0.2
	smurfFanInOnlyBonus = 0.15

	smurfSenderNorm = 30.0
	smurfHubNorm    = 40.0
)

// SmurfingDetector finds fan-in/fan-out aggregator accounts: many distinct
// senders funneling into one account within a sliding 72-hour window,
// optionally redistributed to many receivers.
type SmurfingDetector struct {
	graph            *Graph
	class            *classifier
	logger           *zap.SugaredLogger
	window           time.Duration
	minWindowTx      int
	minUniqueSenders int
	minFanOut        int
	riskFloor        float64
}

func NewSmurfingDetector(g *Graph, class *classifier, logger *zap.SugaredLogger, cfg Config) *SmurfingDetector {
	return &SmurfingDetector{
		graph:            g,
		class:            class,
		logger:           logger,
		window:           cfg.SmurfWindow,
		minWindowTx:      cfg.MinWindowTransactions,
		minUniqueSenders: cfg.MinUniqueSenders,
		minFanOut:        cfg.MinFanOutReceivers,
		riskFloor:        cfg.SmurfRiskFloor,
	}
}

// Detect inspects every account in batch order.
func (sd *SmurfingDetector) Detect() []RingCandidate {
	var out []RingCandidate
	for _, acct := range sd.graph.accounts {
		if c := sd.inspect(acct); c != nil {
			out = append(out, *c)
		}
	}
	sd.logger.Debugw("smurfing detection finished", "rings", len(out))
	return out
}

func (sd *SmurfingDetector) inspect(acct string) *RingCandidate {
	if sd.class.excluded(acct) {
		return nil
	}

	var incoming []*txRecord
	for _, rec := range sd.graph.txIndex[acct] {
		if rec.tx.ReceiverID == acct {
			incoming = append(incoming, rec)
		}
	}
	if len(incoming) < sd.minWindowTx {
		return nil
	}

	sort.SliceStable(incoming, func(i, j int) bool {
		return incoming[i].timeMs < incoming[j].timeMs
	})

	// Two-pointer scan for the densest window: for every right edge, the
	// window is [time(right)-72h, time(right)]. Densest by transaction
	// count, not span; on ties the earliest densest window wins.
	windowMs := sd.window.Milliseconds()
	bestLeft, bestCount := 0, 0
	bestRight := -1
	left := 0
	for right := range incoming {
		for incoming[right].timeMs-incoming[left].timeMs > windowMs {
			left++
		}
		if count := right - left + 1; count > bestCount {
			bestLeft, bestRight, bestCount = left, right, count
		}
	}
	if bestCount < sd.minWindowTx {
		return nil
	}

	burst := incoming[bestLeft : bestRight+1]
	var senders []string
	senderSeen := make(map[string]struct{})
	total := decimal.Zero
	for _, rec := range burst {
		total = total.Add(rec.tx.Amount)
		if _, ok := senderSeen[rec.tx.SenderID]; !ok {
			senderSeen[rec.tx.SenderID] = struct{}{}
			senders = append(senders, rec.tx.SenderID)
		}
	}
	if len(senders) < sd.minUniqueSenders {
		return nil
	}

	// Second, narrower merchant re-check on burst-local statistics. A busy
	// storefront can slip past the full-history predicate but still look
	// like a merchant inside its own burst.
	burstAvg := total.Div(decimal.NewFromInt(int64(len(burst))))
	if sd.class.excludedWith(acct, len(senders), burstAvg) {
		return nil
	}

	// Fan-out probe over [windowStart, windowStart+72h]. The upper bound is
	// anchored on the window start, not on the window's last timestamp.
	windowStart := burst[0].timeMs
	var receivers []string
	receiverSeen := make(map[string]struct{})
	for _, rec := range sd.graph.txIndex[acct] {
		if rec.tx.SenderID != acct {
			continue
		}
		if rec.timeMs < windowStart || rec.timeMs > windowStart+windowMs {
			continue
		}
		if _, ok := receiverSeen[rec.tx.ReceiverID]; !ok {
			receiverSeen[rec.tx.ReceiverID] = struct{}{}
			receivers = append(receivers, rec.tx.ReceiverID)
		}
	}
	hasFanOut := len(receivers) >= sd.minFanOut

	senderScore := math.Min(float64(len(senders))/smurfSenderNorm, 1.0)
	var risk float64
	if hasFanOut {
		hubFactor := math.Min(float64(len(senders)+len(receivers))/smurfHubNorm, 1.0)
		risk = smurfSenderWeight*senderScore + smurfHubWeight*hubFactor + smurfFanOutBonus
	} else {
		risk = smurfSenderWeight*senderScore + smurfFanInOnlyBonus
	}
	if risk < sd.riskFloor {
		return nil
	}

	members := make([]string, 0, 1+len(senders)+len(receivers))
	memberSeen := make(map[string]struct{})
	add := func(a string) {
		if _, ok := memberSeen[a]; !ok {
			memberSeen[a] = struct{}{}
			members = append(members, a)
		}
	}
	add(acct)
	for _, s := range senders {
		add(s)
	}
	if hasFanOut {
		for _, r := range receivers {
			add(r)
		}
	}
	return &RingCandidate{Pattern: models.PatternSmurfing, Members: members, Risk: risk}
}
