package detection

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ringsight/ringsight/pkg/metrics"
	"github.com/ringsight/ringsight/pkg/models"
)

// Config carries the detection thresholds. Defaults match the documented
// detection contract.
type Config struct {
	MinCycleLength        int
	MaxCycleLength        int
	SmurfWindow           time.Duration
	MinWindowTransactions int
	MinUniqueSenders      int
	MinFanOutReceivers    int
	SmurfRiskFloor        float64
	ShellFastSpread       time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinCycleLength:        3,
		MaxCycleLength:        5,
		SmurfWindow:           72 * time.Hour,
		MinWindowTransactions: 10,
		MinUniqueSenders:      10,
		MinFanOutReceivers:    10,
		SmurfRiskFloor:        0.65,
		ShellFastSpread:       24 * time.Hour,
	}
}

// Service runs one full detection pass over an immutable transaction batch.
// Every call builds its own graph index and registry, so concurrent analyses
// never interfere.
type Service struct {
	cfg    Config
	logger *zap.SugaredLogger
}

func NewService(cfg Config, logger *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Analyze produces the complete detection result for a batch, or an error.
// There are no partial results: a malformed timestamp anywhere in the batch
// fails the whole call.
//
// The cycle and smurfing detectors only read the shared index and run
// concurrently; the shell detector needs the confirmed cycle member set and
// starts after cycles complete. Candidates register in fixed detector order
// (cycle, smurfing, shell) so ring numbering is deterministic.
func (s *Service) Analyze(ctx context.Context, txs []models.Transaction) (*models.DetectionResult, error) {
	start := time.Now()

	graph, err := BuildGraph(txs)
	if err != nil {
		metrics.AnalysesProcessed.WithLabelValues("error").Inc()
		return nil, err
	}
	class := newClassifier(graph)

	var cycleRings, smurfRings []RingCandidate
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		cycleRings = NewCycleDetector(graph, class, s.logger, s.cfg.MinCycleLength, s.cfg.MaxCycleLength).Detect()
		return nil
	})
	eg.Go(func() error {
		smurfRings = NewSmurfingDetector(graph, class, s.logger, s.cfg).Detect()
		return nil
	})
	if err := eg.Wait(); err != nil {
		metrics.AnalysesProcessed.WithLabelValues("error").Inc()
		return nil, err
	}

	cycleMembers := make(map[string]struct{})
	for _, c := range cycleRings {
		for _, m := range c.Members {
			cycleMembers[m] = struct{}{}
		}
	}
	shellRings := NewShellDetector(graph, class, s.logger, s.cfg).Detect(cycleMembers)

	reg := newRegistry(class)
	for _, c := range cycleRings {
		reg.Add(c)
	}
	for _, c := range smurfRings {
		reg.Add(c)
	}
	for _, c := range shellRings {
		reg.Add(c)
	}
	suspicious, rings := reg.Result()

	elapsed := time.Since(start)
	metrics.AnalysesProcessed.WithLabelValues("ok").Inc()
	metrics.AnalysisLatency.Observe(elapsed.Seconds())
	metrics.BatchSize.Observe(float64(len(txs)))
	for _, ring := range rings {
		metrics.RingsDetected.WithLabelValues(ring.PatternType).Inc()
	}

	s.logger.Infow("analysis complete",
		"transactions", len(txs),
		"accounts", len(graph.accounts),
		"rings", len(rings),
		"suspicious_accounts", len(suspicious),
		"elapsed", elapsed,
	)

	return &models.DetectionResult{
		SuspiciousAccounts: suspicious,
		FraudRings:         rings,
		Summary: models.DetectionSummary{
			TotalAccountsAnalyzed:     len(graph.accounts),
			SuspiciousAccountsFlagged: len(suspicious),
			FraudRingsDetected:        len(rings),
			ProcessingTimeSeconds:     elapsed.Seconds(),
		},
	}, nil
}
