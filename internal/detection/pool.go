package detection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ringsight/ringsight/pkg/models"
)

// Pool bounds the number of concurrently running analyses so one large batch
// cannot starve every other request. Callers block until their own result is
// ready; a caller that abandons the request stops waiting at the semaphore,
// the computation itself is not preemptible mid-algorithm.
type Pool struct {
	svc    *Service
	sem    *semaphore.Weighted
	logger *zap.SugaredLogger
}

func NewPool(svc *Service, maxConcurrent int64, logger *zap.SugaredLogger) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pool{
		svc:    svc,
		sem:    semaphore.NewWeighted(maxConcurrent),
		logger: logger,
	}
}

// Analyze runs one analysis under the concurrency bound. The context is
// honored while queued; once a slot is acquired the analysis runs to
// completion.
func (p *Pool) Analyze(ctx context.Context, txs []models.Transaction) (*models.DetectionResult, error) {
	jobID := uuid.NewString()
	queued := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.logger.Warnw("analysis job abandoned in queue", "job_id", jobID, "queued", time.Since(queued))
		return nil, err
	}
	defer p.sem.Release(1)

	p.logger.Debugw("analysis job started",
		"job_id", jobID,
		"transactions", len(txs),
		"queue_wait", time.Since(queued),
	)
	return p.svc.Analyze(ctx, txs)
}
