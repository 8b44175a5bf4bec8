package cron

import (
	"context"
	"fmt"

	"github.com/develand/impulsos-backend/pkg/config"
	"github.com/develand/impulsos-backend/pkg/logger"
	"github.com/develand/impulsos-backend/pkg/metrics"
)

const expirySweepJobName = "expiry-sweep"

type expirySweeper interface {
	SweepExpired(ctx context.Context, batchSize int) (int64, error)
}

// ExpirySweepJobParams configure the token expiry sweep.
type ExpirySweepJobParams struct {
	Logger  *logger.Logger
	Ledger  expirySweeper
	Metrics *metrics.JobMetrics
	Config  config.SweepConfig
}

// NewExpirySweepJob builds the job that flags overdue token grants as
// expired, batch by batch until the backlog is drained.
func NewExpirySweepJob(params ExpirySweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	batchSize := params.Config.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	return &expirySweepJob{
		logg:      params.Logger,
		ledger:    params.Ledger,
		metrics:   params.Metrics,
		batchSize: batchSize,
	}, nil
}

type expirySweepJob struct {
	logg      *logger.Logger
	ledger    expirySweeper
	metrics   *metrics.JobMetrics
	batchSize int
}

func (j *expirySweepJob) Name() string { return expirySweepJobName }

func (j *expirySweepJob) Run(ctx context.Context) error {
	var total int64
	for {
		flipped, err := j.ledger.SweepExpired(ctx, j.batchSize)
		if err != nil {
			return fmt.Errorf("sweep expired grants: %w", err)
		}
		total += flipped
		if flipped < int64(j.batchSize) {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	j.metrics.AddRows(expirySweepJobName, int(total))
	logCtx := j.logg.WithField(ctx, "expired_count", total)
	j.logg.Info(logCtx, "expiry sweep complete")
	return nil
}
