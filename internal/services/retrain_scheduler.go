package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const retrainTimeout = 10 * time.Minute

type Retrainer interface {
	RetrainAll(ctx context.Context) (int, error)
}

// RetrainScheduler periodically retrains all profiles on a cron schedule.
type RetrainScheduler struct {
	engine    *cron.Cron
	retrainer Retrainer
	schedule  string
	logger    logrus.FieldLogger
}

func NewRetrainScheduler(retrainer Retrainer, schedule string, location *time.Location, logger logrus.FieldLogger) *RetrainScheduler {
	if location == nil {
		location = time.UTC
	}
	return &RetrainScheduler{
		engine:    cron.New(cron.WithLocation(location)),
		retrainer: retrainer,
		schedule:  schedule,
		logger:    logger,
	}
}

func (scheduler *RetrainScheduler) Enabled() bool {
	return scheduler.schedule != ""
}

// Start registers the retraining job and runs it until ctx is cancelled.
// An empty schedule disables the scheduler.
func (scheduler *RetrainScheduler) Start(ctx context.Context) error {
	if !scheduler.Enabled() {
		scheduler.logger.Info("retraining scheduler disabled")
		return nil
	}

	if _, err := scheduler.engine.AddFunc(scheduler.schedule, func() {
		scheduler.runOnce(ctx)
	}); err != nil {
		return fmt.Errorf("register retraining schedule %q: %w", scheduler.schedule, err)
	}

	scheduler.engine.Start()
	scheduler.logger.WithField("schedule", scheduler.schedule).Info("retraining scheduler started")

	go func() {
		<-ctx.Done()
		<-scheduler.engine.Stop().Done()
		scheduler.logger.Info("retraining scheduler stopped")
	}()
	return nil
}

func (scheduler *RetrainScheduler) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, retrainTimeout)
	defer cancel()

	trained, err := scheduler.retrainer.RetrainAll(ctx)
	entry := scheduler.logger.WithField("trained", trained)
	if err != nil {
		entry.WithError(err).Warn("scheduled retraining finished with errors")
		return
	}
	entry.Info("scheduled retraining finished")
}
