package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-api/pkg/logger"
)

type countingJob struct {
	runs     atomic.Int32
	err      error
	deadline atomic.Bool
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if _, ok := ctx.Deadline(); ok {
		j.deadline.Store(true)
	}
	return j.err
}

func TestAddRejectsInvalidSpec(t *testing.T) {
	s := NewScheduler(logger.Nop())
	err := s.Add("every now and then", &countingJob{}, 0)
	assert.Error(t, err)
}

func TestRunNowAppliesTimeout(t *testing.T) {
	s := NewScheduler(logger.Nop())
	job := &countingJob{err: errors.New("boom")}

	s.RunNow(job, time.Second)
	assert.Equal(t, int32(1), job.runs.Load())
	assert.True(t, job.deadline.Load())
}

func TestScheduledJobRuns(t *testing.T) {
	s := NewScheduler(logger.Nop())
	job := &countingJob{}
	require.NoError(t, s.Add("@every 1s", job, 0))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
