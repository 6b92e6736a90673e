package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/riverqueue/river"
)

func TestDefaultQueueConfig(t *testing.T) {
	cfg := DefaultQueueConfig()

	assert.Equal(t, 24*time.Hour, cfg.SweepInterval, "sweep runs on a daily cadence by default")
	assert.Equal(t, 2, cfg.MaxWorkers)
}

func TestDevelopmentQueueConfigSweepsFaster(t *testing.T) {
	cfg := DevelopmentQueueConfig()
	assert.Less(t, cfg.SweepInterval, DefaultQueueConfig().SweepInterval)
}

func TestRiverQueueConfig(t *testing.T) {
	cfg := DefaultQueueConfig()
	queues := cfg.RiverQueueConfig()

	assert.Equal(t, cfg.MaxWorkers, queues[river.QueueDefault].MaxWorkers)
}
