/*
Package jobqueue configuration - tunable parameters for the River job queue.

### Performance Tuning:
- Increase MaxWorkers if more job types are added later
- Shorten SweepInterval to keep the mappings table tighter at the cost of
  more background queries

### Database Requirements:
- PostgreSQL with River schema migrations applied
- Connection pool sized for the configured worker count
*/
package jobqueue

import (
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds all configurable parameters for the job queue
type QueueConfig struct {
	// MaxWorkers is the number of concurrent workers processing jobs. The
	// sweep is the only job kind, so a small pool suffices.
	MaxWorkers int

	// SweepInterval is how often the expired-mapping sweep runs.
	SweepInterval time.Duration

	// MaxRetries is the maximum retry attempts per job.
	MaxRetries int
}

// DefaultQueueConfig returns the default configuration
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers:    2,
		SweepInterval: 24 * time.Hour,
		MaxRetries:    5,
	}
}

// DevelopmentQueueConfig returns a configuration optimized for development
func DevelopmentQueueConfig() *QueueConfig {
	config := DefaultQueueConfig()

	config.SweepInterval = 5 * time.Minute // Faster feedback while developing
	config.MaxRetries = 2

	return config
}

// GetQueueConfig returns the appropriate configuration based on environment
func GetQueueConfig() *QueueConfig {
	return DefaultQueueConfig()
}

// RiverQueueConfig converts our config to River's queue configuration format
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}
