/*
Package jobqueue provides a River-based job queue for background maintenance.

Its single job today is the periodic entity mapping sweep, which reaps expired
rows so the mappings table does not grow without bound. See queue_config.go
for tunable parameters.
*/
package jobqueue

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/gitnotify/internal/mappingstore"
)

// MappingSweepArgs represents the arguments for a mapping sweep job. The job
// takes no parameters; the sweep is whole-table.
type MappingSweepArgs struct{}

// Kind returns the job kind for River
func (MappingSweepArgs) Kind() string {
	return "mapping_sweep"
}

// MappingSweepWorker reaps expired entity mappings.
type MappingSweepWorker struct {
	river.WorkerDefaults[MappingSweepArgs]
	store mappingstore.Store
}

// Work performs one sweep pass.
func (w *MappingSweepWorker) Work(ctx context.Context, job *river.Job[MappingSweepArgs]) error {
	removed, err := w.store.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep expired mappings: %w", err)
	}

	log.Printf("[INFO] Mapping sweep removed %d expired row(s)", removed)
	return nil
}

// JobQueue manages the River job queue
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// NewJobQueue creates a new job queue instance. The sweep job is registered
// as a periodic job and also runs once at startup.
func NewJobQueue(databaseURL string, store mappingstore.Store, config *QueueConfig) (*JobQueue, error) {
	if config == nil {
		config = GetQueueConfig()
	}

	// Create a pgx connection pool
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Create River client
	workers := river.NewWorkers()
	river.AddWorker(workers, &MappingSweepWorker{store: store})

	periodicJobs := []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(config.SweepInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return MappingSweepArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       config.RiverQueueConfig(),
		Workers:      workers,
		PeriodicJobs: periodicJobs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Start starts the job queue workers
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers
func (jq *JobQueue) Stop(ctx context.Context) error {
	jq.pool.Close()
	return jq.client.Stop(ctx)
}

// QueueSweepJob queues an immediate sweep outside the periodic schedule.
func (jq *JobQueue) QueueSweepJob(ctx context.Context) error {
	_, err := jq.client.Insert(ctx, MappingSweepArgs{}, nil)
	if err != nil {
		return fmt.Errorf("failed to queue mapping sweep job: %w", err)
	}
	return nil
}
