package queue

import (
	"context"
	"sync"
	"time"

	"github.com/shashiranjanraj/grinfood/pkg/docstore"
	"github.com/shashiranjanraj/grinfood/pkg/logger"
)

// FailedJobsCollection holds jobs that exhausted their retries.
const FailedJobsCollection = "failed_jobs"

// FailedJob is a job that exhausted its retries.
type FailedJob struct {
	ID       string    `bson:"_id,omitempty" json:"id"`
	JobType  string    `bson:"jobType" json:"jobType"`
	Payload  string    `bson:"payload" json:"payload"`
	Error    string    `bson:"error" json:"error"`
	Attempts int       `bson:"attempts" json:"attempts"`
	FailedAt time.Time `bson:"failedAt" json:"failedAt"`
}

// failedStore keeps failed jobs in memory and, once configured, in the
// document store.
type failedStore struct {
	mu     sync.Mutex
	col    docstore.Collection
	memory []FailedJob
}

func newFailedStore() *failedStore { return &failedStore{} }

func (s *failedStore) use(col docstore.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.col = col
}

func (s *failedStore) record(ctx context.Context, job FailedJob) {
	s.mu.Lock()
	col := s.col
	if col == nil {
		s.memory = append(s.memory, job)
	}
	s.mu.Unlock()

	if col == nil {
		return
	}
	if _, err := col.Add(ctx, job); err != nil {
		// Keep it in memory so it is not lost entirely.
		logger.Error("queue: persist failed job", "type", job.JobType, "error", err)
		s.mu.Lock()
		s.memory = append(s.memory, job)
		s.mu.Unlock()
	}
}

func (s *failedStore) list(ctx context.Context) ([]FailedJob, error) {
	s.mu.Lock()
	col := s.col
	out := append([]FailedJob(nil), s.memory...)
	s.mu.Unlock()

	if col != nil {
		var stored []FailedJob
		err := col.Find(ctx, docstore.Query{Sort: []docstore.Sort{{Field: "failedAt", Desc: true}}}, &stored)
		if err != nil {
			return nil, err
		}
		out = append(stored, out...)
	}
	return out, nil
}
