package service

import (
	"context"
	"runtime"
	"sync"
)

// RecomputeCriticalPaths recalculates and persists the critical path of every
// project, fanning the work out to a bounded pool of workers. Each project is
// an independent engine instance, so workers never share mutable state. The
// returned map holds the per-project failures; an empty map means every
// project succeeded.
func (s *ScheduleService) RecomputeCriticalPaths(ctx context.Context, workers int) (map[int64]error, error) {
	projects, err := s.store.ListProjects()
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan int64)
	failures := make(map[int64]error)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if _, err := s.ComputeCriticalPath(id); err != nil {
					s.logger.Errorf("Failed to recompute critical path for project %d: %v", id, err)
					mu.Lock()
					failures[id] = err
					mu.Unlock()
				}
			}
		}()
	}

	for _, p := range projects {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return failures, ctx.Err()
		case jobs <- p.ID:
		}
	}
	close(jobs)
	wg.Wait()

	s.logger.Infof("Recomputed critical paths for %d project(s), %d failure(s)", len(projects), len(failures))
	return failures, nil
}
