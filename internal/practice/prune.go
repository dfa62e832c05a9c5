package practice

import (
	"context"
	"time"
)

// Prune deletes issued questions older than retention.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int, error) {
	n, err := s.questions.PruneQuestions(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned issued questions", "count", n, "retention", retention)
	}
	return n, nil
}

// RunPruner calls Prune every interval until ctx is done.
func (s *Service) RunPruner(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Prune(ctx, retention); err != nil {
				s.logger.Warn("prune failed", "error", err)
			}
		}
	}
}
