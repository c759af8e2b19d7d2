package history

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Prune deletes entries older than retention. A retention of zero or less
// keeps everything.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.DeleteBefore(ctx, time.Now().Add(-retention))
}

// RunRetention prunes the store once, then again every interval, until ctx
// is done.
func RunRetention(ctx context.Context, store *Store, retention, interval time.Duration, log zerolog.Logger) {
	if retention <= 0 {
		return
	}

	prune := func() {
		n, err := store.Prune(ctx, retention)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("pruning history failed")
			}
			return
		}
		if n > 0 {
			log.Info().Int64("deleted", n).Dur("retention", retention).Msg("pruned history")
		}
	}

	prune()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
