// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/philquery/pkg/types"
)

// Lister fetches the current source list from the backend.
type Lister interface {
	GetSources(ctx context.Context) ([]types.AvailableSource, error)
}

// Refresh fetches sources from l and replaces the stored list. On a fetch
// error the stored list is left untouched.
func (s *Store) Refresh(ctx context.Context, l Lister) (int, error) {
	sources, err := l.GetSources(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching sources: %w", err)
	}
	return s.Replace(ctx, sources)
}

// Stale reports whether the catalogue has never been synced or was last
// synced more than maxAge ago.
func (s *Store) Stale(ctx context.Context, maxAge time.Duration) (bool, error) {
	at, ok, err := s.SyncedAt(ctx)
	if err != nil {
		return false, err
	}
	return !ok || s.now().Sub(at) > maxAge, nil
}
