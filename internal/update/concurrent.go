package update

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentResolutions bounds step 6's file-ID resolution fan-out per
// spec §4.12/§5 — at most 5 catalog calls in flight at once.
const maxConcurrentResolutions = 5

// FileFetcher resolves one tracked mod's ResolvedFile, typically by calling
// the catalog for its file list and feeding ResolveFile.
type FileFetcher func(ctx context.Context, mod TrackedModState) (ResolvedFile, bool, error)

// ResolveFilesConcurrently runs fetch over mods with at most
// maxConcurrentResolutions in flight. A single mod's failure doesn't abort
// the others; every per-mod error is aggregated into the returned error via
// go-multierror so the caller can log them all instead of only the first.
func ResolveFilesConcurrently(ctx context.Context, mods []TrackedModState, fetch FileFetcher) (map[int64]ResolvedFile, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentResolutions)

	var (
		mu      sync.Mutex
		results = make(map[int64]ResolvedFile, len(mods))
		errs    *multierror.Error
	)

	for _, mod := range mods {
		mod := mod
		g.Go(func() error {
			resolved, ok, err := fetch(gctx, mod)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, err)
				return nil
			}
			if ok {
				results[mod.NexusModID] = resolved
			}
			return nil
		})
	}

	// g.Wait only ever returns an error from a panic-free fetch that itself
	// returns one; fetch here always returns nil so results/errs carry the
	// real outcome instead.
	_ = g.Wait()

	if errs != nil {
		return results, errs.ErrorOrNil()
	}
	return results, nil
}
