package rollup

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunAll runs the engines concurrently, one goroutine each. A failing variant
// does not cancel the others; reports come back in engine order and the
// error joins every failure.
func RunAll(ctx context.Context, engines []*Engine) ([]Report, error) {
	reports := make([]Report, len(engines))
	errs := make([]error, len(engines))
	var g errgroup.Group
	for i, e := range engines {
		g.Go(func() error {
			rep, err := e.Run(ctx)
			reports[i] = rep
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", e.Variant(), err)
			}
			return errs[i]
		})
	}
	// The group has no context, so Wait reports the first failure without
	// cancelling siblings; the joined error names all of them.
	if err := g.Wait(); err != nil {
		return reports, errors.Join(errs...)
	}
	return reports, nil
}
