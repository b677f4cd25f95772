package util

import "golang.org/x/sync/errgroup"

// ConcurrentMapFuncWithError runs f over inputs with at most concurrency
// goroutines in flight and returns their results in input order, regardless
// of completion order. concurrency == 0 disables concurrency (one goroutine
// at a time); concurrency < 0 runs every input's goroutine at once. An
// error from f does not cancel the other calls: every input is still
// processed, and the first error is returned once all calls have finished.
//
// backup's dump strategies use this to dump each table's bytes on its own
// goroutine while still concatenating the artifact in the caller's table
// order: writing each result straight into its own slice index needs no
// extra bookkeeping to recover that order afterward.
func ConcurrentMapFuncWithError[Tin any, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	outputs := make([]Tout, len(inputs))

	eg := errgroup.Group{}
	switch {
	case concurrency == 0:
		eg.SetLimit(1)
	case concurrency > 0:
		eg.SetLimit(concurrency)
	}

	for i, in := range inputs {
		i, in := i, in
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
