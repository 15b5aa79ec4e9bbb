package transcribe

import (
	"runtime"
	"sync"
)

// minChunk is the smallest per-worker slice of grid points worth a goroutine.
const minChunk = 8

// evalTrajectory invokes fn once per grid index. When the Parallel option is
// set the indices are split across workers; fn must write only to
// index-disjoint destinations so both modes produce identical results.
func (tr *Transcription) evalTrajectory(n int, fn func(k int)) {
	if !tr.opts.Parallel {
		for k := 0; k < n; k++ {
			fn(k)
		}
		return
	}
	parallelFor(n, minChunk, func(start, end int) {
		for k := start; k < end; k++ {
			fn(k)
		}
	})
}

// parallelFor executes fn over contiguous chunks of [0, n) on up to
// GOMAXPROCS workers.
func parallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
