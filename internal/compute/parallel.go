package compute

import "sync"

// chunks splits [0, n) into at most workers contiguous ranges of at least
// minChunk items. The last range absorbs the remainder.
func chunks(n, workers, minChunk int) [][2]int {
	if n <= 0 {
		return nil
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if workers > n/minChunk {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers
	ranges := make([][2]int, 0, workers)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// parallelFor runs fn over [0, n) split into chunks and returns once every
// chunk has finished. A single chunk runs on the calling goroutine.
func parallelFor(n, workers, minChunk int, fn func(chunk, start, end int)) {
	ranges := chunks(n, workers, minChunk)
	if len(ranges) == 1 {
		fn(0, ranges[0][0], ranges[0][1])
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(ranges))
	for c, r := range ranges {
		go func(chunk, s, e int) {
			defer wg.Done()
			fn(chunk, s, e)
		}(c, r[0], r[1])
	}
	wg.Wait()
}
