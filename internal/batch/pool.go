package batch

import (
	"context"
	"sync"

	"github.com/eleven-am/trackex/internal/domain"
)

// PassFunc runs one extraction pass over one clip.
type PassFunc func(*domain.Clip) (*domain.TrackingData, error)

// Result pairs a clip with its pass outcome.
type Result struct {
	Clip *domain.Clip
	Data *domain.TrackingData
	Err  error
}

// Pool fans independent clip passes out over a fixed number of workers.
// Passes are pure over their own clip, so the only coordination needed
// is dispatch and join.
type Pool struct {
	size int
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{size: size}
}

// Run executes fn for every clip and returns results in input order.
// A failing clip never affects its siblings. Cancelling the context stops
// dispatching further clips and marks them with the context error;
// in-flight passes always run to completion.
func (p *Pool) Run(ctx context.Context, clips []*domain.Clip, fn PassFunc) []Result {
	results := make([]Result, len(clips))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				data, err := fn(clips[idx])
				results[idx] = Result{Clip: clips[idx], Data: data, Err: err}
			}
		}()
	}

dispatch:
	for i := range clips {
		if ctx.Err() != nil {
			cancelFrom(results, clips, i, ctx.Err())
			break
		}
		select {
		case <-ctx.Done():
			cancelFrom(results, clips, i, ctx.Err())
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func cancelFrom(results []Result, clips []*domain.Clip, from int, err error) {
	for i := from; i < len(clips); i++ {
		results[i] = Result{Clip: clips[i], Err: err}
	}
}
