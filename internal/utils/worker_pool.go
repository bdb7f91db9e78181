package utils

import "sync"

type CompletedTask[In any, Out any] struct {
	Task   In
	Result Out
	Error  error
}

// RunInPool drains queue with up to maxWorkers goroutines and sends one
// CompletedTask per item to completed, which is closed once every worker has
// returned. A non-positive maxWorkers starts one worker per queued item.
func RunInPool[In any, Out any](worker func(In) (Out, error), queue chan In, completed chan CompletedTask[In, Out], maxWorkers int) {
	workers := len(queue)
	if maxWorkers > 0 {
		workers = min(workers, maxWorkers)
	}

	go func() {
		wg := sync.WaitGroup{}
		wg.Add(workers)

		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()

				for next := range queue {
					res, err := worker(next)
					if err != nil {
						completed <- CompletedTask[In, Out]{Task: next, Error: err}
					} else {
						completed <- CompletedTask[In, Out]{Task: next, Result: res}
					}
				}
			}()
		}

		wg.Wait()

		close(completed)
	}()
}
