package pipeline

import (
	"sync"
)

// orderedJob pairs a value with the slot its result goes to.
type orderedJob[T, U any] struct {
	value T
	reply chan U
}

// orderedMap applies fn to every value from in with a pool of workers and
// sends the results to out in input order. It closes out once in is closed
// and every result has been emitted.
//
// The dispatcher pairs each value with a one-slot reply channel and queues
// the slot on an ordered channel of the same capacity as the work queue.
// The emitter drains slots front to back, so a slow head blocks emission
// (never the workers) and backpressure reaches the dispatcher through the
// bounded ordered channel.
func orderedMap[T, U any](in <-chan T, out chan<- U, workers, capacity int, fn func(workerID int, v T) U) {
	jobs := make(chan orderedJob[T, U], capacity)
	ordered := make(chan chan U, capacity)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobs {
				j.reply <- fn(workerID, j.value)
			}
		}(i)
	}

	go func() {
		defer close(ordered)
		defer close(jobs)
		for v := range in {
			reply := make(chan U, 1)
			ordered <- reply
			jobs <- orderedJob[T, U]{value: v, reply: reply}
		}
	}()

	for reply := range ordered {
		out <- <-reply
	}

	wg.Wait()
	close(out)
}
