package build

import "sync"

// dispatcher runs a fixed set of jobs with at most maxWorkers running
// concurrently, adapted from the bounded worker-pool pattern used for
// peer downloads: a buffered channel as a counting semaphore paired with
// a WaitGroup. Unlike that pool, the set of jobs here is known up front,
// so there is no job queue or cancellation context to manage.
type dispatcher struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newDispatcher(maxWorkers int) *dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &dispatcher{sem: make(chan struct{}, maxWorkers)}
}

func (d *dispatcher) run(job func()) {
	d.wg.Add(1)
	d.sem <- struct{}{}
	go func() {
		defer d.wg.Done()
		defer func() { <-d.sem }()
		job()
	}()
}

func (d *dispatcher) wait() {
	d.wg.Wait()
}
