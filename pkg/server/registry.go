package server

import "sync"

// workerRegistry is the ordered set of worker handles not yet joined.
//
// The accept loop appends; only drain removes. Entries are never removed
// when a worker finishes on its own, so a handle stays registered until
// Stop joins it.
type workerRegistry struct {
	mu      sync.Mutex
	workers []*worker
}

func (r *workerRegistry) add(w *worker) {
	r.mu.Lock()
	r.workers = append(r.workers, w)
	r.mu.Unlock()
}

func (r *workerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// drain joins every registered worker and clears the registry.
//
// Each pass snapshots the registry under the lock and joins outside it, so
// add never blocks behind a slow worker. Since add only appends, the
// snapshot is a prefix of the registry and is cut off once joined. Passes
// repeat until a snapshot comes back empty. Returns the number joined.
func (r *workerRegistry) drain() int {
	joined := 0
	for {
		r.mu.Lock()
		snapshot := make([]*worker, len(r.workers))
		copy(snapshot, r.workers)
		r.mu.Unlock()

		if len(snapshot) == 0 {
			return joined
		}

		for _, w := range snapshot {
			w.join()
		}
		joined += len(snapshot)

		r.mu.Lock()
		remaining := r.workers[len(snapshot):]
		r.workers = append([]*worker(nil), remaining...)
		r.mu.Unlock()
	}
}
