package worker

import (
	"context"
	"log"
	"sync"
	"time"
)

// RunFunc is one pass of a periodic job
type RunFunc func(ctx context.Context) error

// StartAllWorkers starts the periodic workers enabled by a non-zero
// interval and returns a function waiting for them to stop after ctx is done
func StartAllWorkers(ctx context.Context, enrich RunFunc, enrichInterval time.Duration) func() {
	log.Println("Starting all workers...")

	var wg sync.WaitGroup
	if enrichInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			StartEnrichmentWorker(ctx, enrich, enrichInterval)
		}()
	} else {
		log.Println("Enrichment worker disabled")
	}

	log.Println("All workers started")
	return wg.Wait
}
