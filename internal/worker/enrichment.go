package worker

import (
	"context"
	"errors"
	"log"
	"time"
)

// StartEnrichmentWorker re-runs the enrichment pipeline every interval until
// ctx is done, picking up records that were added or left unresolved since
// the previous pass. It blocks.
func StartEnrichmentWorker(ctx context.Context, run RunFunc, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("Enrichment worker started with interval:", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Enrichment worker stopped")
			return
		case <-ticker.C:
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("ERROR: periodic enrichment failed: %v", err)
			}
		}
	}
}
