package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"call-outcome-service/internal/classifier"
	"call-outcome-service/internal/observability/metrics"
)

// Row is one classified record.
type Row struct {
	Record
	Result classifier.Result
}

// Run classifies records with at most workers goroutines. Results keep the
// input order. workers <= 0 uses GOMAXPROCS.
func Run(ctx context.Context, c *classifier.Classifier, records []Record, workers int) ([]Row, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rows := make([]Row, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := c.Classify(rec.Text, rec.DurationSeconds)
			rows[i] = Row{Record: rec, Result: res}
			metrics.DefaultMetrics.RecordBatchRow(string(res.Label))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
