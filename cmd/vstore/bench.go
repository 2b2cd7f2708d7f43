package main

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/store"
	"github.com/vango-dev/vstore/pkg/storemetrics"
)

func benchCmd() *cobra.Command {
	var opts benchOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure write and notification throughput",
		Long: `Write to a store with many listeners and report throughput.

Every write changes the value, so each one runs a full
notification pass over all listeners.

Examples:
  vstore bench
  vstore bench --listeners=1000 --writes=50000 --writers=4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("listeners") {
				opts.Listeners = cfg.Bench.Listeners
			}
			if !cmd.Flags().Changed("writes") {
				opts.Writes = cfg.Bench.Writes
			}
			if !cmd.Flags().Changed("writers") {
				opts.Writers = cfg.Bench.Writers
			}
			if opts.Listeners < 0 || opts.Writes <= 0 || opts.Writers <= 0 {
				return errors.New(errors.CodeInvalidFlag).
					WithDetail("--writes and --writers must be positive and --listeners must not be negative")
			}

			res := runBench(opts)
			res.print(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Listeners, "listeners", "l", 0, "Number of listeners (default from config)")
	cmd.Flags().IntVarP(&opts.Writes, "writes", "w", 0, "Number of writes (default from config)")
	cmd.Flags().IntVar(&opts.Writers, "writers", 0, "Concurrent writer goroutines (default from config)")

	return cmd
}

type benchOptions struct {
	Listeners int
	Writes    int
	Writers   int
}

type benchResult struct {
	Options       benchOptions
	Elapsed       time.Duration
	Commits       float64
	Notifications int64
}

// runBench performs opts.Writes increments split across opts.Writers
// goroutines.
func runBench(opts benchOptions) benchResult {
	reg := prometheus.NewRegistry()
	obs := storemetrics.New(storemetrics.WithRegistry(reg))

	s := store.New(0, store.WithName("bench"), store.WithObserver(obs))

	var delivered atomic.Int64
	for i := 0; i < opts.Listeners; i++ {
		s.Subscribe(func(int, int) { delivered.Add(1) })
	}

	per := opts.Writes / opts.Writers
	extra := opts.Writes % opts.Writers

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < opts.Writers; i++ {
		n := per
		if i < extra {
			n++
		}
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < n; j++ {
				s.Update(func(v int) int { return v + 1 })
			}
		}(n)
	}
	wg.Wait()
	elapsed := time.Since(start)

	s.Destroy()

	return benchResult{
		Options:       opts,
		Elapsed:       elapsed,
		Commits:       counterValue(obs.Writes("bench", "committed")),
		Notifications: delivered.Load(),
	}
}

func (r benchResult) print(w io.Writer) {
	perWrite := time.Duration(0)
	if r.Options.Writes > 0 {
		perWrite = r.Elapsed / time.Duration(r.Options.Writes)
	}
	perSec := 0.0
	if r.Elapsed > 0 {
		perSec = float64(r.Options.Writes) / r.Elapsed.Seconds()
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Listeners:      %d\n", r.Options.Listeners)
	fmt.Fprintf(w, "  Writers:        %d\n", r.Options.Writers)
	fmt.Fprintf(w, "  Writes:         %d (%.0f committed)\n", r.Options.Writes, r.Commits)
	fmt.Fprintf(w, "  Notifications:  %d\n", r.Notifications)
	fmt.Fprintf(w, "  Elapsed:        %s\n", r.Elapsed.Round(time.Microsecond))
	fmt.Fprintf(w, "  Per write:      %s\n", perWrite)
	fmt.Fprintf(w, "  Writes/sec:     %.0f\n", perSec)
	fmt.Fprintln(w)
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
