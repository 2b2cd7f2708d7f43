package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/vstore/internal/config"
	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/component"
	"github.com/vango-dev/vstore/pkg/hooks"
	"github.com/vango-dev/vstore/pkg/store"
	"github.com/vango-dev/vstore/pkg/storetrace"
)

func demoCmd() *cobra.Command {
	var trace bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through store and hook behavior",
		Long: `Run a scripted walkthrough of a counter store.

The demo subscribes a listener, performs functional and literal
writes, then mounts two components (one per adapter) and shows
how writes turn into renders.

Examples:
  vstore demo
  vstore demo --trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), cfg, trace || cfg.Tracing.Enabled)
		},
	}

	cmd.Flags().BoolVarP(&trace, "trace", "t", false, "Record OpenTelemetry spans and print them at the end")

	return cmd
}

func runDemo(w io.Writer, cfg *config.Config, trace bool) error {
	logger := slog.Default()

	var opts []store.Option
	var recorder *tracetest.SpanRecorder
	if trace {
		recorder = tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		defer func() { _ = tp.Shutdown(context.Background()) }()
		opts = append(opts, store.WithObserver(storetrace.New(
			storetrace.WithTracerProvider(tp),
			storetrace.WithTracerName(cfg.Tracing.TracerName),
		)))
	}

	counter := store.New(0, append(opts, store.WithName("counter"), store.WithLogger(logger))...)

	fmt.Fprintln(w, "store")
	unsubscribe := counter.Subscribe(func(next, prev int) {
		fmt.Fprintf(w, "  listener: %d -> %d\n", prev, next)
	})

	fmt.Fprintln(w, "  Update(n + 1)")
	counter.Update(func(n int) int { return n + 1 })
	fmt.Fprintln(w, "  Set(1), identical, no notification")
	counter.Set(1)
	unsubscribe()
	fmt.Fprintln(w, "  unsubscribed; Set(2)")
	counter.Set(2)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "components")

	sched := component.NewScheduler(
		component.WithLogger(logger),
		component.WithMaxPasses(cfg.Scheduler.MaxPasses),
	)
	syncView := sched.Mount(nil, "sync-view", func(o *component.Owner) {
		fmt.Fprintf(w, "  render sync-view:   %d\n", hooks.UseSyncStore(o, counter).Value)
	})
	directView := sched.Mount(nil, "direct-view", func(o *component.Owner) {
		fmt.Fprintf(w, "  render direct-view: %d\n", hooks.UseStore(o, counter).Value)
	})

	fmt.Fprintln(w, "  Set(3), Set(4), Flush")
	counter.Set(3)
	counter.Set(4)
	if err := sched.Flush(); err != nil {
		return errors.New(errors.CodeRenderLoop).Wrap(err)
	}

	fmt.Fprintf(w, "  subscriptions: %d\n", counter.Len())
	syncView.Unmount()
	directView.Unmount()
	fmt.Fprintf(w, "  after unmount: %d\n", counter.Len())

	counter.Destroy()

	if recorder != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "spans")
		for _, span := range recorder.Ended() {
			fmt.Fprintf(w, "  %-28s %s\n", span.Name(), span.EndTime().Sub(span.StartTime()))
		}
	}
	return nil
}
