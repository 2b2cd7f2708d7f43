package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/vango-dev/vstore/internal/config"
	"github.com/vango-dev/vstore/internal/errors"
	"github.com/vango-dev/vstore/pkg/component"
	"github.com/vango-dev/vstore/pkg/devtools"
	"github.com/vango-dev/vstore/pkg/hooks"
	"github.com/vango-dev/vstore/pkg/store"
	"github.com/vango-dev/vstore/pkg/storemetrics"
	"github.com/vango-dev/vstore/pkg/storetrace"
)

// Cart is the value of the inspector's sample store.
type Cart struct {
	Items []string
	Total int
}

func inspectCmd() *cobra.Command {
	var (
		addr string
		tick time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Serve the store inspector with sample stores",
		Long: `Start the HTTP inspector with a few sample stores that change
on a timer.

Endpoints:
  GET /api/stores             registered stores
  GET /api/stores/{name}      one store
  GET /api/stores/{name}/ws   live transitions (WebSocket)
  GET /api/components         components and their hook debug values
  GET /spans                  recent store spans (when tracing is enabled)
  GET /metrics                Prometheus metrics

Examples:
  vstore inspect
  vstore inspect --addr=0.0.0.0:9000 --tick=250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Inspect.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if tick <= 0 {
				return errors.New(errors.CodeInvalidFlag).
					WithDetail("--tick must be positive")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runInspect(ctx, cfg, tick)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "Interval between sample store writes")

	return cmd
}

// inspector is the wired inspector server.
type inspector struct {
	handler  http.Handler
	registry *devtools.Registry
	sched    *component.Scheduler
	counter  *store.Store[int]
	cart     *store.Store[Cart]
	spans    *spanRing
	close    func()
}

// spanHistory is the number of spans the inspector keeps for /spans.
const spanHistory = 256

// newInspector builds the sample stores, the components that read them and
// the HTTP routes.
func newInspector(cfg *config.Config, logger *slog.Logger) (*inspector, error) {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())

	var opts []store.Option
	opts = append(opts, store.WithLogger(logger))
	if cfg.MetricsEnabled() {
		obs := storemetrics.New(
			storemetrics.WithRegistry(promReg),
			storemetrics.WithNamespace(cfg.Inspect.Namespace),
		)
		opts = append(opts, store.WithObserver(obs))
	}

	var (
		spans    *spanRing
		shutdown = func() {}
	)
	if cfg.Tracing.Enabled {
		spans = newSpanRing(spanHistory)
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
		shutdown = func() { _ = tp.Shutdown(context.Background()) }
		opts = append(opts, store.WithObserver(storetrace.New(
			storetrace.WithTracerProvider(tp),
			storetrace.WithTracerName(cfg.Tracing.TracerName),
		)))
	}

	counter := store.New(0, append(opts, store.WithName("counter"))...)
	cart := store.New(Cart{}, append(opts, store.WithName("cart"))...)

	registry := devtools.NewRegistry(devtools.WithLogger(logger))
	if _, err := devtools.Register(registry, counter); err != nil {
		return nil, err
	}
	if _, err := devtools.Register(registry, cart); err != nil {
		return nil, err
	}

	sched := component.NewScheduler(
		component.WithLogger(logger),
		component.WithMaxPasses(cfg.Scheduler.MaxPasses),
	)
	registry.AddComponent(sched.Mount(nil, "counter-badge", func(o *component.Owner) {
		hooks.UseSyncStore(o, counter)
	}))
	registry.AddComponent(sched.Mount(nil, "cart-summary", func(o *component.Owner) {
		hooks.UseStore(o, cart)
		hooks.UseSyncStore(o, counter)
	}))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	registry.Mount(router, "/api")
	if spans != nil {
		router.Handle("/spans", spans)
	}
	if cfg.MetricsEnabled() {
		router.Handle(cfg.Inspect.MetricsPath, promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	}

	return &inspector{
		handler:  router,
		registry: registry,
		sched:    sched,
		counter:  counter,
		cart:     cart,
		spans:    spans,
		close: func() {
			registry.Close()
			shutdown()
		},
	}, nil
}

var products = []string{"apple", "bread", "cheese", "dates", "eggs"}

// step performs one round of sample writes and flushes the components.
func (in *inspector) step(rng *rand.Rand) error {
	in.counter.Update(func(n int) int { return n + 1 })

	in.cart.Update(func(c Cart) Cart {
		if len(c.Items) >= 5 {
			return Cart{}
		}
		item := products[rng.Intn(len(products))]
		return Cart{
			Items: append(append([]string(nil), c.Items...), item),
			Total: c.Total + len(item),
		}
	})

	return in.sched.Flush()
}

func runInspect(ctx context.Context, cfg *config.Config, tick time.Duration) error {
	logger := slog.Default()

	in, err := newInspector(cfg, logger)
	if err != nil {
		return err
	}
	defer in.close()

	ln, err := net.Listen("tcp", cfg.Inspect.Addr)
	if err != nil {
		return errors.New(errors.CodeServerFailed).Wrap(err).
			WithSuggestion("Pick a free port with --addr")
	}

	srv := &http.Server{
		Handler:           in.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	printBanner()
	fmt.Println("  inspect")
	fmt.Println()
	success("Listening on http://%s", ln.Addr())
	info("Stores:  http://%s/api/stores", ln.Addr())
	if cfg.MetricsEnabled() {
		info("Metrics: http://%s%s", ln.Addr(), cfg.Inspect.MetricsPath)
	}
	if in.spans != nil {
		info("Spans:   http://%s/spans", ln.Addr())
	}
	fmt.Println()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Components render on this goroutine only.
			if err := in.step(rng); err != nil {
				logger.Error("flush failed", "error", err)
			}

		case err := <-serveErr:
			if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return errors.New(errors.CodeServerFailed).Wrap(err)
			}
			return nil

		case <-ctx.Done():
			fmt.Println("\n  Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}
