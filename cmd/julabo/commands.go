package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/arloliu/go-julabo/device"
	"github.com/arloliu/go-julabo/internal/task"
	"github.com/arloliu/go-julabo/logger"
	"github.com/arloliu/go-julabo/metrics"
	"github.com/arloliu/go-julabo/protocol"
	"github.com/arloliu/go-julabo/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func openDevice(ctx context.Context, cfg config) (*device.Device, error) {
	return device.Open(ctx, cfg.URL, cfg.Model,
		device.WithTransportOptions(transport.WithReadTimeout(cfg.ReadTimeout)),
		device.WithEngineOptions(
			protocol.WithCommandLatency(cfg.CommandLatency),
			protocol.WithQueryLatency(cfg.QueryLatency),
			protocol.WithSerializedCommands(cfg.SerializeCommands),
		),
	)
}

func listAttributes(w io.Writer, model string) error {
	p, err := device.ProfileFor(model)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tACCESS\tREAD\tWRITE")
	for _, a := range p.Attributes() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Name(), a.Kind(), a.ReadCommand(), a.WriteCommand())
	}

	return tw.Flush()
}

func getAttributes(ctx context.Context, w io.Writer, d *device.Device, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: get NAME...", errUsage)
	}

	for _, name := range names {
		v, err := d.Get(ctx, name)
		if err != nil {
			return err
		}
		if len(names) == 1 {
			fmt.Fprintln(w, v)
		} else {
			fmt.Fprintf(w, "%s: %v\n", name, v)
		}
	}

	return nil
}

func snapshot(ctx context.Context, w io.Writer, d *device.Device) error {
	readings, err := d.Snapshot(ctx)
	if err != nil {
		return err
	}

	return printReadings(w, readings)
}

func printReadings(w io.Writer, readings []device.Reading) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range readings {
		fmt.Fprintf(tw, "%s\t%v\n", r.Name, r.Value)
	}

	return tw.Flush()
}

// monitor polls snapshots until ctx is done, optionally serving metrics.
func monitor(ctx context.Context, w io.Writer, d *device.Device, cfg config) error {
	log := logger.With("command", "monitor")
	mgr := task.NewManager(ctx, log)

	name := d.Profile().Name()
	readings := metrics.NewReadings(name)

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewEngineCollector(name, d.Engine()), readings)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		err := mgr.Go("metrics", func(ctx context.Context) {
			go func() {
				<-ctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = srv.Shutdown(sctx)
			}()

			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}, nil)
		if err != nil {
			return err
		}
	}

	poll := func() bool {
		rs, err := d.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			log.Warn("snapshot failed", "error", err)

			return true
		}

		readings.Observe(rs, time.Now())
		fmt.Fprintf(w, "--- %s\n", time.Now().Format(time.RFC3339))
		if err := printReadings(w, rs); err != nil {
			log.Error("print failed", "error", err)
			return false
		}

		return true
	}

	if err := mgr.StartInterval("poll", poll, cfg.Interval, true); err != nil {
		return err
	}

	<-ctx.Done()
	mgr.Stop()
	mgr.Wait()

	return nil
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return mux
}
