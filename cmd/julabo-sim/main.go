// Command julabo-sim serves simulated Julabo circulators over TCP.
//
//	julabo-sim -config sim.yaml
//	julabo-sim -listen :5050 -class JulaboCF
//
// Point a client at tcp://host:port or serial-tcp://host:port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/go-julabo/logger"
	"github.com/arloliu/go-julabo/simulator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "julabo-sim:", err)
		}
		os.Exit(1)
	}
}

func parseArgs(args []string, stderr io.Writer) (*simulator.Config, logger.Level, error) {
	fs := flag.NewFlagSet("julabo-sim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath = fs.String("config", "", "YAML config file listing the simulated devices")
		listen     = fs.String("listen", ":5050", "listen address of a single device")
		class      = fs.String("class", string(simulator.JulaboCF), "device class of a single device: JulaboCF or JulaboHL")
		name       = fs.String("name", "julabo", "device name of a single device")
		noise      = fs.Bool("flow-control-noise", false, "inject XON/XOFF into replies")
		logLevel   = fs.String("log-level", "info", "log level")
	)

	if err := fs.Parse(args); err != nil {
		return nil, 0, err
	}

	lvl, err := logger.ParseLevel(*logLevel)
	if err != nil {
		return nil, 0, err
	}

	if *configPath != "" {
		cfg, err := simulator.LoadConfig(*configPath)
		return cfg, lvl, err
	}

	cfg := &simulator.Config{Devices: []simulator.DeviceConfig{{
		Name:             *name,
		Class:            *class,
		Listen:           *listen,
		FlowControlNoise: *noise,
	}}}
	if _, err := simulator.ParseClass(*class); err != nil {
		return nil, 0, err
	}

	return cfg, lvl, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, lvl, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	log := logger.NewSlogWriter(stderr, lvl, false)
	logger.SetLogger(log)

	servers, err := cfg.StartAll(ctx, log)
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutting down")

	for _, s := range servers {
		if err := s.Close(); err != nil {
			log.Warn("close failed", "addr", s.Addr(), "error", err)
		}
	}

	return nil
}
