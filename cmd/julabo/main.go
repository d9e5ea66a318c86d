// Command julabo talks to a Julabo bath.
//
// Usage:
//
//	julabo [flags] list
//	julabo [flags] get NAME...
//	julabo [flags] set NAME VALUE
//	julabo [flags] call NAME
//	julabo [flags] snapshot
//	julabo [flags] monitor
//
// The device is selected with -url, e.g. /dev/ttyUSB0, tcp://host:port or
// serial-tcp://host:port. Settings may also come from a TOML file given with
// -config; flags win over the file.
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
	"time"

	"github.com/arloliu/go-julabo/logger"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

// report prints err unless the usage text was already written for it.
func report(w io.Writer, err error) {
	if errors.Is(err, flag.ErrHelp) || err == errUsage { //nolint:errorlint
		return
	}
	fmt.Fprintln(w, "julabo:", err)
}

// parseArgs builds the configuration from defaults, the optional config file
// and the flags, in that order, and returns the remaining arguments.
func parseArgs(args []string, stderr io.Writer) (config, []string, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("julabo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  = fs.String("config", "", "TOML config file")
		url         = fs.String("url", "", "device URL (/dev/ttyUSB0, tcp://host:port, serial-tcp://host:port)")
		model       = fs.String("model", cfg.Model, "device model: CF, HL or FC")
		logLevel    = fs.String("log-level", cfg.LogLevel.String(), "log level")
		cmdLatency  = fs.Duration("command-latency", cfg.CommandLatency, "idle time after a command")
		qryLatency  = fs.Duration("query-latency", cfg.QueryLatency, "idle time after a query")
		serialize   = fs.Bool("serialize-commands", cfg.SerializeCommands, "exclude commands against queries")
		readTimeout = fs.Duration("read-timeout", cfg.ReadTimeout, "reply timeout")
		metricsAddr = fs.String("metrics-addr", "", "serve Prometheus metrics on this address (monitor)")
		interval    = fs.Duration("interval", cfg.Interval, "polling interval (monitor)")
	)

	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: julabo [flags] list|get NAME...|set NAME VALUE|call NAME|snapshot|monitor")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}

	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			return cfg, nil, err
		}
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.URL = *url
		case "model":
			cfg.Model = *model
		case "log-level":
			var lvl logger.Level
			if lvl, err = logger.ParseLevel(*logLevel); err == nil {
				cfg.LogLevel = lvl
			}
		case "command-latency":
			cfg.CommandLatency = *cmdLatency
		case "query-latency":
			cfg.QueryLatency = *qryLatency
		case "serialize-commands":
			cfg.SerializeCommands = *serialize
		case "read-timeout":
			cfg.ReadTimeout = *readTimeout
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "interval":
			cfg.Interval = *interval
		}
	})
	if err != nil {
		return cfg, nil, err
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return cfg, nil, errUsage
	}

	return cfg, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, rest, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	logger.SetLogger(logger.NewSlogWriter(stderr, cfg.LogLevel, false))

	cmd, cmdArgs := rest[0], rest[1:]
	if cmd == "list" {
		return listAttributes(stdout, cfg.Model)
	}

	if cfg.URL == "" {
		return errors.New("no device URL, use -url or the url key of the config file")
	}

	d, err := openDevice(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	switch cmd {
	case "get":
		return getAttributes(ctx, stdout, d, cmdArgs)
	case "set":
		if len(cmdArgs) != 2 {
			return fmt.Errorf("%w: set NAME VALUE", errUsage)
		}
		return d.Set(ctx, cmdArgs[0], cmdArgs[1])
	case "call":
		if len(cmdArgs) != 1 {
			return fmt.Errorf("%w: call NAME", errUsage)
		}
		return d.Invoke(ctx, cmdArgs[0])
	case "snapshot":
		return snapshot(ctx, stdout, d)
	case "monitor":
		return monitor(ctx, stdout, d, cfg)
	}

	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 2 * time.Second
