// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command chatmarkup renders prefixed chat messages written in tag markup,
// expanding configured placeholders and progress-bar widgets. It runs as an
// admin service or as a one-shot renderer and resolver.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/aiku/chatmarkup/pkg/component"
	"github.com/aiku/chatmarkup/pkg/config"
	"github.com/aiku/chatmarkup/pkg/engine"
	"github.com/aiku/chatmarkup/pkg/placeholder"
	"github.com/aiku/chatmarkup/pkg/render/matrixfmt"
	"github.com/aiku/chatmarkup/pkg/render/mattermostfmt"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	var (
		configPath  string
		recipient   string
		format      string
		structured  bool
		noWatch     bool
		verbose     int
		showVersion bool
	)
	flag.StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file (created from the example if missing)")
	flag.StringVarP(&recipient, "recipient", "r", "", "recipient passed to placeholders as the invocation context")
	flag.StringVarP(&format, "format", "f", "markup", "render output format: markup, matrix or mattermost")
	flag.BoolVar(&structured, "json", false, "render: read a structured JSON payload instead of legacy text")
	flag.BoolVar(&noWatch, "no-watch", false, "serve: do not reload when the config file changes")
	flag.CountVarP(&verbose, "verbose", "v", "increase verbosity; repeat for more detail")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: chatmarkup [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  serve                 run the admin API, config watcher and animation clock\n")
		fmt.Fprintf(os.Stderr, "  render                dispatch one message read from stdin\n")
		fmt.Fprintf(os.Stderr, "  resolve <name> [arg]  resolve one placeholder\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("chatmarkup %s (%s, built %s)\n", Tag, Commit, BuildTime)
		return
	}
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := zerolog.WarnLevel
	switch {
	case verbose >= 2:
		level = zerolog.DebugLevel
	case verbose == 1 || flag.Arg(0) == "serve":
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
	}
	e := engine.New(log, configPath)
	if flag.Arg(0) == "serve" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		e.Metrics = engine.NewMetrics(reg)
		if _, err := e.Reload(cfg); err != nil {
			log.Warn().Err(err).Msg("Some configuration entries were skipped")
		}
		if err := serve(e, cfg, reg, !noWatch); err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
		return
	}

	if _, err := e.Reload(cfg); err != nil {
		log.Warn().Err(err).Msg("Some configuration entries were skipped")
	}
	switch flag.Arg(0) {
	case "render":
		err = render(e, os.Stdin, os.Stdout, recipient, format, structured)
	case "resolve":
		if flag.NArg() < 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = resolve(e, os.Stdout, recipient, flag.Arg(1), flag.Args()[2:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(e *engine.Engine, cfg *config.Config, reg *prometheus.Registry, watch bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go e.RunClock(ctx)
	if watch {
		go func() {
			if err := e.WatchConfig(ctx, 0); err != nil {
				e.Log.Error().Err(err).Msg("Config watcher stopped")
			}
		}()
	}
	if cfg.AdminAPIAddr == "" {
		e.Log.Info().Msg("Admin API disabled")
		<-ctx.Done()
		return nil
	}
	return engine.NewAPI(e, reg).Serve(ctx, cfg.AdminAPIAddr)
}

func render(e *engine.Engine, in io.Reader, out io.Writer, recipient, format string, structured bool) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}
	payload := engine.Payload{Legacy: strings.TrimRight(string(data), "\r\n")}
	if structured {
		payload = engine.Payload{JSON: data}
	}
	d, err := e.Handle(recipient, payload)
	if err != nil {
		return err
	}
	if !d.Handled {
		// Unhandled messages are delivered as they were.
		_, err = out.Write(data)
		return err
	}

	switch format {
	case "markup":
		for _, n := range d.Messages {
			fmt.Fprintln(out, component.ToMarkup(n))
		}
	case "matrix":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(matrixfmt.Render(d.Messages...))
	case "mattermost":
		fmt.Fprintln(out, mattermostfmt.Render(d.Messages...).Message)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func resolve(e *engine.Engine, out io.Writer, sender, name string, args []string) error {
	res, err := e.ResolveCommand(sender, name, args)
	if errors.Is(err, placeholder.ErrUnknownPlaceholder) {
		return fmt.Errorf("placeholder %s not found", name)
	} else if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Text)
	return nil
}
