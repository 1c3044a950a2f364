package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amenongit/aranealarm-go/internal/cli"
	"github.com/amenongit/aranealarm-go/internal/config"
	"github.com/amenongit/aranealarm-go/internal/engine"
	"github.com/amenongit/aranealarm-go/internal/log"
	"github.com/amenongit/aranealarm-go/internal/metrics"
	"github.com/amenongit/aranealarm-go/internal/notify"
	"github.com/amenongit/aranealarm-go/internal/probe"
	"github.com/amenongit/aranealarm-go/internal/ui"
)

const version = "0.1.0"

const (
	defaultConfigPath = "aranealarm.json"
	defaultLogPath    = "aranealarm.log"
	tickInterval      = 100 * time.Millisecond
)

func main() {
	var (
		flagCheckRate     cli.OptionalFloat
		flagHush          cli.OptionalDuration
		flagProber        cli.OptionalString
		flagPrivileged    cli.OptionalBool
		flagMetricsMode   cli.OptionalMetricsMode
		flagMetricsListen cli.OptionalString
		flagNoUI          cli.OptionalBool
		flagMute          cli.OptionalBool
		flagLogLevel      cli.OptionalString
		flagLogPath       cli.OptionalString
		flagVersion       bool
		flagVersionShort  bool
	)

	flag.Var(&flagCheckRate, "checkrate", "maximum passes per second (override config)")
	flag.Var(&flagHush, "hush", "hush interval for repeated announcements (override config)")
	flag.Var(&flagProber, "prober", "probe mechanism: probing|icmp|external")
	flag.Var(&flagPrivileged, "privileged", "use raw ICMP sockets (requires privileges)")
	flag.Var(&flagMetricsMode, "metrics-mode", "metrics mode: per-node|aggregated|both")
	flag.Var(&flagMetricsListen, "metrics-listen", "metrics listen address (e.g. :9100)")
	flag.Var(&flagNoUI, "no-ui", "disable TUI (log only)")
	flag.Var(&flagMute, "mute", "disable speech announcements")
	flag.Var(&flagLogLevel, "log-level", "log level: debug|info|warn|error")
	flag.Var(&flagLogPath, "log-file", "path for on-demand log export")
	flag.BoolVar(&flagVersion, "version", false, "show version")
	flag.BoolVar(&flagVersionShort, "v", false, "show version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] [config-file]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flagVersion || flagVersionShort {
		fmt.Fprintf(os.Stdout, "aranealarm-go version %s\n", version)
		return
	}

	level := log.LevelInfo
	if v, ok := flagLogLevel.Value(); ok {
		level = log.ParseLevel(v)
	}
	logger := log.NewLogger(level)

	configPath := defaultConfigPath
	if args := flag.Args(); len(args) > 0 {
		configPath = args[0]
	}

	cfg, err := config.Load(configPath)
	logger.LogConfigLoad(err == nil, configPath, err)
	if err != nil {
		os.Exit(1)
	}

	hushInterval := cfg.HushInterval
	if v, ok := flagHush.Value(); ok {
		hushInterval = v
	}
	checkRate := engine.DefaultCheckRate
	if v, ok := flagCheckRate.Value(); ok {
		checkRate = v
	}
	privileged := false
	if v, ok := flagPrivileged.Value(); ok {
		privileged = v
	}
	proberKind := "probing"
	if v, ok := flagProber.Value(); ok {
		proberKind = v
	}
	prober, err := buildProber(proberKind, privileged)
	if err != nil {
		logger.LogError("probe", err, nil)
		os.Exit(1)
	}

	var speaker notify.Speaker = notify.NewExecSpeaker()
	if v, ok := flagMute.Value(); ok && v {
		speaker = notify.SilentSpeaker{}
	}
	voice := notify.NewVoice(speaker)

	eng, err := engine.New(cfg.Nodes, engine.Options{
		CheckRate:    checkRate,
		HushInterval: hushInterval,
		Prober:       prober,
		Commands:     voice,
		Player:       notify.NopPlayer{},
	})
	if err != nil {
		logger.LogError("engine", err, nil)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// An unrecognized command reaching the voice loop means internal
	// desynchronization; that error ends the process.
	voiceErr := make(chan error, 1)
	go func() {
		voiceErr <- voice.Run()
	}()

	if addr, ok := flagMetricsListen.Value(); ok && addr != "" {
		mode := config.MetricsModeBoth
		if v, ok := flagMetricsMode.Value(); ok {
			mode = v
		}
		go func() {
			if err := metrics.Serve(ctx, addr, mode, eng); err != nil && !errors.Is(err, context.Canceled) {
				logger.LogError("metrics", err, nil)
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				eng.Tick()
			}
		}
	}()

	logPath := defaultLogPath
	if v, ok := flagLogPath.Value(); ok && v != "" {
		logPath = v
	}

	headless := false
	if v, ok := flagNoUI.Value(); ok {
		headless = v
	}

	runErr := make(chan error, 1)
	if headless {
		go func() {
			runErr <- runHeadless(ctx, eng, logger)
		}()
	} else {
		go func() {
			runErr <- ui.New(eng, cfg.AlarmRowHeight, logPath).Run(ctx)
		}()
	}

	exitCode := 0
	select {
	case err := <-voiceErr:
		if err != nil {
			logger.LogError("notify", err, nil)
			exitCode = 1
		}
		cancel()
		<-runErr
	case err := <-runErr:
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.LogError("ui", err, nil)
			exitCode = 1
		}
		eng.Shutdown()
		select {
		case err := <-voiceErr:
			if err != nil {
				logger.LogError("notify", err, nil)
				exitCode = 1
			}
		case <-time.After(time.Second):
		}
	}
	os.Exit(exitCode)
}

// buildProber selects the probe mechanism. The library prober is composed
// with the external ping fallback so unprivileged runs still work.
func buildProber(kind string, privileged bool) (probe.Prober, error) {
	switch kind {
	case "probing":
		return probe.NewFallbackProber(probe.NewLibraryProber(privileged), probe.NewExternalProber()), nil
	case "icmp":
		return probe.NewFallbackProber(probe.NewRawProber(), probe.NewExternalProber()), nil
	case "external":
		return probe.NewExternalProber(), nil
	default:
		return nil, fmt.Errorf("unknown prober %q (valid values: probing, icmp, external)", kind)
	}
}

// runHeadless logs each completed pass until the context is cancelled.
func runHeadless(ctx context.Context, eng *engine.Engine, logger *log.Logger) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastPass uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if entry, ok := eng.LogBack(0); ok && entry.Pass > lastPass {
				lastPass = entry.Pass
				logger.LogPass(entry.Pass, entry.Disconnects, entry.DisconnNodes)
			}
		}
	}
}
