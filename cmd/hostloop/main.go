package main

import (
	"context"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"hostloop/internal/collector"
	"hostloop/internal/config"
	"hostloop/internal/core"
	"hostloop/internal/link"
	"hostloop/internal/loop"
	"hostloop/internal/netif"
	"hostloop/internal/progress"
	"hostloop/internal/ratelimit"
	"hostloop/internal/stack"
	"hostloop/internal/timer"
)

const (
	ExitSuccess = 0
	ExitError   = 2
)

// primaryLink is the adapter behind the primary interface.
type primaryLink interface {
	link.Adapter
	netif.Driver
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file (built-in defaults if empty)")
	mode := flag.String("mode", "", "timer scheduling: cooperative, external (overrides config)")
	output := flag.String("output", "text", "output format: text, json")
	quiet := flag.Bool("quiet", false, "suppress progress output")
	verbose := flag.Bool("verbose", false, "enable debug output (state changes, frames)")
	maxIterations := flag.Int("max-iterations", 0, "stop after this many loop iterations (0 = unlimited)")
	duration := flag.Duration("duration", 0, "stop after this long (0 = until interrupted)")
	flag.Parse()

	if *output != "text" && *output != "json" {
		fmt.Fprintf(os.Stderr, "error: --output must be 'text' or 'json', got %q\n", *output)
		os.Exit(ExitError)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
	}
	// CLI flags override config file values
	if *mode != "" {
		cfg.Loop.Mode = *mode
	}
	if *maxIterations > 0 {
		cfg.Loop.MaxIterations = *maxIterations
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid config:\n%v\n", err)
		os.Exit(ExitError)
	}

	coll := collector.NewCollector()
	st := stack.NewCounting()

	var debugLogger *loop.DebugLogger
	if *verbose {
		debugLogger = loop.NewDebugLogger(os.Stderr)
	}

	l, primary, err := build(cfg, st, coll, debugLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	var stop loop.Flag
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if !*quiet {
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		}
		stop.Stop()
	}()

	prog := progress.NewProgress(coll, *quiet)
	prog.Printf("hostloop starting: %s mode, %s scheduling, adapter %s, interface %s %s/%s",
		cfg.Loop.Mode, cfg.Loop.Scheduling, cfg.Adapter.Kind,
		cfg.Interface.Name, cfg.Interface.Address, cfg.Interface.Netmask)

	prog.Start()
	runErr := l.Run(ctx, &stop)
	prog.Stop()
	cancel()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(ExitError)
	}

	if s, ok := primary.(interface{ Stats() link.Counters }); ok && *verbose {
		c := s.Stats()
		fmt.Fprintf(os.Stderr, "link %s: %d received, %d errors\n", cfg.Adapter.Kind, c.Received, c.Errors)
	}

	metrics := coll.Compute()
	if *output == "json" {
		collector.FormatJSON(os.Stdout, metrics)
	} else {
		collector.FormatText(os.Stdout, metrics)
	}
	os.Exit(ExitSuccess)
}

// build wires the adapters, timers and interfaces described by cfg into a loop.
func build(cfg *config.Config, st *stack.Counting, coll *collector.Collector, debug *loop.DebugLogger) (*loop.Loop, primaryLink, error) {
	var primary primaryLink
	switch cfg.Adapter.Kind {
	case config.AdapterPacket:
		primary = link.NewPacket(cfg.Adapter.Device)
	case config.AdapterReplay:
		primary = link.NewReplay(cfg.Adapter.Capture, link.ReplayMode(cfg.Adapter.Replay))
	default:
		primary = link.NewReplayFrames(nil, link.ReplayOnce)
	}

	input, err := netif.SelectInput(cfg.Interface.Input, st)
	if err != nil {
		return nil, nil, err
	}
	addr, mask, gw := cfg.Addresses()
	plan := netif.Plan{Primary: netif.Spec{
		Name:    cfg.Interface.Name,
		Address: addr,
		Netmask: mask,
		Gateway: gw,
		Driver:  primary,
		Input:   input,
	}}

	mux := link.NewMux(primary)
	if cfg.Loopback.Enabled {
		lo := link.NewLoopback(cfg.Loopback.Depth)
		// loopback traffic is already IP
		spec := netif.LoopbackSpec(lo, st.IPInput)
		plan.Loopback = &spec
		mux.Add(lo)
	}

	set := timer.NewSet()
	if err := stack.RegisterTimers(set, st, cfg.Features); err != nil {
		return nil, nil, err
	}
	set.Observe(coll.TimerFired)

	lcfg := loop.Config{
		Mode:          loop.Cooperative,
		Source:        core.NewMonotonicSource(cfg.Loop.ClockWrap),
		Plan:          plan,
		TickInterval:  cfg.Loop.TickInterval,
		MaxIterations: cfg.Loop.MaxIterations,
		Stats:         coll,
		Debug:         debug,
	}
	if cfg.Loop.Mode == config.ModeExternal {
		lcfg.Mode = loop.External
	}
	if cfg.Loop.Scheduling == config.SchedulingPaced {
		lcfg.Pacer = ratelimit.NewPacer(cfg.Loop.Rate)
	}
	registry := netif.NewRegistry()
	if cfg.SendDiagnostic() {
		dst, _ := netip.ParseAddrPort(cfg.Diagnostic.Destination)
		lcfg.Diagnostic = &loop.Diagnostic{
			Sender:      &loop.RoutedSender{Interfaces: registry, Next: st},
			Destination: dst,
			Size:        cfg.Diagnostic.Size,
		}
	}

	l, err := loop.New(loop.Context{
		Interfaces: registry,
		Timers:     set,
		Adapter:    mux,
	}, lcfg)
	if err != nil {
		return nil, nil, err
	}
	return l, primary, nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\nRuns the polled network stack host loop.\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
}
