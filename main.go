/*
statetrack replays recorded barrier traces through the resource state
tracker and reports the barriers each command list ends up with.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/statetrack/engine/config"
	"github.com/spaghettifunk/statetrack/engine/core"
	"github.com/spaghettifunk/statetrack/engine/replay"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	tracePath := flag.String("trace", "", "path to the TOML trace to replay")
	watch := flag.Bool("watch", false, "replay again whenever the trace or the configuration changes")
	flag.Parse()

	if *tracePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// signal channel to capture system calls
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		cancel()
	}()

	failed := run(ctx, *configPath, *tracePath)
	if !*watch {
		if failed {
			os.Exit(1)
		}
		return
	}

	changes := make(chan string, 1)
	w, err := config.NewWatcher(func(path string) {
		select {
		case changes <- path:
		default:
		}
	})
	if err != nil {
		core.LogFatal(err.Error())
	}
	defer w.Close()

	for _, p := range []string{*configPath, *tracePath} {
		if p == "" {
			continue
		}
		if err := w.Add(p); err != nil {
			core.LogFatal(err.Error())
		}
	}

	core.LogInfo("watching for changes, press Ctrl+C to stop")
	for {
		select {
		case p := <-changes:
			core.LogInfo("%s changed, replaying", p)
			run(ctx, *configPath, *tracePath)
		case <-ctx.Done():
			return
		}
	}
}

// run replays the trace once and reports whether anything failed.
func run(ctx context.Context, configPath, tracePath string) bool {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			core.LogError(err.Error())
			return true
		}
	}
	if err := core.LogConfigure(cfg.LogConfig()); err != nil {
		core.LogError("logging config: %s", err)
	}

	tr, err := replay.LoadTrace(tracePath)
	if err != nil {
		core.LogError(err.Error())
		return true
	}

	report, err := replay.NewReplayer(cfg).Run(ctx, tr)
	if err != nil {
		core.LogError(err.Error())
		return true
	}
	report.Log()
	return len(report.Failed()) > 0
}
