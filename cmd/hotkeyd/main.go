package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sdaemon "github.com/coreos/go-systemd/v22/daemon"

	"hotkeyd/internal/core"
	"hotkeyd/modules/input"
	"hotkeyd/modules/notify"
	"hotkeyd/modules/process"
	"hotkeyd/modules/window"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./hotkeyd.yaml", "path to config file (json or yaml)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := core.NewApp(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	// Adding a module is New() + Register.
	app.Modules().Register(
		window.New(),
		process.New(),
		input.New(),
		notify.New(),
	)

	if err := app.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}
	// No-ops outside a systemd unit with NotifyAccess.
	_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyReady)

	err = app.Run(ctx)

	_, _ = sdaemon.SdNotify(false, sdaemon.SdNotifyStopping)
	_ = app.Stop(context.Background())
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
