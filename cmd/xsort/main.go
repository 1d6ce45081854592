package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kdpdev/xsort/command"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := command.Main(ctx, os.Args); err != nil {
		os.Exit(1)
	}
}
