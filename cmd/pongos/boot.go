package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/pongos/internal/platform/tui"
)

var flagScreenshots string

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Boot the kernel and play on this terminal",
	Long: `Power on the virtual machine, boot the Pong kernel and attach this
terminal as its monitor and keyboard.

Controls:
  Up/Down   - Move your paddle
  Space     - Start a new match after game over
  Ctrl+S    - Save a PNG screenshot
  Ctrl+C    - Power off

Serial output is captured to the database and, with --serial, to a file.

Examples:
  pongos boot
  pongos boot --difficulty easy
  pongos boot --config ./machine.yaml --serial ./serial.log`,
	Args: cobra.NoArgs,
	Run:  runBoot,
}

func init() {
	bootCmd.Flags().StringVar(&flagScreenshots, "screenshots", "", "Screenshot directory (default: ~/.pongos/screenshots)")
}

func runBoot(_ *cobra.Command, _ []string) {
	// The terminal belongs to the console, so serial output is not echoed.
	s, err := newSession(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kernelDone := s.boot(ctx)

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	shotDir := flagScreenshots
	if shotDir == "" {
		if dir, dirErr := tui.DefaultScreenshotDir(); dirErr == nil {
			shotDir = dir
		}
	}

	// A fault ends the console so the error is not hidden behind the alt
	// screen.
	consoleCtx, cancelConsole := context.WithCancel(ctx)
	defer cancelConsole()
	faults := make(chan error, 1)
	go func() {
		if err := <-kernelDone; err != nil {
			faults <- err
			cancelConsole()
		}
		close(faults)
	}()

	consoleErr := tui.Run(consoleCtx, s.machine, s.machine.Config().Console.FPS,
		tui.WithSize(width, height),
		tui.WithScreenshotDir(shotDir),
	)

	s.machine.PowerOff()
	if err := <-faults; err != nil {
		s.halt(err)
	}
	s.close(exitPowerOff)

	if consoleErr != nil {
		fmt.Fprintf(os.Stderr, "Console error: %v\n", consoleErr)
		os.Exit(1)
	}
}
