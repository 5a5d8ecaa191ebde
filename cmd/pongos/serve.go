package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pongos/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Boot once and share the console over SSH",
	Long: `Boot the kernel and serve its console over SSH. Every connection
watches the same framebuffer and types on the same keyboard, like monitors
and keyboards on a KVM switch. Serial output is printed to stderr.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.pongos/host_key

Examples:
  pongos serve                           # Listen on :23234 with auto-generated key
  pongos serve --ssh :2222               # Listen on port 2222
  pongos serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) {
	s, err := newSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := tui.DefaultSSHServerConfig()
	cfg.Address = flagSSHAddr
	cfg.HostKeyPath = flagHostKey
	cfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	cfg.FPS = s.machine.Config().Console.FPS

	server, err := tui.NewSSHServer(cfg, s.machine)
	if err != nil {
		s.close(exitPowerOff)
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kernelDone := s.boot(ctx)
	serveCtx, cancelServe := context.WithCancel(ctx)
	defer cancelServe()
	faults := make(chan error, 1)
	go func() {
		if err := <-kernelDone; err != nil {
			faults <- err
			cancelServe()
		}
		close(faults)
	}()

	fmt.Printf("Serving the Pong OS console on %s\n", server.Addr())
	fmt.Println("Connect with: ssh localhost -p 23234")
	fmt.Println("Press Ctrl+C to power off")

	serveErr := server.ListenAndServe(serveCtx)

	s.machine.PowerOff()
	if err := <-faults; err != nil {
		s.halt(err)
	}
	s.close(exitPowerOff)

	if serveErr != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", serveErr)
		os.Exit(1)
	}
}
