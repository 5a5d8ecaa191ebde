package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pongos/internal/machine"
	"github.com/vovakirdan/pongos/internal/platform/tui"
)

var (
	flagTicks    int
	flagPNG      string
	flagPNGScale int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot headless for a fixed number of ticks",
	Long: `Boot the kernel without a console and deliver timer interrupts as
fast as the kernel handles them, then power off. Serial output is printed
to stderr. The final frame can be saved as a PNG.

Examples:
  pongos run --ticks 600
  pongos run --ticks 1 --png boot.png
  pongos run --ticks 3000 --difficulty hard --serial ./serial.log`,
	Args: cobra.NoArgs,
	Run:  runHeadless,
}

func init() {
	runCmd.Flags().IntVar(&flagTicks, "ticks", 600, "Timer interrupts to deliver before power off")
	runCmd.Flags().StringVar(&flagPNG, "png", "", "Save the final frame to this PNG file")
	runCmd.Flags().IntVar(&flagPNGScale, "png-scale", 1, "Pixel scale of the saved frame")
}

func runHeadless(_ *cobra.Command, _ []string) {
	if flagTicks < 0 {
		fmt.Fprintln(os.Stderr, "Error: --ticks must not be negative")
		os.Exit(1)
	}

	var s *session
	timer := machine.CountedTimer(flagTicks, func() { s.machine.PowerOff() })

	s, err := newSession(os.Stderr, machine.WithTimer(timer))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := <-s.boot(context.Background()); err != nil {
		s.halt(err)
	}

	if flagPNG != "" {
		caption := ""
		if flagPNGScale > 1 {
			caption = fmt.Sprintf("%s tick %d", s.machine.DisplayString(), s.machine.Ticks())
		}
		if err := tui.SaveScreenshot(s.machine.Scanout(), flagPNG, flagPNGScale, caption); err != nil {
			s.close(exitPowerOff)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	s.close(exitPowerOff)

	fmt.Printf("Powered off after %d ticks (%d interrupts, %d keys dropped)\n",
		s.machine.Ticks(), s.machine.Interrupts(), s.machine.DroppedKeys())
	if s.bootID != 0 {
		fmt.Printf("Serial output: pongos logs %d\n", s.bootID)
	}
}
