// pongos boots the Pong kernel on a virtual machine and attaches a
// terminal to its framebuffer and keyboard.
//
// Usage:
//
//	pongos boot              - Boot and play on this terminal
//	pongos run               - Boot headless for a number of ticks
//	pongos serve             - Boot and serve the console over SSH
//	pongos logs [boot-id]    - List boots or print a boot's serial output
//
// Global flags:
//
//	--config <path>       - Machine config YAML
//	--game-config <path>  - Pong config YAML
//	--difficulty <name>   - Opponent preset: easy, normal, hard
//	--db <path>           - Serial capture database (default: ~/.pongos/serial.db)
//	--serial <path>       - Also append serial output to this file
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfig     string
	flagGameConfig string
	flagDifficulty string
	flagDBPath     string
	flagSerial     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pongos",
	Short: "Pong OS - a bare-metal Pong kernel on a virtual machine",
	Long: `Pong OS boots a tiny kernel whose only program is Pong. The kernel
draws into a linear framebuffer and runs entirely from timer and keyboard
interrupts; pongos provides the machine and shows the framebuffer in your
terminal.

Available commands:
  boot     - Boot and play on this terminal
  run      - Boot headless for a fixed number of ticks
  serve    - Boot once and share the console over SSH
  logs     - Browse captured serial output

Examples:
  pongos boot
  pongos boot --difficulty hard
  pongos run --ticks 600 --png frame.png
  pongos serve --ssh :2222
  pongos logs`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to machine config YAML")
	rootCmd.PersistentFlags().StringVar(&flagGameConfig, "game-config", "", "Path to Pong config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.pongos/serial.db", "Path to serial capture database")
	rootCmd.PersistentFlags().StringVar(&flagSerial, "serial", "", "Append serial output to this file")

	rootCmd.AddCommand(bootCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(logsCmd)
}
