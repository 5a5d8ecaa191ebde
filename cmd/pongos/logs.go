package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/pongos/internal/platform/tui"
	"github.com/vovakirdan/pongos/internal/storage"
)

var (
	flagLogLimit int
	flagLines    int
	flagBrowse   bool
	flagLatest   bool
)

var logsCmd = &cobra.Command{
	Use:   "logs [boot-id]",
	Short: "List boots or print a boot's serial output",
	Long: `Without arguments, list the most recent boots. With a boot ID, print
the serial output captured during that boot.

Examples:
  pongos logs
  pongos logs 12
  pongos logs --latest
  pongos logs --browse`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogs,
}

func init() {
	logsCmd.Flags().IntVar(&flagLogLimit, "limit", 20, "Boots to list")
	logsCmd.Flags().IntVar(&flagLines, "lines", 0, "Serial lines to print (0 = all)")
	logsCmd.Flags().BoolVar(&flagBrowse, "browse", false, "Browse boots interactively")
	logsCmd.Flags().BoolVar(&flagLatest, "latest", false, "Print the serial output of the latest boot")
}

func runLogs(_ *cobra.Command, args []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening serial database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case flagBrowse:
		width, height := 80, 24 // Defaults
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width = w
			height = h
		}
		if err := tui.RunBootLog(store, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case flagLatest:
		id, err := store.LatestBootID()
		if errors.Is(err, storage.ErrBootNotFound) {
			fmt.Println("No boots recorded yet.")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printSerial(store, id)

	case len(args) == 1:
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid boot ID %q\n", args[0])
			os.Exit(1)
		}
		printSerial(store, id)

	default:
		listBoots(store)
	}
}

func listBoots(store *storage.Store) {
	boots, err := store.RecentBoots(flagLogLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving boots: %v\n", err)
		os.Exit(1)
	}

	if len(boots) == 0 {
		fmt.Println("No boots recorded yet.")
		fmt.Println()
		fmt.Println("Run 'pongos boot' to power on the machine.")
		return
	}

	fmt.Printf("  %-6s  %-16s  %-14s  %-10s  %-6s  %s\n", "Boot", "Started", "Display", "Difficulty", "Lines", "Exit")
	fmt.Printf("  %-6s  %-16s  %-14s  %-10s  %-6s  %s\n", "----", "-------", "-------", "----------", "-----", "----")
	for _, b := range boots {
		exit := b.ExitReason
		if exit == "" {
			exit = "-"
		}
		difficulty := b.Difficulty
		if difficulty == "" {
			difficulty = "custom"
		}
		fmt.Printf("  %-6d  %-16s  %-14s  %-10s  %-6d  %s\n",
			b.ID, b.StartedAt.Format("2006-01-02 15:04"), b.Display, difficulty, b.SerialLines, exit)
	}
}

func printSerial(store *storage.Store, id int64) {
	boot, err := store.Boot(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	lines, err := store.SerialLines(id, flagLines)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving serial output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Boot %d - %s, started %s\n", boot.ID, boot.Display, boot.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Println()
	for _, l := range lines {
		fmt.Println(l.Text)
	}
	if len(lines) == 0 {
		fmt.Println("No serial output captured.")
	}
}
