package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pongos/internal/config"
	"github.com/vovakirdan/pongos/internal/kernel"
	"github.com/vovakirdan/pongos/internal/machine"
	"github.com/vovakirdan/pongos/internal/serial"
	"github.com/vovakirdan/pongos/internal/storage"
)

// Exit reasons recorded for a boot.
const (
	exitPowerOff = "poweroff"
	exitFault    = "fault"
)

// session is one power-on: the machine, its serial port and the boot's
// record in the capture database.
type session struct {
	machine *machine.Machine
	port    *serial.Port
	logger  *log.Logger
	store   *storage.Store
	bootID  int64
	pong    config.PongConfig
	closers []io.Closer
}

// newSession loads the configs and powers on a machine. Serial output goes
// to console (may be nil), the --serial file and the capture database.
func newSession(console io.Writer, opts ...machine.Option) (*session, error) {
	mcfg, err := config.LoadMachine(flagConfig)
	if err != nil {
		return nil, err
	}
	pcfg, err := config.LoadPong(flagGameConfig)
	if err != nil {
		return nil, err
	}
	preset, err := config.ParseDifficulty(flagDifficulty)
	if err != nil {
		return nil, err
	}
	config.ApplyPongPreset(&pcfg, preset)

	s := &session{pong: pcfg}

	writers := []io.Writer{}
	if console != nil {
		writers = append(writers, console)
	}
	if flagSerial != "" {
		f, err := os.OpenFile(flagSerial, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("cannot open serial log: %w", err)
		}
		writers = append(writers, f)
		s.closers = append(s.closers, f)
	}
	s.port = serial.NewPort("COM1", io.MultiWriter(writers...))
	s.logger = serial.NewLogger(s.port, "kernel")

	m, err := machine.New(mcfg, serial.NewLogger(s.port, "machine"), opts...)
	if err != nil {
		s.close("")
		return nil, err
	}
	s.machine = m

	// The capture database is optional; the machine runs without it.
	store, err := storage.Open(flagDBPath)
	if err != nil {
		s.logger.Warn("could not open serial database", "error", err)
		return s, nil
	}
	s.store = store
	s.bootID, err = store.BeginBoot(storage.BootRecord{
		Display:    m.DisplayString(),
		Difficulty: flagDifficulty,
		Opponent:   pcfg.Opponent.Mode,
		StartedAt:  time.Now(),
	})
	if err != nil {
		s.logger.Warn("could not record boot", "error", err)
		return s, nil
	}
	s.port.SetSink(store.Sink(s.bootID))
	return s, nil
}

// boot runs the kernel on the machine in the background. The channel
// yields the kernel's result once: a fatal fault, or nil after power off.
func (s *session) boot(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- kernel.Main(ctx, s.machine.BootInfo(), s.machine, kernel.Options{
			Logger: s.logger,
			Pong:   s.pong,
		})
	}()
	return done
}

// close flushes the serial port and finishes the boot record.
func (s *session) close(reason string) {
	if err := s.port.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "serial flush: %v\n", err)
	}
	if err := s.port.SinkErr(); err != nil {
		fmt.Fprintf(os.Stderr, "serial capture incomplete: %v\n", err)
	}
	if s.store != nil {
		if s.bootID != 0 && reason != "" {
			if err := s.store.EndBoot(s.bootID, reason); err != nil {
				fmt.Fprintf(os.Stderr, "could not finish boot record: %v\n", err)
			}
		}
		s.store.Close()
	}
	for _, c := range s.closers {
		c.Close()
	}
}

// halt reports a fatal kernel fault and exits non-zero.
func (s *session) halt(err error) {
	s.logger.Error("kernel fault, machine halted", "error", err)
	s.close(fmt.Sprintf("%s: %v", exitFault, err))
	fmt.Fprintf(os.Stderr, "Kernel fault: %v\n", err)
	os.Exit(1)
}
