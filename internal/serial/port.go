// Package serial is the kernel's diagnostic channel: a COM1-style port that
// collects log output line by line. Nothing written here reaches the screen.
package serial

import (
	"bytes"
	"io"
	"sync"
)

// LineSink receives every complete line written to a port, numbered from 1.
type LineSink interface {
	WriteLine(seq int, line string) error
}

// LineSinkFunc adapts a function to LineSink.
type LineSinkFunc func(seq int, line string) error

// WriteLine calls f.
func (f LineSinkFunc) WriteLine(seq int, line string) error {
	return f(seq, line)
}

// Port is a line-buffered serial port. Complete lines are forwarded to the
// output writer and, when set, to a LineSink. It is safe for concurrent use.
type Port struct {
	mu      sync.Mutex
	name    string
	out     io.Writer
	sink    LineSink
	pending bytes.Buffer
	seq     int
	sinkErr error
}

// NewPort creates a port that echoes lines to out. A nil out discards them.
func NewPort(name string, out io.Writer) *Port {
	if out == nil {
		out = io.Discard
	}
	return &Port{name: name, out: out}
}

// Name returns the port name, e.g. "COM1".
func (p *Port) Name() string {
	return p.name
}

// SetSink attaches a line sink. Lines written before it was attached are not
// replayed.
func (p *Port) SetSink(sink LineSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
}

// Write buffers b and emits every line it completes.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending.Write(b)
	for {
		i := bytes.IndexByte(p.pending.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(p.pending.Next(i + 1))
		if err := p.emit(line); err != nil {
			return len(b), err
		}
	}
	return len(b), nil
}

// Flush emits a trailing partial line, if any.
func (p *Port) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending.Len() == 0 {
		return nil
	}
	line := p.pending.String() + "\n"
	p.pending.Reset()
	return p.emit(line)
}

// Lines returns how many lines the port has emitted.
func (p *Port) Lines() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// SinkErr returns the first error the sink reported. A failing sink does
// not stop the port; the line still reaches the output writer.
func (p *Port) SinkErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sinkErr
}

// emit forwards one newline-terminated line. Callers hold p.mu.
func (p *Port) emit(line string) error {
	p.seq++
	if p.sink != nil {
		if err := p.sink.WriteLine(p.seq, line[:len(line)-1]); err != nil && p.sinkErr == nil {
			p.sinkErr = err
		}
	}
	_, err := io.WriteString(p.out, line)
	return err
}
