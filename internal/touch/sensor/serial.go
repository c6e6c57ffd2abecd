package sensor

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/jithumediapro/lidar-touch/internal/touch"
)

// SerialPorter is the minimal interface a serial transport needs. Mirrors
// the teacher's serialmux abstraction so tests substitute a fake without
// touching hardware.
type SerialPorter interface {
	io.ReadWriteCloser
}

// SerialPortFactory opens a serial port at a path with a given mode. The
// default factory wraps go.bug.st/serial; tests supply a fake.
type SerialPortFactory interface {
	Open(path string, mode *serial.Mode) (SerialPorter, error)
}

type realSerialPortFactory struct{}

func (realSerialPortFactory) Open(path string, mode *serial.Mode) (SerialPorter, error) {
	return serial.Open(path, mode)
}

// DefaultSerialMode returns the baud/framing used by the line-oriented
// scan protocol: two CSV lines per scan, "angle,angle,..." then
// "dist,dist,...".
func DefaultSerialMode() *serial.Mode {
	return &serial.Mode{BaudRate: 115200, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
}

// SerialSource reads scan frames from a line-oriented serial device,
// reconnecting with a one-second pause on read failure and reporting a
// terminal disconnected status only once reconnection itself fails.
type SerialSource struct {
	path    string
	mode    *serial.Mode
	factory SerialPortFactory

	frames chan touch.ScanFrame
	status chan string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSerialSource creates a source that will dial the given path with the
// real go.bug.st/serial factory.
func NewSerialSource(path string) *SerialSource {
	return NewSerialSourceWithFactory(path, DefaultSerialMode(), realSerialPortFactory{})
}

// NewSerialSourceWithFactory is the testable-seam constructor: pass a fake
// SerialPortFactory to drive reconnect behaviour without hardware.
func NewSerialSourceWithFactory(path string, mode *serial.Mode, factory SerialPortFactory) *SerialSource {
	return &SerialSource{
		path:    path,
		mode:    mode,
		factory: factory,
		frames:  make(chan touch.ScanFrame, 4),
		status:  make(chan string, 8),
	}
}

func (s *SerialSource) Frames() <-chan touch.ScanFrame { return s.frames }
func (s *SerialSource) Status() <-chan string          { return s.status }

// Start opens the port and launches the read loop. Connection failures on
// the very first Open are returned to the caller; failures afterward are
// handled by the reconnect loop and surfaced only through Status.
func (s *SerialSource) Start(ctx context.Context) error {
	port, err := s.factory.Open(s.path, s.mode)
	if err != nil {
		return fmt.Errorf("sensor: opening serial port %q: %w", s.path, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.status <- StatusConnected
	go s.run(runCtx, port)
	return nil
}

func (s *SerialSource) run(ctx context.Context, port SerialPorter) {
	defer close(s.done)
	defer close(s.frames)

	scanner := newFrameScanner(port)
	var seq int64
	for {
		if ctx.Err() != nil {
			port.Close()
			return
		}

		frame, err := readFrame(scanner, seq)
		if err != nil {
			port.Close()
			Logf("sensor: serial read failed: %v", err)
			trySend(s.status, "error:"+err.Error())

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}

			reopened, reopenErr := s.factory.Open(s.path, s.mode)
			if reopenErr != nil {
				trySend(s.status, StatusDisconnected)
				return
			}
			port = reopened
			scanner = newFrameScanner(port)
			trySend(s.status, StatusReconnected)
			continue
		}

		seq++
		select {
		case s.frames <- frame:
		case <-ctx.Done():
			port.Close()
			return
		}
	}
}

func newFrameScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return scanner
}

// readFrame reads one "angle,angle,...\ndist,dist,...\n" pair of lines
// from scanner, interpreting it as one scan sweep. The scanner must live
// across calls so buffered-but-unconsumed bytes carry over between frames.
func readFrame(scanner *bufio.Scanner, seq int64) (touch.ScanFrame, error) {
	if !scanner.Scan() {
		return touch.ScanFrame{}, scannerErr(scanner)
	}
	angles, err := parseCSVFloats(scanner.Text())
	if err != nil {
		return touch.ScanFrame{}, fmt.Errorf("sensor: parsing angle line: %w", err)
	}

	if !scanner.Scan() {
		return touch.ScanFrame{}, scannerErr(scanner)
	}
	distances, err := parseCSVFloats(scanner.Text())
	if err != nil {
		return touch.ScanFrame{}, fmt.Errorf("sensor: parsing distance line: %w", err)
	}

	return touch.ScanFrame{
		TimestampS: float64(seq) / mockScanHz,
		Angles:     angles,
		Distances:  distances,
	}, nil
}

func scannerErr(scanner *bufio.Scanner) error {
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

func parseCSVFloats(line string) ([]float64, error) {
	reader := csv.NewReader(strings.NewReader(line))
	fields, err := reader.Read()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func trySend(ch chan string, v string) {
	select {
	case ch <- v:
	default:
	}
}

// Stop cancels the read loop and waits for it to exit.
func (s *SerialSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}
