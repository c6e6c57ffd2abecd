package sensor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakeSerialPort is a minimal in-memory SerialPorter for exercising the
// reconnect loop without hardware, in the spirit of the teacher's
// TestableSerialPort.
type fakeSerialPort struct {
	mu     sync.Mutex
	reader *bytes.Reader
	failed bool
	closed bool
}

func newFakeSerialPort(lines string) *fakeSerialPort {
	return &fakeSerialPort{reader: bytes.NewReader([]byte(lines))}
}

func (f *fakeSerialPort) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed || f.closed {
		return 0, errors.New("fake serial port read error")
	}
	n, err := f.reader.Read(p)
	if err == io.EOF {
		f.failed = true
	}
	return n, err
}

func (f *fakeSerialPort) Write(p []byte) (int, error) { return len(p), nil }

func (f *fakeSerialPort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeFactory struct {
	mu      sync.Mutex
	opens   int
	lines   []string
	openErr error
}

func (f *fakeFactory) Open(path string, mode *serial.Mode) (SerialPorter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	idx := f.opens
	f.opens++
	if idx >= len(f.lines) {
		idx = len(f.lines) - 1
	}
	return newFakeSerialPort(f.lines[idx]), nil
}

func TestSerialSource_ReadsOneFrameThenReconnectsOnEOF(t *testing.T) {
	factory := &fakeFactory{lines: []string{
		"0,1,2\n100,200,300\n",
		"0,1,2\n400,500,600\n",
	}}
	src := NewSerialSourceWithFactory("/dev/fake0", DefaultSerialMode(), factory)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	assert.Equal(t, StatusConnected, <-src.Status())

	first := <-src.Frames()
	assert.Equal(t, []float64{100, 200, 300}, first.Distances)

	// The first port hits EOF; after the one-second pause the source
	// reopens and reads the second port's frame.
	second := <-src.Frames()
	assert.Equal(t, []float64{400, 500, 600}, second.Distances)
}

func TestSerialSource_OpenFailureIsReturnedImmediately(t *testing.T) {
	factory := &fakeFactory{openErr: errors.New("port busy")}
	src := NewSerialSourceWithFactory("/dev/fake0", DefaultSerialMode(), factory)
	err := src.Start(context.Background())
	assert.Error(t, err)
}

func TestSerialSource_StopClosesFramesChannel(t *testing.T) {
	factory := &fakeFactory{lines: []string{"0,1,2\n100,200,300\n"}}
	src := NewSerialSourceWithFactory("/dev/fake0", DefaultSerialMode(), factory)
	require.NoError(t, src.Start(context.Background()))
	<-src.Status()
	<-src.Frames()

	src.Stop()

	select {
	case _, ok := <-src.Frames():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("frames channel was never closed")
	}
}
