package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/rs/zerolog"

	"github.com/Qetrox/esp32-gps-follower/pkg/log"
)

// SerialSource reads NMEA sentences from a serial GPS receiver and keeps only
// the newest decoded reading. The read loop runs in its own goroutine so the
// tracker's control loop never blocks on the port.
type SerialSource struct {
	port string
	baud uint

	mu      sync.Mutex
	decoder *decoder

	logger zerolog.Logger
	closer io.Closer
}

// NewSerialSource creates a source for the receiver on the given port.
func NewSerialSource(port string, baud uint) *SerialSource {
	return &SerialSource{
		port:    port,
		baud:    baud,
		decoder: newDecoder(nil),
		logger:  log.WithComponent("gps"),
	}
}

// Start opens the port and begins decoding. The loop reopens the port after
// read errors; it stops only when ctx is cancelled.
func (s *SerialSource) Start(ctx context.Context) error {
	r, err := s.open()
	if err != nil {
		return fmt.Errorf("failed to open GPS port %s: %w", s.port, err)
	}

	s.logger.Info().Str("port", s.port).Uint("baud", s.baud).Msg("GPS serial port opened")
	go s.run(ctx, r)
	return nil
}

func (s *SerialSource) open() (io.ReadCloser, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        s.port,
		BaudRate:        s.baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.closer = port
	s.mu.Unlock()
	return port, nil
}

func (s *SerialSource) run(ctx context.Context, r io.ReadCloser) {
	// Cancellation closes whichever port is current so the blocked read
	// returns.
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.closer != nil {
			s.closer.Close()
		}
		s.mu.Unlock()
	}()

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn().Err(err).Msg("GPS read error, reopening port")
			r.Close()
			reopened, openErr := s.open()
			if openErr != nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
					continue
				}
			}
			r = reopened
			reader = bufio.NewReader(r)
			continue
		}

		s.mu.Lock()
		s.decoder.feed(line)
		s.mu.Unlock()
	}
}

// Latest returns the newest decoded reading.
func (s *SerialSource) Latest() (Reading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decoder.latest()
}
