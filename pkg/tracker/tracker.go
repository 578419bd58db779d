package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Qetrox/esp32-gps-follower/pkg/gps"
	"github.com/Qetrox/esp32-gps-follower/pkg/log"
	"github.com/Qetrox/esp32-gps-follower/pkg/metrics"
	"github.com/Qetrox/esp32-gps-follower/pkg/types"
	"github.com/Qetrox/esp32-gps-follower/pkg/wifi"
)

// Default design values for the reporting loop.
const (
	DefaultInterval   = 2 * time.Second
	DefaultMaxGPSAge  = 2 * time.Second
	DefaultPushWindow = 5 * time.Second
)

// Pusher uploads one packet to the server. The client package satisfies this.
type Pusher interface {
	PushPacket(ctx context.Context, pkt *types.Packet) (*types.IngestAck, error)
}

// Connectivity is the slice of the wifi manager the reporting loop needs.
type Connectivity interface {
	EnsureConnected(ctx context.Context) wifi.State
	RefreshNetworks(ctx context.Context)
}

// Agent is the on-device reporting loop. Every cycle it repairs
// connectivity if needed, samples the GPS source, and pushes one packet.
// A cycle never blocks the next one for long: the push carries its own
// timeout, and push failures are logged and dropped rather than retried.
type Agent struct {
	gps    gps.Source
	net    Connectivity
	pusher Pusher

	interval   time.Duration
	maxGPSAge  time.Duration
	pushWindow time.Duration
	now        func() time.Time

	logger zerolog.Logger
}

// Config holds agent configuration
type Config struct {
	GPS          gps.Source
	Connectivity Connectivity
	Pusher       Pusher

	Interval   time.Duration
	MaxGPSAge  time.Duration
	PushWindow time.Duration
	Now        func() time.Time
}

// NewAgent creates a reporting agent.
func NewAgent(cfg *Config) *Agent {
	a := &Agent{
		gps:        cfg.GPS,
		net:        cfg.Connectivity,
		pusher:     cfg.Pusher,
		interval:   cfg.Interval,
		maxGPSAge:  cfg.MaxGPSAge,
		pushWindow: cfg.PushWindow,
		now:        cfg.Now,
		logger:     log.WithComponent("tracker"),
	}
	if a.interval <= 0 {
		a.interval = DefaultInterval
	}
	if a.maxGPSAge <= 0 {
		a.maxGPSAge = DefaultMaxGPSAge
	}
	if a.pushWindow <= 0 {
		a.pushWindow = DefaultPushWindow
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Run drives the reporting loop until ctx is cancelled. It connects once up
// front and pulls the credential list before entering the cycle, so a node
// rebooted into a changed WiFi landscape recovers without waiting for a
// fallback connect.
func (a *Agent) Run(ctx context.Context) error {
	if a.net.EnsureConnected(ctx) == wifi.StateConnected {
		a.net.RefreshNetworks(ctx)
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info().Dur("interval", a.interval).Msg("reporting loop started")

	for {
		select {
		case <-ticker.C:
			a.Step(ctx)
		case <-ctx.Done():
			a.logger.Info().Msg("reporting loop stopped")
			return ctx.Err()
		}
	}
}

// Step runs one reporting cycle. Exported so the CLI can run a single
// one-shot cycle and tests can drive the loop directly.
func (a *Agent) Step(ctx context.Context) {
	if a.net.EnsureConnected(ctx) != wifi.StateConnected {
		return
	}

	reading, ok := a.gps.Latest()
	if !ok {
		return
	}
	if age := a.now().Sub(reading.At); age > a.maxGPSAge {
		a.logger.Debug().Dur("age", age).Msg("skipping stale reading")
		return
	}

	a.push(ctx, packetFrom(reading))
}

func (a *Agent) push(ctx context.Context, pkt *types.Packet) {
	pushCtx, cancel := context.WithTimeout(ctx, a.pushWindow)
	defer cancel()

	ack, err := a.pusher.PushPacket(pushCtx, pkt)
	if err != nil {
		metrics.PushFailuresTotal.Inc()
		a.logger.Warn().Err(err).Msg("push failed")
		return
	}
	a.logger.Debug().Bool("has_fix", ack.HasFix).Msg("packet acknowledged")
}

// packetFrom converts a GPS reading into a wire packet. Position fields are
// only carried on a valid fix; satellite diagnostics are carried regardless,
// so the server can tell searching from silent.
func packetFrom(r gps.Reading) *types.Packet {
	pkt := &types.Packet{
		HasFix:             r.Valid,
		SatelliteCount:     r.SatelliteCount,
		HorizontalDilution: r.HDOP,
	}
	if r.Valid {
		lat, lng, speed, alt := r.Lat, r.Lng, r.SpeedKmh, r.AltM
		pkt.Lat = &lat
		pkt.Lng = &lng
		pkt.Speed = &speed
		pkt.Alt = &alt
	}
	return pkt
}
