package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"bluecollar-chat/contract"
	"bluecollar-chat/domain/event"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// ChannelGauge samples the occupancy of one internal channel.
type ChannelGauge struct {
	Name     string
	Capacity int
	Length   func() int
}

// TelemetryWorker drains the fanout's event tap and periodically logs
// self process stats (CPU, RSS), channel occupancy and event
// throughput, the cheap way to spot backpressure before commands
// start getting rejected.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	gauges   []ChannelGauge
	events   <-chan event.DomainEvent
	seen     map[string]uint64
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration,
	gauges []ChannelGauge, events <-chan event.DomainEvent) *TelemetryWorker {
	return &TelemetryWorker{
		log:      log,
		interval: interval,
		gauges:   gauges,
		events:   events,
		seen:     make(map[string]uint64),
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-w.events:
			w.observe(evt)
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *TelemetryWorker) observe(evt event.DomainEvent) {
	w.seen[eventName(evt)]++
}

// snapshot hands out the per-kind counts accumulated since the last
// heartbeat and resets them.
func (w *TelemetryWorker) snapshot() map[string]uint64 {
	counts := w.seen
	w.seen = make(map[string]uint64)
	return counts
}

func (w *TelemetryWorker) report(p *process.Process) {
	attrs := []any{}

	if memInfo, err := p.MemoryInfo(); err == nil {
		attrs = append(attrs, "rss_bytes", memInfo.RSS)
	}
	if cpuPercent, err := p.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpuPercent)
	}
	for _, gauge := range w.gauges {
		attrs = append(attrs, gauge.Name, gauge.Length(), gauge.Name+"_cap", gauge.Capacity)
	}
	for name, count := range w.snapshot() {
		attrs = append(attrs, "events_"+name, count)
	}

	w.log.Info("Relay heartbeat", attrs...)
}

func eventName(evt event.DomainEvent) string {
	switch evt.(type) {
	case event.MessageAppended:
		return "appended"
	case event.MessagesRead:
		return "read"
	case event.PresenceChanged:
		return "presence"
	case event.TypingStarted, event.TypingStopped:
		return "typing"
	default:
		return "other"
	}
}
