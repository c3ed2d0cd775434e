package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the fill level of the runtime
// queues and warns when one crosses the threshold. Reading len and cap is
// non-blocking, so sampling never interferes with producers or consumers.
type ChannelCapacityWorker struct {
	log              *slog.Logger
	channels         []NamedChannel
	interval         time.Duration
	thresholdPercent int
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	interval time.Duration, thresholdPercent int) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:              log,
		channels:         channels,
		interval:         interval,
		thresholdPercent: thresholdPercent,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample checks every channel once and returns the names of those above the
// threshold.
func (w *ChannelCapacityWorker) Sample() []string {
	var saturated []string
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity, length := v.Cap(), v.Len()
		if capacity == 0 {
			continue
		}
		if length*100 >= capacity*w.thresholdPercent {
			w.log.Warn("Queue is filling up", "name", nc.Name, "length", length, "capacity", capacity)
			saturated = append(saturated, nc.Name)
		}
	}
	return saturated
}
