package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/syurodev/ztkapp-sub000/pkg/client"
	"github.com/syurodev/ztkapp-sub000/pkg/events"
	"github.com/syurodev/ztkapp-sub000/pkg/log"
	"github.com/syurodev/ztkapp-sub000/pkg/metrics"
	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// reconnectInterval is the delay between stream connection attempts
// while a subscription is active.
const reconnectInterval = 5 * time.Second

// historyLimit is the page size for the historical seed fetch
const historyLimit = MaxRecords

// Snapshot is a point-in-time view of the feed, read by the UI
type Snapshot struct {
	Records   []types.AttendanceEvent `json:"records"`
	FirstLast []types.AttendanceEvent `json:"first_last"`
	Scope     types.DeviceScope       `json:"scope"`
	Connected bool                    `json:"connected"`
}

// Feed maintains the reconciled live attendance view for one scope at a
// time. Changing scope discards the buffer and resubscribes; results of
// fetches started under a previous scope are discarded on arrival.
type Feed struct {
	client *client.Client
	broker *events.Broker
	logger zerolog.Logger

	mu         sync.Mutex
	scope      types.DeviceScope
	records    []types.AttendanceEvent
	connected  bool
	generation uint64
	cancel     context.CancelFunc
	active     bool
}

// NewFeed creates a feed over the given backend client. Broker is
// optional.
func NewFeed(c *client.Client, broker *events.Broker) *Feed {
	return &Feed{
		client: c,
		broker: broker,
		logger: log.WithComponent("live-feed"),
	}
}

// Subscribe starts (or re-targets) the feed on the given scope. The
// buffer is cleared, a historical page is fetched to seed it, and the
// push stream is opened. Subscribing to the current scope restarts the
// subscription anyway so the UI can use it as a refresh.
func (f *Feed) Subscribe(scope types.DeviceScope) {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.generation++
	gen := f.generation
	f.scope = scope
	f.records = nil
	f.connected = false
	f.active = true
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.mu.Unlock()

	metrics.StreamConnected.Set(0)
	metrics.LiveBufferSize.Set(0)

	logger := f.logger
	if !scope.AllDevices {
		logger = log.WithDevice(scope.DeviceID)
	}
	logger.Info().Str("scope", scope.String()).Msg("live feed subscribed")

	go f.seedHistory(ctx, gen, scope)
	go f.streamLoop(ctx, gen, scope)
}

// Unsubscribe stops the stream and freezes the buffer
func (f *Feed) Unsubscribe() {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.active = false
	f.connected = false
	f.mu.Unlock()

	metrics.StreamConnected.Set(0)
	f.logger.Info().Msg("live feed unsubscribed")
}

// Snapshot returns the current reconciled view
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := make([]types.AttendanceEvent, len(f.records))
	copy(records, f.records)

	return Snapshot{
		Records:   records,
		FirstLast: FirstLastByDay(records),
		Scope:     f.scope,
		Connected: f.connected,
	}
}

// seedHistory fetches today's page and merges it under the generation
// that started the fetch. A stale generation means the user re-targeted
// while the fetch was in flight; the result is dropped.
func (f *Feed) seedHistory(ctx context.Context, gen uint64, scope types.DeviceScope) {
	query := client.AttendanceQuery{
		Limit: historyLimit,
		Date:  time.Now().Format("2006-01-02"),
	}
	if !scope.AllDevices {
		query.DeviceID = scope.DeviceID
	}

	page, err := f.client.AttendanceLogs(ctx, query)
	if err != nil {
		if ctx.Err() == nil {
			f.logger.Warn().Err(err).Msg("historical seed fetch failed")
		}
		return
	}

	f.ingest(gen, scope, page.Data...)
}

// streamLoop keeps the push stream open while the subscription is
// active, reconnecting after a fixed delay on any failure.
func (f *Feed) streamLoop(ctx context.Context, gen uint64, scope types.DeviceScope) {
	first := true
	for {
		if ctx.Err() != nil {
			return
		}
		if !first {
			metrics.StreamReconnectsTotal.Inc()
			select {
			case <-time.After(reconnectInterval):
			case <-ctx.Done():
				return
			}
		}
		first = false

		if err := f.consumeStream(ctx, gen, scope); err != nil && ctx.Err() == nil {
			f.logger.Warn().Err(err).Msg("event stream closed")
		}
		f.setConnected(gen, false)
	}
}

func (f *Feed) consumeStream(ctx context.Context, gen uint64, scope types.DeviceScope) error {
	resp, err := openStream(ctx, f.client.HTTPClient(), f.client.LiveEventsURL())
	if err != nil {
		return err
	}

	return readSSE(ctx, resp.Body, func(ev sseEvent) {
		switch ev.Name {
		case "connected":
			// Connection is only reported once the server says hello.
			f.setConnected(gen, true)
			metrics.LiveEventsTotal.WithLabelValues("connected").Inc()
		case "heartbeat":
			metrics.LiveEventsTotal.WithLabelValues("heartbeat").Inc()
		case "attendance":
			metrics.LiveEventsTotal.WithLabelValues("attendance").Inc()
			var event types.AttendanceEvent
			if err := json.Unmarshal([]byte(ev.Data), &event); err != nil {
				f.logger.Warn().Err(err).Msg("malformed attendance event")
				return
			}
			f.ingest(gen, scope, event)
		}
	})
}

// ingest merges events into the buffer if the generation is still
// current and the events match the subscription scope.
func (f *Feed) ingest(gen uint64, scope types.DeviceScope, incoming ...types.AttendanceEvent) {
	accepted := incoming[:0:0]
	for _, e := range incoming {
		if scope.AllDevices || e.DeviceID == scope.DeviceID {
			accepted = append(accepted, e)
		}
	}
	if len(accepted) == 0 {
		return
	}

	f.mu.Lock()
	if gen != f.generation {
		f.mu.Unlock()
		f.logger.Debug().Str("scope", scope.String()).Msg("dropping stale fetch result")
		return
	}
	f.records = Merge(accepted, f.records)
	size := len(f.records)
	f.mu.Unlock()

	metrics.LiveBufferSize.Set(float64(size))
	if f.broker != nil {
		f.broker.Emit(events.EventAttendanceReceived, "attendance records updated")
	}
}

func (f *Feed) setConnected(gen uint64, connected bool) {
	f.mu.Lock()
	if gen != f.generation {
		f.mu.Unlock()
		return
	}
	changed := f.connected != connected
	f.connected = connected
	f.mu.Unlock()

	if !changed {
		return
	}
	if connected {
		metrics.StreamConnected.Set(1)
		if f.broker != nil {
			f.broker.Emit(events.EventStreamConnected, "live event stream connected")
		}
	} else {
		metrics.StreamConnected.Set(0)
		if f.broker != nil {
			f.broker.Emit(events.EventStreamDisconnected, "live event stream disconnected")
		}
	}
}
