package drafting

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	dErrors "onestop/pkg/domain-errors"
	"onestop/pkg/platform/circuit"
)

var draftDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "onestop_drafting_duration_seconds",
	Help:    "Latency of text-generation drafting calls",
	Buckets: prometheus.DefBuckets,
})

// User-facing messages, kept verbatim from the portal.
const (
	msgTopicRequired = "กรุณากรอกหัวข้อเรื่องเพื่อให้ AI ช่วยแนะนำรายละเอียด"
	msgUnavailable   = "ขออภัย ไม่สามารถเรียกใช้งาน AI ได้ในขณะนี้"
)

// Drafter is a single-slot front for the drafting client: a new invocation
// cancels the superseded in-flight call instead of letting two race. The
// underlying submission flow never blocks on it.
type Drafter struct {
	client  Client
	logger  *slog.Logger
	tracer  trace.Tracer
	breaker *circuit.Breaker

	mu       sync.Mutex
	gen      uint64
	inflight context.CancelFunc
	openedAt time.Time
}

// breakerCooldown is how long an open breaker fast-fails before the next call
// probes the collaborator again.
const breakerCooldown = 30 * time.Second

func NewDrafter(client Client, logger *slog.Logger) *Drafter {
	return &Drafter{
		client:  client,
		logger:  logger,
		tracer:  otel.Tracer("onestop/drafting"),
		breaker: circuit.New("drafting", circuit.WithFailureThreshold(3)),
	}
}

// Draft produces details text for the topic. An empty topic is a validation
// error; collaborator failure degrades to a notice (the citizen types the
// details manually); a superseded call reports cancellation.
func (d *Drafter) Draft(ctx context.Context, topic string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, msgTopicRequired)
	}
	if d.client == nil {
		return "", dErrors.New(dErrors.CodeUnavailable, msgUnavailable)
	}
	if d.breaker.IsOpen() {
		d.mu.Lock()
		cooling := time.Since(d.openedAt) < breakerCooldown
		d.mu.Unlock()
		if cooling {
			return "", dErrors.New(dErrors.CodeUnavailable, msgUnavailable)
		}
		d.breaker.Reset()
	}

	ctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	if d.inflight != nil {
		d.inflight()
	}
	d.gen++
	myGen := d.gen
	d.inflight = cancel
	d.mu.Unlock()
	defer func() {
		cancel()
		d.mu.Lock()
		// Only release the slot if no newer call has claimed it.
		if d.gen == myGen {
			d.inflight = nil
		}
		d.mu.Unlock()
	}()

	ctx, span := d.tracer.Start(ctx, "drafting.draft")
	defer span.End()

	timer := prometheus.NewTimer(draftDuration)
	text, err := d.client.Draft(ctx, topic)
	timer.ObserveDuration()
	if err != nil {
		// A superseded call says nothing about collaborator health.
		if errors.Is(err, context.Canceled) {
			return "", dErrors.Wrap(err, dErrors.CodeConflict, "drafting superseded by a newer request")
		}
		if _, change := d.breaker.RecordFailure(); change.Opened {
			d.mu.Lock()
			d.openedAt = time.Now()
			d.mu.Unlock()
			d.logger.WarnContext(ctx, "drafting circuit opened", "breaker", d.breaker.Name())
		}
		d.logger.WarnContext(ctx, "drafting call failed", "error", err)
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, msgUnavailable)
	}
	d.breaker.RecordSuccess()
	return text, nil
}
