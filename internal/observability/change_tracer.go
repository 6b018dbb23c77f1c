package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/annel0/blockmodeler/internal/world"
)

const tracerName = "github.com/annel0/blockmodeler/internal/world"

// ChangeTracer - Observer, записывающий спан на каждое изменение диаграммы
type ChangeTracer struct {
	tracer oteltrace.Tracer
}

var _ world.Observer = (*ChangeTracer)(nil)

// NewChangeTracer использует глобальный TracerProvider, если tp == nil
func NewChangeTracer(tp oteltrace.TracerProvider) *ChangeTracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &ChangeTracer{tracer: tp.Tracer(tracerName)}
}

// OnChange записывает спан diagram.<kind>
func (t *ChangeTracer) OnChange(cs world.ChangeSet) {
	_, span := t.tracer.Start(context.Background(), "diagram."+cs.Kind.String(),
		oteltrace.WithAttributes(
			attribute.String("diagram.tx_id", cs.TxID.String()),
			attribute.Int("diagram.edits", len(cs.Edits)),
			attribute.Int("diagram.dirty", len(cs.Dirty)),
		))
	defer span.End()

	if cs.Failed() {
		span.RecordError(cs.Err)
		span.SetStatus(codes.Error, cs.Err.Error())
	}
}
