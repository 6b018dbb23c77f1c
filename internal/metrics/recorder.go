package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/blockmodeler/internal/world"
)

// Recorder - Observer, переводящий изменения диаграммы в метрики Prometheus.
//
// Метрики:
// * modeler_diagram_changes_total{kind,result} - counter
// * modeler_diagram_edits_total{kind} - counter
// * modeler_diagram_dirty_positions - histogram
// * modeler_diagram_blocks - gauge
type Recorder struct {
	source world.Oracle

	changes *prometheus.CounterVec
	edits   *prometheus.CounterVec
	dirty   prometheus.Histogram
	blocks  prometheus.Gauge
}

var _ world.Observer = (*Recorder)(nil)

// NewRecorder создаёт Recorder и регистрирует метрики в reg.
// source нужен для обновления числа блоков; может быть nil.
func NewRecorder(source world.Oracle, reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		source: source,
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modeler",
			Subsystem: "diagram",
			Name:      "changes_total",
			Help:      "Изменения диаграммы по типу и результату.",
		}, []string{"kind", "result"}),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modeler",
			Subsystem: "diagram",
			Name:      "edits_total",
			Help:      "Применённые правки ячеек.",
		}, []string{"kind"}),
		dirty: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "modeler",
			Subsystem: "diagram",
			Name:      "dirty_positions",
			Help:      "Число позиций, требующих перестроения геометрии после изменения.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "modeler",
			Subsystem: "diagram",
			Name:      "blocks",
			Help:      "Текущее число занятых позиций.",
		}),
	}

	reg.MustRegister(r.changes, r.edits, r.dirty, r.blocks)
	if source != nil {
		r.blocks.Set(float64(source.BlockCount()))
	}
	return r
}

// OnChange обновляет метрики
func (r *Recorder) OnChange(cs world.ChangeSet) {
	kind := cs.Kind.String()
	if cs.Failed() {
		r.changes.WithLabelValues(kind, "error").Inc()
		return
	}
	r.changes.WithLabelValues(kind, "ok").Inc()

	if n := len(cs.Edits); n > 0 {
		r.edits.WithLabelValues(kind).Add(float64(n))
	}
	if cs.Kind != world.ChangeRollback {
		r.dirty.Observe(float64(len(cs.Dirty)))
	}
	if r.source != nil {
		r.blocks.Set(float64(r.source.BlockCount()))
	}
}
