package eventbus

import (
	"context"
	"time"

	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world"
)

// ChangeEvent - полезная нагрузка события об изменении диаграммы
type ChangeEvent struct {
	Kind     string       `json:"kind"`
	TxID     string       `json:"tx_id"`
	Edits    []world.Edit `json:"edits,omitempty"`
	Dirty    []vec.Vec3   `json:"dirty,omitempty"`
	Polygons int          `json:"polygons"`
	Error    string       `json:"error,omitempty"`
}

// NewChangeEvent переводит ChangeSet в полезную нагрузку события
func NewChangeEvent(cs world.ChangeSet) ChangeEvent {
	ev := ChangeEvent{
		Kind:  cs.Kind.String(),
		TxID:  cs.TxID.String(),
		Edits: cs.Edits,
		Dirty: cs.Dirty,
	}
	for _, m := range cs.Meshes {
		ev.Polygons += len(m.Polygons)
	}
	if cs.Err != nil {
		ev.Error = cs.Err.Error()
	}
	return ev
}

// DiagramPublisher - Observer, публикующий изменения диаграммы в шину
type DiagramPublisher struct {
	bus     EventBus
	source  string
	timeout time.Duration
	logger  *logging.Logger
}

var _ world.Observer = (*DiagramPublisher)(nil)

// NewDiagramPublisher создаёт издателя; source - имя диаграммы в конвертах
func NewDiagramPublisher(bus EventBus, source string) *DiagramPublisher {
	return &DiagramPublisher{
		bus:     bus,
		source:  source,
		timeout: 5 * time.Second,
		logger:  logging.GetEventBusLogger(),
	}
}

// OnChange публикует изменение. Ошибки публикации только логируются:
// изменение диаграммы к этому моменту уже состоялось.
func (p *DiagramPublisher) OnChange(cs world.ChangeSet) {
	env, err := NewEnvelope(cs.Kind.String(), p.source, NewChangeEvent(cs))
	if err != nil {
		p.logger.Warn("Событие %s не создано: %v", cs.Kind, err)
		return
	}
	env.CorrelationID = cs.TxID.String()
	env.Priority = 5
	if cs.Failed() {
		env.Priority = 9
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.bus.Publish(ctx, env); err != nil {
		p.logger.Warn("Событие %s %s не опубликовано: %v", env.EventType, env.ID, err)
	}
}
