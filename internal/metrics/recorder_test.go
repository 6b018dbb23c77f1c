package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world"
	"github.com/annel0/blockmodeler/internal/world/block"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := world.NewDiagram(block.DefaultCatalog(), vec.Cube(8), world.WithLogger(logging.Discard()))
	r := NewRecorder(d, reg)
	d.AddObserver(r)

	require.NoError(t, d.WithTransaction(func(tx *world.Transaction) error {
		if err := tx.Place(vec.Vec3{X: 1}, 1, block.NoOrientation); err != nil {
			return err
		}
		return tx.Place(vec.Vec3{X: 2}, 1, block.NoOrientation)
	}))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.blocks))

	require.NoError(t, d.Undo())
	assert.Equal(t, 0.0, testutil.ToFloat64(r.blocks))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.changes.WithLabelValues("commit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.changes.WithLabelValues("undo", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.edits.WithLabelValues("commit")))

	r.OnChange(world.ChangeSet{Kind: world.ChangeCommit, Err: world.ErrApplyAborted})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.changes.WithLabelValues("commit", "error")))

	n, err := testutil.GatherAndCount(reg, "modeler_diagram_dirty_positions")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorder_NilSource(t *testing.T) {
	r := NewRecorder(nil, prometheus.NewRegistry())
	r.OnChange(world.ChangeSet{Kind: world.ChangeLoad})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.changes.WithLabelValues("load", "ok")))
}
