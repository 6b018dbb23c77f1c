package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world"
	"github.com/annel0/blockmodeler/internal/world/block"
)

func newDiagram(t *testing.T) *world.Diagram {
	t.Helper()
	d := world.NewDiagram(block.DefaultCatalog(), vec.Cube(16), world.WithLogger(logging.Discard()))
	err := d.WithTransaction(func(tx *world.Transaction) error {
		for x := 0; x < 3; x++ {
			if err := tx.Place(vec.Vec3{X: x}, 1, block.NoOrientation); err != nil {
				return err
			}
		}
		if err := tx.Place(vec.Vec3{X: 0, Y: 1}, 2, block.NoOrientation); err != nil {
			return err
		}
		return tx.Place(vec.Vec3{X: 1, Y: 1}, 4, block.NoOrientation)
	})
	require.NoError(t, err)
	return d
}

func TestMaterials(t *testing.T) {
	d := newDiagram(t)

	materials := Materials(d)
	require.Len(t, materials, 3)
	assert.Equal(t, "stone", materials[0].Name)
	assert.Equal(t, 3, materials[0].Count)
	// При равном количестве сортировка по имени
	assert.Equal(t, "dirt", materials[1].Name)
	assert.Equal(t, "planks", materials[2].Name)
}

func TestBuild(t *testing.T) {
	d := newDiagram(t)

	r := Build(d)
	assert.Equal(t, 5, r.Blocks)
	assert.Equal(t, []Level{{Y: 0, Count: 3}, {Y: 1, Count: 2}}, r.Levels)

	// Пять кубов: ряд из трёх и два сверху. Скрытые грани не считаются.
	expected := 0
	for _, b := range d.Blocks() {
		expected += len(d.SynthesizeGeometry(b.Pos).Polygons)
	}
	assert.Equal(t, expected, r.Polygons)
	assert.Less(t, r.Polygons, 5*6)
}

func TestBuild_ConsistentUnderWrites(t *testing.T) {
	d := newDiagram(t)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			_ = d.WithTransaction(func(tx *world.Transaction) error {
				for x := 0; x < 4; x++ {
					pos := vec.Vec3{X: x, Y: 5}
					if i%2 == 0 {
						if err := tx.Place(pos, 5, block.NoOrientation); err != nil {
							return err
						}
					} else if err := tx.Erase(pos); err != nil {
						return err
					}
				}
				return nil
			})
		}
	}()

	for i := 0; i < 200; i++ {
		r := Build(d)
		total := 0
		for _, m := range r.Materials {
			total += m.Count
		}
		levels := 0
		for _, l := range r.Levels {
			levels += l.Count
		}
		require.Equal(t, r.Blocks, total, "материалы и блоки из одного состояния")
		require.Equal(t, r.Blocks, levels)
		require.Contains(t, []int{5, 9}, r.Blocks, "правка видна целиком или не видна")
	}

	close(stop)
	<-done
}

func TestReport_Write(t *testing.T) {
	d := newDiagram(t)

	var buf bytes.Buffer
	require.NoError(t, Build(d).Write(&buf))

	out := buf.String()
	assert.Contains(t, out, "Блоков:    5")
	assert.Contains(t, out, "60.0%")
	assert.Contains(t, out, "y=1")
}

func TestReport_Empty(t *testing.T) {
	d := world.NewDiagram(block.DefaultCatalog(), vec.Cube(4), world.WithLogger(logging.Discard()))

	r := Build(d)
	assert.Zero(t, r.Blocks)
	assert.Empty(t, r.Materials)

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	assert.NotContains(t, buf.String(), "Материалы")
}
