package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world"
	"github.com/annel0/blockmodeler/internal/world/block"
)

const (
	stoneID  = block.BlockID(1)
	stairsID = block.BlockID(11)
)

func newDiagram(t *testing.T) *world.Diagram {
	t.Helper()
	return world.NewDiagram(block.DefaultCatalog(), vec.Cube(10), world.WithLogger(logging.Discard()))
}

func sampleDiagram(t *testing.T) *world.Diagram {
	t.Helper()
	d := newDiagram(t)
	stairs := block.Orientation{Facing: block.FacingBack, Corner: block.CornerBackLeft}
	err := d.WithTransaction(func(tx *world.Transaction) error {
		if err := tx.Place(vec.Vec3{X: 1, Y: 0, Z: 0}, stoneID, block.NoOrientation); err != nil {
			return err
		}
		if err := tx.Place(vec.Vec3{X: 2, Y: 0, Z: 0}, stoneID, block.NoOrientation); err != nil {
			return err
		}
		return tx.Place(vec.Vec3{X: 3, Y: 1, Z: 4}, stairsID, stairs)
	})
	require.NoError(t, err)
	return d
}

// checkRoundTrip проверяет общий контракт DiagramRepo
func checkRoundTrip(t *testing.T, repo DiagramRepo) {
	t.Helper()
	ctx := context.Background()
	src := sampleDiagram(t)

	require.NoError(t, repo.Save(ctx, "house", src))

	data, err := repo.Load(ctx, "house")
	require.NoError(t, err)
	assert.Equal(t, "house", data.Meta.Name)
	assert.Equal(t, src.Bounds(), data.Meta.Bounds)
	assert.Equal(t, 3, data.Meta.Blocks)
	assert.ElementsMatch(t, src.Blocks(), data.Blocks)

	dst := newDiagram(t)
	require.NoError(t, Restore(ctx, repo, "house", dst))
	assert.Equal(t, src.Digest(), dst.Digest(), "восстановленная диаграмма совпадает с исходной")

	// Повторное сохранение заменяет прежние блоки
	require.NoError(t, src.WithTransaction(func(tx *world.Transaction) error {
		return tx.Erase(vec.Vec3{X: 1, Y: 0, Z: 0})
	}))
	require.NoError(t, repo.Save(ctx, "house", src))
	data, err = repo.Load(ctx, "house")
	require.NoError(t, err)
	assert.Len(t, data.Blocks, 2)

	require.NoError(t, repo.Save(ctx, "barn", newDiagram(t)))
	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"barn", "house"}, names)

	require.NoError(t, repo.Delete(ctx, "house"))
	_, err = repo.Load(ctx, "house")
	assert.ErrorIs(t, err, ErrDiagramNotFound)
	require.NoError(t, repo.Delete(ctx, "house"), "удаление отсутствующей диаграммы не ошибка")

	assert.ErrorIs(t, repo.Save(ctx, "bad:name", src), ErrInvalidName)
	assert.ErrorIs(t, repo.Save(ctx, "", src), ErrInvalidName)
}

func TestMemoryDiagramRepo(t *testing.T) {
	repo := NewMemoryDiagramRepo()
	defer repo.Close()
	checkRoundTrip(t, repo)
}

func TestMemoryDiagramRepo_CanceledContext(t *testing.T) {
	repo := NewMemoryDiagramRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Save(ctx, "house", sampleDiagram(t)), context.Canceled)
	assert.Zero(t, repo.Count())
}

func TestDiagramStorage(t *testing.T) {
	repo, err := NewDiagramStorage(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()
	checkRoundTrip(t, repo)
}

func TestDiagramStorage_PrefixIsolation(t *testing.T) {
	repo, err := NewDiagramStorage(t.TempDir())
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "a", sampleDiagram(t)))
	require.NoError(t, repo.Save(ctx, "ab", newDiagram(t)))

	data, err := repo.Load(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, data.Blocks, 3, "блоки диаграммы ab не попадают в a")
}

func TestDiagramStorage_ClosedRepo(t *testing.T) {
	repo, err := NewDiagramStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close(), "повторное закрытие безопасно")

	_, err = repo.Load(context.Background(), "house")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	src := sampleDiagram(t)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, "house", src))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(snapshotMagic)))

	data, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, "house", data.Meta.Name)
	assert.ElementsMatch(t, src.Blocks(), data.Blocks)
}

func TestSnapshot_Corruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, "house", sampleDiagram(t)))
	raw := buf.Bytes()

	t.Run("magic", func(t *testing.T) {
		bad := append([]byte(nil), raw...)
		bad[0] = 'X'
		_, err := ReadSnapshot(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("version", func(t *testing.T) {
		bad := append([]byte(nil), raw...)
		bad[len(snapshotMagic)] = 0xFF
		_, err := ReadSnapshot(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("checksum", func(t *testing.T) {
		bad := append([]byte(nil), raw...)
		bad[len(bad)-1] ^= 0xFF
		_, err := ReadSnapshot(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadSnapshot(bytes.NewReader(raw[:len(raw)-3]))
		assert.ErrorIs(t, err, ErrSnapshotTruncated)

		_, err = ReadSnapshot(bytes.NewReader(raw[:5]))
		assert.ErrorIs(t, err, ErrSnapshotTruncated)
	})
}

func TestSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "house.mcd")
	src := sampleDiagram(t)

	require.NoError(t, SaveSnapshotFile(path, "house", src))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "временный файл удалён")

	data, err := LoadSnapshotFile(path)
	require.NoError(t, err)

	dst := newDiagram(t)
	require.NoError(t, dst.Load(data.Blocks))
	assert.Equal(t, src.Digest(), dst.Digest())

	_, err = LoadSnapshotFile(filepath.Join(t.TempDir(), "missing.mcd"))
	assert.Error(t, err)
}
