package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world"
	"github.com/annel0/blockmodeler/internal/world/block"
)

// MariaDiagramRepo реализует DiagramRepo для базы данных MariaDB/MySQL.
// Использует таблицы diagrams и diagram_blocks.
type MariaDiagramRepo struct {
	db *sql.DB
}

var _ DiagramRepo = (*MariaDiagramRepo)(nil)

// NewMariaDiagramRepo создает новый репозиторий диаграмм для MariaDB.
// Автоматически создает таблицы, если они не существуют.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname?parseTime=true)
func NewMariaDiagramRepo(ctx context.Context, dsn string) (*MariaDiagramRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaDiagramRepo{db: db}

	// Создаем таблицы, если они не существуют
	if err := repo.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицы: %w", err)
	}

	return repo, nil
}

// createTables создает таблицы diagrams и diagram_blocks, если они не существуют.
func (r *MariaDiagramRepo) createTables(ctx context.Context) error {
	queries := []string{`
		CREATE TABLE IF NOT EXISTS diagrams (
			name        VARCHAR(128) PRIMARY KEY,
			min_x       INT          NOT NULL,
			min_y       INT          NOT NULL,
			min_z       INT          NOT NULL,
			max_x       INT          NOT NULL,
			max_y       INT          NOT NULL,
			max_z       INT          NOT NULL,
			block_count INT          NOT NULL,
			saved_at    TIMESTAMP    NOT NULL
		) ENGINE=InnoDB`, `
		CREATE TABLE IF NOT EXISTS diagram_blocks (
			name        VARCHAR(128) NOT NULL,
			x           INT          NOT NULL,
			y           INT          NOT NULL,
			z           INT          NOT NULL,
			block_id    SMALLINT UNSIGNED NOT NULL,
			orientation VARCHAR(32)  NOT NULL,
			PRIMARY KEY (name, x, y, z)
		) ENGINE=InnoDB`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("ошибка создания таблицы: %w", err)
		}
	}
	return nil
}

// Save сохраняет диаграмму в одной SQL-транзакции.
func (r *MariaDiagramRepo) Save(ctx context.Context, name string, src world.Oracle) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	data := Capture(name, src)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM diagram_blocks WHERE name = ?`, name); err != nil {
		return fmt.Errorf("ошибка очистки блоков: %w", err)
	}

	b := data.Meta.Bounds
	_, err = tx.ExecContext(ctx, `
		INSERT INTO diagrams (name, min_x, min_y, min_z, max_x, max_y, max_z, block_count, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			min_x = VALUES(min_x), min_y = VALUES(min_y), min_z = VALUES(min_z),
			max_x = VALUES(max_x), max_y = VALUES(max_y), max_z = VALUES(max_z),
			block_count = VALUES(block_count), saved_at = VALUES(saved_at)`,
		name, b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z, data.Meta.Blocks, data.Meta.SavedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи сведений о диаграмме: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO diagram_blocks (name, x, y, z, block_id, orientation) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for _, blk := range data.Blocks {
		if _, err := stmt.ExecContext(ctx, name, blk.Pos.X, blk.Pos.Y, blk.Pos.Z, uint16(blk.ID), blk.Orientation.String()); err != nil {
			return fmt.Errorf("ошибка записи блока %s: %w", blk.Pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// Load загружает диаграмму из базы данных.
func (r *MariaDiagramRepo) Load(ctx context.Context, name string) (*DiagramData, error) {
	var data DiagramData
	m := &data.Meta
	err := r.db.QueryRowContext(ctx, `
		SELECT name, min_x, min_y, min_z, max_x, max_y, max_z, block_count, saved_at
		FROM diagrams WHERE name = ?`, name).Scan(
		&m.Name, &m.Bounds.Min.X, &m.Bounds.Min.Y, &m.Bounds.Min.Z,
		&m.Bounds.Max.X, &m.Bounds.Max.Y, &m.Bounds.Max.Z, &m.Blocks, &m.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDiagramNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки диаграммы: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT x, y, z, block_id, orientation
		FROM diagram_blocks WHERE name = ?
		ORDER BY y, z, x`, name)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки блоков: %w", err)
	}
	defer rows.Close()

	data.Blocks = make([]world.Block, 0, m.Blocks)
	for rows.Next() {
		var (
			pos         vec.Vec3
			id          uint16
			orientation string
		)
		if err := rows.Scan(&pos.X, &pos.Y, &pos.Z, &id, &orientation); err != nil {
			return nil, fmt.Errorf("ошибка чтения блока: %w", err)
		}
		o, err := block.ParseOrientation(orientation)
		if err != nil {
			return nil, fmt.Errorf("блок %s: %w", pos, err)
		}
		data.Blocks = append(data.Blocks, world.NewBlock(pos, block.BlockID(id), o))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения блоков: %w", err)
	}

	return &data, nil
}

// Delete удаляет диаграмму из базы данных.
func (r *MariaDiagramRepo) Delete(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM diagram_blocks WHERE name = ?`, name); err != nil {
		return fmt.Errorf("ошибка удаления блоков: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM diagrams WHERE name = ?`, name); err != nil {
		return fmt.Errorf("ошибка удаления диаграммы: %w", err)
	}
	return tx.Commit()
}

// List возвращает имена диаграмм.
func (r *MariaDiagramRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM diagrams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка диаграмм: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка чтения имени: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close закрывает соединение с базой данных.
func (r *MariaDiagramRepo) Close() error {
	return r.db.Close()
}
