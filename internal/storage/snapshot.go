package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"

	"github.com/annel0/blockmodeler/internal/logging"
	"github.com/annel0/blockmodeler/internal/world"
)

// Формат снимка:
//
//	magic   [9]byte  "mcdiagram"
//	version uint16   big endian
//	sum     uint64   xxh3 от сжатого тела
//	length  uint32   длина сжатого тела
//	body    zstd(JSON DiagramData)
const (
	snapshotMagic   = "mcdiagram"
	SnapshotVersion = uint16(0x0110)

	snapshotHeaderSize = len(snapshotMagic) + 2 + 8 + 4
	maxSnapshotBody    = 256 << 20
)

var (
	ErrBadMagic           = errors.New("файл не является снимком диаграммы")
	ErrUnsupportedVersion = errors.New("неподдерживаемая версия снимка")
	ErrChecksumMismatch   = errors.New("контрольная сумма снимка не совпадает")
	ErrSnapshotTruncated  = errors.New("снимок обрезан")
)

// WriteSnapshot записывает диаграмму src в w
func WriteSnapshot(w io.Writer, name string, src world.Oracle) error {
	data := Capture(name, src)

	raw, err := json.Marshal(&data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("ошибка создания компрессора: %w", err)
	}
	body := enc.EncodeAll(raw, nil)
	enc.Close()

	header := make([]byte, snapshotHeaderSize)
	n := copy(header, snapshotMagic)
	binary.BigEndian.PutUint16(header[n:], SnapshotVersion)
	binary.BigEndian.PutUint64(header[n+2:], xxh3.Hash(body))
	binary.BigEndian.PutUint32(header[n+10:], uint32(len(body)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("ошибка записи заголовка: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("ошибка записи тела: %w", err)
	}
	return nil
}

// ReadSnapshot читает снимок из r и проверяет его целостность
func ReadSnapshot(r io.Reader) (*DiagramData, error) {
	header := make([]byte, snapshotHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrSnapshotTruncated
		}
		return nil, fmt.Errorf("ошибка чтения заголовка: %w", err)
	}

	n := len(snapshotMagic)
	if !bytes.Equal(header[:n], []byte(snapshotMagic)) {
		logging.GetStorageLogger().Warn("Неверная сигнатура снимка:\n%s", logging.HexDump(header))
		return nil, ErrBadMagic
	}
	if v := binary.BigEndian.Uint16(header[n:]); v != SnapshotVersion {
		return nil, fmt.Errorf("%w: 0x%04x", ErrUnsupportedVersion, v)
	}
	sum := binary.BigEndian.Uint64(header[n+2:])
	length := binary.BigEndian.Uint32(header[n+10:])
	if length > maxSnapshotBody {
		return nil, fmt.Errorf("%w: тело %d байт", ErrSnapshotTruncated, length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, ErrSnapshotTruncated
	}
	if xxh3.Hash(body) != sum {
		logging.GetStorageLogger().Warn("Снимок повреждён:\n%s", logging.HexDump(body))
		return nil, ErrChecksumMismatch
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания декомпрессора: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки снимка: %w", err)
	}

	var data DiagramData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("ошибка десериализации снимка: %w", err)
	}
	return &data, nil
}

// SaveSnapshotFile атомарно записывает снимок в path через временный файл
func SaveSnapshotFile(path, name string, src world.Oracle) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteSnapshot(tmp, name, src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка синхронизации снимка: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия снимка: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ошибка переименования снимка: %w", err)
	}

	logging.GetStorageLogger().Info("Снимок %s сохранён в %s", name, path)
	return nil
}

// LoadSnapshotFile читает снимок из файла
func LoadSnapshotFile(path string) (*DiagramData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия снимка: %w", err)
	}
	defer f.Close()

	data, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("снимок %s: %w", path, err)
	}
	return data, nil
}
