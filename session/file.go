// Copyright (c) 2025 The layerdb developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package session

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileName is the fixed name of the snapshot file inside the data directory.
const FileName = "undo.dat"

const (
	fileMagic      uint32 = 0x30510ABC
	minFileVersion uint32 = 1
	maxFileVersion uint32 = 1
)

// Snapshot file errors. They are wrapped with file context before being
// returned; unwrap with errors.Cause.
var (
	ErrBadMagic           = errors.New("bad magic number")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrTruncated          = errors.New("truncated data")
)

// Entry is one updated-key record of a serialized layer.
type Entry struct {
	Key   []byte
	Value []byte
}

// LayerRecord is the serialized form of one pending layer.
type LayerRecord struct {
	Updated []Entry
	Deleted [][]byte
}

// Open restores the snapshot left by the last clean shutdown, if any, and
// consumes it. It is a no-op when no data directory is configured. The
// stored baseline revision applies first, then the persisted layers are
// replayed oldest first.
func (s *Stack) Open() error {
	if s.dataDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dataDir, 0700); err != nil {
		return errors.Wrap(err, "create data dir")
	}

	path := filepath.Join(s.dataDir, FileName)
	revision, records, err := DecodeFile(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil
		}
		return err
	}

	s.SetRevision(revision)
	for _, rec := range records {
		layer := newLayer(s.topStore())
		for _, e := range rec.Updated {
			if err := layer.Write(e.Key, e.Value); err != nil {
				return err
			}
		}
		for _, key := range rec.Deleted {
			if err := layer.Erase(key); err != nil {
				return err
			}
		}
		s.layers = append(s.layers, layer)
	}
	metricLayerDepth().Set(int64(len(s.layers)))

	// the file is a one-shot checkpoint, consumed on read
	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, "remove undo file '%v'", path)
	}
	logger.Info("restored pending layers", "path", path, "layers", len(records), "revision", revision)
	return nil
}

// Close makes the pending layers durable and leaves the stack empty. With no
// data directory configured it instead discards them. Either way no pending
// work reaches the root store, and the revision counter keeps its value.
func (s *Stack) Close() error {
	if s.dataDir == "" {
		for _, layer := range s.layers {
			layer.Detach()
		}
		s.layers = nil
		metricLayerDepth().Set(0)
		return nil
	}

	path := filepath.Join(s.dataDir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create undo file '%v'", path)
	}

	bw := bufio.NewWriter(f)
	w := &fileWriter{w: bw}
	w.uint32(fileMagic)
	w.uint32(maxFileVersion)
	w.uint64(uint64(s.rev))
	w.uint64(uint64(len(s.layers)))

	count := len(s.layers)
	for len(s.layers) > 0 {
		layer := s.layers[0]

		updated := layer.UpdatedKeys()
		w.uint64(uint64(len(updated)))
		for _, key := range updated {
			w.bytes(key)
			w.bytes(layer.writes[string(key)])
		}

		deleted := layer.DeletedKeys()
		w.uint64(uint64(len(deleted)))
		for _, key := range deleted {
			w.bytes(key)
		}

		layer.Detach()
		s.layers = s.layers[1:]
	}
	metricLayerDepth().Set(0)

	if w.err == nil {
		w.err = bw.Flush()
	}
	if w.err == nil {
		w.err = f.Sync()
	}
	if w.err != nil {
		f.Close()
		return errors.Wrapf(w.err, "write undo file '%v'", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "write undo file '%v'", path)
	}
	logger.Info("snapshotted pending layers", "path", path, "layers", count, "revision", s.rev)
	return nil
}

// DecodeFile reads and validates a snapshot file without consuming it.
func DecodeFile(path string) (int64, []LayerRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "read undo file '%v'", path)
	}
	r := &fileReader{data: data, path: path}

	magic := r.uint32()
	if r.err == nil && magic != fileMagic {
		return 0, nil, errors.Wrapf(ErrBadMagic,
			"undo file '%v' has magic number %#x, expected %#x", path, magic, fileMagic)
	}
	version := r.uint32()
	if r.err == nil && (version < minFileVersion || version > maxFileVersion) {
		return 0, nil, errors.Wrapf(ErrUnsupportedVersion,
			"undo file '%v' has version %v, supported versions are [%v, %v]",
			path, version, minFileVersion, maxFileVersion)
	}

	revision := int64(r.uint64())
	layerCount := r.uint64()

	var records []LayerRecord
	for i := uint64(0); i < layerCount && r.err == nil; i++ {
		var rec LayerRecord
		updatedCount := r.uint64()
		for j := uint64(0); j < updatedCount && r.err == nil; j++ {
			rec.Updated = append(rec.Updated, Entry{Key: r.bytes(), Value: r.bytes()})
		}
		deletedCount := r.uint64()
		for j := uint64(0); j < deletedCount && r.err == nil; j++ {
			rec.Deleted = append(rec.Deleted, r.bytes())
		}
		records = append(records, rec)
	}
	if r.err != nil {
		return 0, nil, r.err
	}
	return revision, records, nil
}

// fileReader is a cursor over the raw file content. The first failure
// sticks; subsequent reads are no-ops.
type fileReader struct {
	data []byte
	off  int
	path string
	err  error
}

func (r *fileReader) take(n uint64) []byte {
	if r.err != nil {
		return nil
	}
	if uint64(len(r.data)-r.off) < n {
		r.err = errors.Wrapf(ErrTruncated, "undo file '%v' ends at offset %v", r.path, len(r.data))
		return nil
	}
	b := r.data[r.off : r.off+int(n)]
	r.off += int(n)
	return b
}

func (r *fileReader) uint32() uint32 {
	if b := r.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *fileReader) uint64() uint64 {
	if b := r.take(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (r *fileReader) bytes() []byte {
	return r.take(r.uint64())
}

// fileWriter mirrors fileReader: fixed-width big-endian integers,
// length-prefixed byte buffers, sticky first error.
type fileWriter struct {
	w   io.Writer
	err error
	buf [8]byte
}

func (w *fileWriter) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *fileWriter) uint32(v uint32) {
	binary.BigEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

func (w *fileWriter) uint64(v uint64) {
	binary.BigEndian.PutUint64(w.buf[:8], v)
	w.write(w.buf[:8])
}

func (w *fileWriter) bytes(b []byte) {
	w.uint64(uint64(len(b)))
	w.write(b)
}
