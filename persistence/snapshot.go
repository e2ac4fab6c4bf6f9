package persistence

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/d65v/vecbase"
	"github.com/d65v/vecbase/codec"
)

// Record is the on-disk shape of a stored vector. It is deliberately
// decoupled from the in-memory record type so the disk schema can evolve
// independently.
type Record struct {
	ID       string    `json:"id" msgpack:"id"`
	Vector   []float32 `json:"vector" msgpack:"vector"`
	Metadata string    `json:"metadata" msgpack:"metadata"`
}

// Snapshot is a point-in-time copy of a store: its effective configuration
// plus every record. Vectors appear exactly as stored, so a snapshot taken
// under the cosine metric holds normalized vectors.
type Snapshot struct {
	Dim         int      `json:"dim" msgpack:"dim"`
	Metric      string   `json:"metric" msgpack:"metric"`
	MaxElements int      `json:"max_elements" msgpack:"max_elements"`
	Records     []Record `json:"records" msgpack:"records"`
}

// WriteOptions configures snapshot encoding.
type WriteOptions struct {
	// Codec encodes the snapshot payload. The codec name is recorded in the
	// file header so Read can select it back.
	Codec codec.Codec

	// Compression is applied to the encoded payload.
	Compression Compression
}

// DefaultWriteOptions returns the default snapshot encoding options.
var DefaultWriteOptions = WriteOptions{
	Codec:       codec.Default,
	Compression: CompressionLZ4,
}

// Write encodes snap into w.
//
// File layout, all integers little-endian:
//
//	u32  magic "VECB"
//	u32  format version
//	u8   codec name length, followed by the codec name
//	u8   compression
//	u64  payload block length
//	...  payload block (see CompressBlock)
//	u32  CRC32 of all preceding bytes
func Write(w io.Writer, snap *Snapshot, optFns ...func(o *WriteOptions)) error {
	opts := DefaultWriteOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	payload, err := opts.Codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	block, err := CompressBlock(payload, opts.Compression)
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	name := opts.Codec.Name()
	if name == "" || len(name) > 255 {
		return fmt.Errorf("invalid codec name %q", name)
	}

	cw := NewChecksumWriter(w)
	for _, v := range []any{
		uint32(MagicNumber),
		uint32(FormatVersion),
		uint8(len(name)),
		[]byte(name),
		uint8(opts.Compression),
		uint64(len(block)),
		block,
	} {
		if err := binary.Write(cw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}

	return binary.Write(w, binary.LittleEndian, cw.Sum())
}

// Read decodes a snapshot written by Write, verifying magic, version and
// checksum and selecting the codec named in the header.
func Read(r io.Reader) (*Snapshot, error) {
	cr := NewChecksumReader(r)

	var magic, version uint32
	if err := binary.Read(cr, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if magic != MagicNumber {
		return nil, ErrInvalidMagic
	}
	if err := binary.Read(cr, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if version != FormatVersion {
		return nil, ErrInvalidVersion
	}

	var nameLen uint8
	if err := binary.Read(cr, binary.LittleEndian, &nameLen); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(cr, nameBytes); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	c, ok := codec.ByName(string(nameBytes))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, nameBytes)
	}

	var compression uint8
	if err := binary.Read(cr, binary.LittleEndian, &compression); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var blockLen uint64
	if err := binary.Read(cr, binary.LittleEndian, &blockLen); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if blockLen > math.MaxInt32 {
		return nil, fmt.Errorf("payload block too large: %d bytes", blockLen)
	}
	block := make([]byte, blockLen)
	if _, err := io.ReadFull(cr, block); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	var expected uint32
	if err := binary.Read(r, binary.LittleEndian, &expected); err != nil {
		return nil, fmt.Errorf("read checksum: %w", err)
	}
	if err := cr.Verify(expected); err != nil {
		return nil, err
	}

	payload, err := DecompressBlock(block, Compression(compression))
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var snap Snapshot
	if err := c.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// SaveFile writes the snapshot to path atomically (temp file then rename).
func SaveFile(path string, snap *Snapshot, optFns ...func(o *WriteOptions)) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, snap, optFns...); err != nil {
		tmp.Close()
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// LoadFile reads a snapshot from path.
func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &StorageError{Op: "load", Path: path, Err: err}
	}
	defer f.Close()

	snap, err := Read(f)
	if err != nil {
		return nil, &StorageError{Op: "load", Path: path, Err: err}
	}
	return snap, nil
}

// Capture copies the full state of db into a Snapshot.
func Capture(db *vecbase.VecBase) *Snapshot {
	cfg := db.Config()
	snap := &Snapshot{
		Dim:         cfg.Dim,
		Metric:      cfg.Metric,
		MaxElements: cfg.MaxElements,
		Records:     make([]Record, 0, db.Len()),
	}
	db.Range(func(rec vecbase.VecRecord) bool {
		snap.Records = append(snap.Records, Record{
			ID:       rec.ID,
			Vector:   rec.Vector,
			Metadata: rec.Metadata,
		})
		return true
	})
	return snap
}

// Restore builds a fresh store from a snapshot, replaying every record
// through the normal insert path so the proximity graph is rebuilt.
func Restore(ctx context.Context, snap *Snapshot, optFns ...vecbase.Option) (*vecbase.VecBase, error) {
	cfg := vecbase.Config{
		Dim:         snap.Dim,
		Metric:      snap.Metric,
		MaxElements: snap.MaxElements,
	}
	db, err := vecbase.New(cfg, optFns...)
	if err != nil {
		return nil, fmt.Errorf("restore config: %w", err)
	}

	for _, rec := range snap.Records {
		if err := db.Insert(ctx, rec.ID, rec.Vector, rec.Metadata); err != nil {
			return nil, fmt.Errorf("restore record %q: %w", rec.ID, err)
		}
	}
	return db, nil
}
