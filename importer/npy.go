package importer

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/d65v/vecbase"
)

// npyMagic opens every .npy file.
var npyMagic = []byte("\x93NUMPY")

var (
	// ErrNotNpy is returned for files without the .npy magic bytes.
	ErrNotNpy = errors.New("not a .npy file (bad magic bytes)")

	// ErrWrongShape is returned for arrays that are not 2-D.
	ErrWrongShape = errors.New("array must be 2-D (n, d)")
)

// NpyHeader describes a parsed .npy array header.
type NpyHeader struct {
	Rows         int
	Cols         int
	FortranOrder bool
}

// ParseNpyHeader parses a .npy v1.0 or v2.0 header and returns the header
// plus the offset where the raw data section begins.
//
// Layout: magic (6 bytes), major/minor version (2 bytes), then the header
// length as u16 (v1) or u32 (v2) little-endian, then a Python dict literal
// describing dtype, order and shape. Only little-endian float32 ("<f4")
// 2-D arrays are accepted.
func ParseNpyHeader(data []byte) (NpyHeader, int, error) {
	if !bytes.HasPrefix(data, npyMagic) {
		return NpyHeader{}, 0, ErrNotNpy
	}
	if len(data) < 10 {
		return NpyHeader{}, 0, fmt.Errorf("file too short for version bytes")
	}

	major, minor := data[6], data[7]
	if major > 2 {
		return NpyHeader{}, 0, fmt.Errorf("unsupported .npy version %d.%d", major, minor)
	}

	var headerLen, headerStart int
	if major == 1 {
		headerLen = int(binary.LittleEndian.Uint16(data[8:10]))
		headerStart = 10
	} else {
		if len(data) < 12 {
			return NpyHeader{}, 0, fmt.Errorf("file too short for v2 header length")
		}
		headerLen = int(binary.LittleEndian.Uint32(data[8:12]))
		headerStart = 12
	}

	headerEnd := headerStart + headerLen
	if len(data) < headerEnd {
		return NpyHeader{}, 0, fmt.Errorf("file too short for declared header")
	}
	if !utf8.Valid(data[headerStart:headerEnd]) {
		return NpyHeader{}, 0, fmt.Errorf("header is not valid UTF-8")
	}
	header := string(data[headerStart:headerEnd])

	if !npyDtypeIsFloat32(header) {
		return NpyHeader{}, 0, fmt.Errorf("unsupported dtype %q (need float32)", npyDtypeHint(header))
	}

	fortran := strings.Contains(header, "'fortran_order': True") ||
		strings.Contains(header, `"fortran_order": True`)

	rows, cols, err := npyShape(header)
	if err != nil {
		return NpyHeader{}, 0, err
	}

	return NpyHeader{Rows: rows, Cols: cols, FortranOrder: fortran}, headerEnd, nil
}

func npyDtypeIsFloat32(header string) bool {
	return strings.Contains(header, "'<f4'") ||
		strings.Contains(header, `"<f4"`) ||
		strings.Contains(header, "'>f4'") ||
		strings.Contains(header, "float32")
}

// npyDtypeHint extracts the declared dtype for error messages.
func npyDtypeHint(header string) string {
	_, after, ok := strings.Cut(header, "'descr':")
	if !ok {
		return "unknown"
	}
	after = strings.TrimLeft(after, ` '"`)
	if len(after) > 8 {
		after = after[:8]
	}
	return after
}

func npyShape(header string) (rows, cols int, err error) {
	idx := strings.Index(header, "'shape':")
	if idx < 0 {
		idx = strings.Index(header, `"shape":`)
	}
	if idx < 0 {
		return 0, 0, fmt.Errorf("no 'shape' key in header")
	}

	after := header[idx:]
	open := strings.IndexByte(after, '(')
	if open < 0 {
		return 0, 0, fmt.Errorf("no '(' after shape")
	}
	end := strings.IndexByte(after, ')')
	if end < 0 {
		return 0, 0, fmt.Errorf("no ')' after shape")
	}

	var dims []int
	for _, part := range strings.Split(after[open+1:end], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		dims = append(dims, n)
	}
	if len(dims) != 2 {
		return 0, 0, ErrWrongShape
	}
	return dims[0], dims[1], nil
}

// ImportNpy loads a .npy file of shape (n, d) float32 vectors into db.
// Row i becomes record "<prefix>i". Rows containing NaN or Inf components
// are skipped and counted in the report.
func ImportNpy(ctx context.Context, db *vecbase.VecBase, path string, optFns ...func(o *Options)) (Report, error) {
	opts := applyOptions(optFns)

	raw, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read %s: %w", path, err)
	}

	header, dataOffset, err := ParseNpyHeader(raw)
	if err != nil {
		return Report{}, fmt.Errorf("parse %s: %w", path, err)
	}

	opts.Logger.InfoContext(ctx, "npy import",
		"path", path,
		"rows", header.Rows,
		"cols", header.Cols,
		"fortran_order", header.FortranOrder,
		"dry_run", opts.DryRun,
	)
	if header.FortranOrder {
		opts.Logger.WarnContext(ctx, "fortran-order array; rows are read as stored")
	}

	if dim := db.Config().Dim; header.Cols != dim {
		return Report{}, &vecbase.ErrDimensionMismatch{Expected: dim, Got: header.Cols}
	}
	if opts.DryRun {
		return Report{}, nil
	}

	expected := header.Rows * header.Cols * 4
	if available := len(raw) - dataOffset; available < expected {
		return Report{}, fmt.Errorf("data section too small: expected %d bytes, got %d", expected, available)
	}
	data := raw[dataOffset : dataOffset+expected]

	var report Report
	tick := progress()

	for row := 0; row < header.Rows; row++ {
		vector := make([]float32, header.Cols)
		finite := true
		for j := range vector {
			bits := binary.LittleEndian.Uint32(data[(row*header.Cols+j)*4:])
			v := math.Float32frombits(bits)
			if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
				finite = false
			}
			vector[j] = v
		}

		id := opts.Prefix + strconv.Itoa(row)
		if !finite {
			opts.Logger.WarnContext(ctx, "row contains NaN/Inf, skipping", "row", row, "id", id)
			report.Skipped++
			continue
		}

		if err := db.Insert(ctx, id, vector, ""); err != nil {
			report.Failed = append(report.Failed, Failure{ID: id, Err: err})
			continue
		}
		report.Imported++

		tick.Do(func() {
			opts.Logger.InfoContext(ctx, "npy import progress", "row", row, "rows", header.Rows)
		})
	}

	opts.Logger.InfoContext(ctx, "npy import done",
		"imported", report.Imported,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
	)
	return report, nil
}
