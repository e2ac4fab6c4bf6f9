package importer

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/d65v/vecbase"
)

// SQLiteSource describes where vectors live inside a SQLite database.
type SQLiteSource struct {
	// Table is the table to read from.
	Table string

	// IDColumn holds the record id. Rows with a NULL or empty id get a
	// generated UUID. Leave empty to generate UUIDs for every row.
	IDColumn string

	// VectorColumn holds the vector as a BLOB of little-endian float32
	// values. Required.
	VectorColumn string

	// MetadataColumn holds optional metadata text. Leave empty to import
	// vectors without metadata.
	MetadataColumn string
}

// ImportSQLite loads vectors from a SQLite database into db. The dsn is a
// file path or ":memory:"; vectors are BLOBs of little-endian float32 values
// whose byte length must equal 4 times the store dimension.
func ImportSQLite(ctx context.Context, db *vecbase.VecBase, dsn string, src SQLiteSource, optFns ...func(o *Options)) (Report, error) {
	opts := applyOptions(optFns)

	if src.Table == "" || src.VectorColumn == "" {
		return Report{}, fmt.Errorf("sqlite source requires a table and vector column")
	}

	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return Report{}, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	defer sqldb.Close()

	query := buildSQLiteQuery(src)
	rows, err := sqldb.QueryContext(ctx, query)
	if err != nil {
		return Report{}, fmt.Errorf("query %s: %w", src.Table, err)
	}
	defer rows.Close()

	opts.Logger.InfoContext(ctx, "sqlite import",
		"dsn", dsn,
		"table", src.Table,
		"dry_run", opts.DryRun,
	)

	var report Report
	tick := progress()
	row := 0

	for rows.Next() {
		var (
			id   sql.NullString
			blob []byte
			meta sql.NullString
		)

		dest := []any{&blob}
		if src.IDColumn != "" {
			dest = append([]any{&id}, dest...)
		}
		if src.MetadataColumn != "" {
			dest = append(dest, &meta)
		}
		if err := rows.Scan(dest...); err != nil {
			return report, fmt.Errorf("scan row %d: %w", row, err)
		}

		recordID := id.String
		if recordID == "" {
			recordID = uuid.NewString()
		}

		vector, err := DecodeVectorBlob(blob)
		if err != nil {
			report.Failed = append(report.Failed, Failure{ID: recordID, Err: err})
			row++
			continue
		}

		if !isFinite(vector) {
			opts.Logger.WarnContext(ctx, "row contains NaN/Inf, skipping", "row", row, "id", recordID)
			report.Skipped++
			row++
			continue
		}

		if !opts.DryRun {
			if err := db.Insert(ctx, recordID, vector, meta.String); err != nil {
				report.Failed = append(report.Failed, Failure{ID: recordID, Err: err})
				row++
				continue
			}
			report.Imported++
		}
		row++

		tick.Do(func() {
			opts.Logger.InfoContext(ctx, "sqlite import progress", "row", row)
		})
	}
	if err := rows.Err(); err != nil {
		return report, fmt.Errorf("iterate %s: %w", src.Table, err)
	}

	opts.Logger.InfoContext(ctx, "sqlite import done",
		"imported", report.Imported,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
	)
	return report, nil
}

func buildSQLiteQuery(src SQLiteSource) string {
	cols := ""
	if src.IDColumn != "" {
		cols = src.IDColumn + ", "
	}
	cols += src.VectorColumn
	if src.MetadataColumn != "" {
		cols += ", " + src.MetadataColumn
	}
	return "SELECT " + cols + " FROM " + src.Table
}

// DecodeVectorBlob decodes a BLOB of little-endian float32 values.
func DecodeVectorBlob(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector, nil
}

// EncodeVectorBlob is the inverse of DecodeVectorBlob.
func EncodeVectorBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

func isFinite(vector []float32) bool {
	for _, v := range vector {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
