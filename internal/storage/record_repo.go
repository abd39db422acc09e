package storage

import (
	"context"
	"database/sql"
	"fmt"

	"docqa/internal/apperrors"
)

// RecordRepo reads and writes Embedding Records.
type RecordRepo struct {
	db *sql.DB
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(db *sql.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// WriteAll replaces every record in one transaction. records[i].Row must equal i.
func (r *RecordRepo) WriteAll(ctx context.Context, records []Record) error {
	for i, rec := range records {
		if err := rec.Validate(i); err != nil {
			return fmt.Errorf("refusing to write records: %w", err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO records (row_index, document_id, chunk_index, text, source_path) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Row, rec.DocumentID, rec.ChunkIndex, rec.Text, rec.SourcePath); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", rec.Row, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// LoadAll returns every record ordered by row. Rows that are not contiguous
// from 0 or fail field validation yield ErrCorruption.
func (r *RecordRepo) LoadAll(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT row_index, document_id, chunk_index, text, source_path FROM records ORDER BY row_index",
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCorruption, err, "failed to query records")
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Row, &rec.DocumentID, &rec.ChunkIndex, &rec.Text, &rec.SourcePath); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCorruption, err, "failed to scan record")
		}
		if err := rec.Validate(len(records)); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCorruption, err, "row iteration error")
	}

	return records, nil
}
