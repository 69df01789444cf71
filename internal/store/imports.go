package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/corretor/internal/model"
)

// RecordImport appends rec to the import history. A zero ImportedAt is set
// to now.
func (s *Store) RecordImport(rec model.ImportRecord) error {
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO imports (name, sha256, questions, students, imported_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Name, rec.SHA256, rec.Questions, rec.Students, rec.ImportedAt,
	)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// LastImport returns the latest import of a file with the given name, or nil.
func (s *Store) LastImport(name string) (*model.ImportRecord, error) {
	var rec model.ImportRecord
	err := s.db.QueryRow(
		`SELECT name, sha256, questions, students, imported_at FROM imports
		 WHERE name = ? ORDER BY id DESC LIMIT 1`, name,
	).Scan(&rec.Name, &rec.SHA256, &rec.Questions, &rec.Students, &rec.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last import: %w", err)
	}
	return &rec, nil
}

// ListImports returns up to limit imports, newest first.
func (s *Store) ListImports(limit int) ([]model.ImportRecord, error) {
	rows, err := s.db.Query(
		`SELECT name, sha256, questions, students, imported_at FROM imports
		 ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []model.ImportRecord
	for rows.Next() {
		var rec model.ImportRecord
		if err := rows.Scan(&rec.Name, &rec.SHA256, &rec.Questions, &rec.Students, &rec.ImportedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
