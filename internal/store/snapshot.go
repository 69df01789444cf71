package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pavelanni/corretor/internal/exam"
	"github.com/pavelanni/corretor/internal/model"
)

//go:embed snapshot.schema.json
var snapshotSchemaJSON string

var snapshotSchema = mustSchema(snapshotSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile snapshot schema: %v", err))
	}
	return schema
}

// SaveSnapshot replaces the stored exam state.
func (s *Store) SaveSnapshot(snap model.Snapshot) error {
	if snap.Roster == nil {
		snap.Roster = []model.Student{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots (id, data, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored exam state. A missing or unreadable record
// yields the default state; only database failures are returned as errors.
func (s *Store) LoadSnapshot() (model.Snapshot, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM snapshots WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSnapshot(), nil
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	snap, err := decodeSnapshot([]byte(data))
	if err != nil {
		slog.Warn("stored snapshot is invalid, starting from defaults", "error", err)
		return model.DefaultSnapshot(), nil
	}
	return snap, nil
}

// DeleteSnapshot removes the stored state so the next load starts fresh.
func (s *Store) DeleteSnapshot() error {
	_, err := s.db.Exec(`DELETE FROM snapshots`)
	return err
}

func decodeSnapshot(data []byte) (model.Snapshot, error) {
	res, err := snapshotSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return model.Snapshot{}, fmt.Errorf("snapshot does not match schema: %s", strings.Join(msgs, "; "))
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := exam.ValidateSnapshot(snap); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}
