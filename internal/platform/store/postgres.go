package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGSource serves definitions imported into the fhir_definition table.
type PGSource struct {
	db queryable
}

// NewPGSource wraps a pool or connection.
func NewPGSource(db queryable) *PGSource {
	return &PGSource{db: db}
}

const definitionIndexCols = `name, namespace, entry_type, file, base_definition, element_count, must_support_count`

func (s *PGSource) LoadIndex(ctx context.Context) (*Index, error) {
	rows, err := s.db.Query(ctx, `SELECT `+definitionIndexCols+` FROM fhir_definition ORDER BY namespace, name`)
	if err != nil {
		return nil, fmt.Errorf("query definitions: %w", err)
	}
	defer rows.Close()

	idx := &Index{ByName: map[string]IndexEntry{}}
	for rows.Next() {
		var e IndexEntry
		if err := rows.Scan(&e.Name, &e.Spec, &e.Type, &e.File, &e.BaseDefinition, &e.ElementCount, &e.MustSupportCount); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		if e.Type == EntryDatatype {
			e.Kind = "complex-type"
		}
		idx.ByName[e.Name] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate definitions: %w", err)
	}
	return idx, nil
}

func (s *PGSource) ReadFile(ctx context.Context, file string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRow(ctx, `SELECT content FROM fhir_definition WHERE file = $1 LIMIT 1`, file).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, file)
	}
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", file, err)
	}
	return content, nil
}

// Put inserts or replaces one definition.
func (s *PGSource) Put(ctx context.Context, e IndexEntry, content []byte) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO fhir_definition (id, namespace, name, entry_type, file, base_definition,
			element_count, must_support_count, content)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (namespace, name) DO UPDATE SET
			entry_type=EXCLUDED.entry_type, file=EXCLUDED.file, base_definition=EXCLUDED.base_definition,
			element_count=EXCLUDED.element_count, must_support_count=EXCLUDED.must_support_count,
			content=EXCLUDED.content, updated_at=NOW()`,
		uuid.New(), e.Spec, e.Name, e.Type, e.File, e.BaseDefinition,
		e.ElementCount, e.MustSupportCount, content)
	if err != nil {
		return fmt.Errorf("store definition %s/%s: %w", e.Spec, e.Name, err)
	}
	return nil
}
