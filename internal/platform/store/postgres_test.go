package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	content []byte
	err     error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.content
	return nil
}

type fakeDB struct {
	row     fakeRow
	lastSQL string
	args    []interface{}
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.lastSQL, f.args = sql, args
	return f.row
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.lastSQL, f.args = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPGSource_ReadFile(t *testing.T) {
	db := &fakeDB{row: fakeRow{content: []byte(patientFlat)}}
	data, err := NewPGSource(db).ReadFile(context.Background(), "fhir-r4/resources/Patient.json")
	require.NoError(t, err)
	assert.JSONEq(t, patientFlat, string(data))
	assert.Equal(t, []interface{}{"fhir-r4/resources/Patient.json"}, db.args)
}

func TestPGSource_ReadFileNotFound(t *testing.T) {
	db := &fakeDB{row: fakeRow{err: pgx.ErrNoRows}}
	_, err := NewPGSource(db).ReadFile(context.Background(), "missing.json")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPGSource_Put(t *testing.T) {
	db := &fakeDB{}
	e := IndexEntry{Name: "Patient", Spec: "fhir-r4", Type: EntryResource, File: "fhir-r4/resources/Patient.json", ElementCount: 4}
	require.NoError(t, NewPGSource(db).Put(context.Background(), e, []byte(patientFlat)))

	assert.True(t, strings.Contains(db.lastSQL, "ON CONFLICT (namespace, name)"))
	require.Len(t, db.args, 9)
	assert.Equal(t, "fhir-r4", db.args[1])
	assert.Equal(t, "Patient", db.args[2])
	assert.Equal(t, 4, db.args[6])
}

func TestPGSource_LoadIndexError(t *testing.T) {
	_, err := NewPGSource(&fakeDB{}).LoadIndex(context.Background())
	assert.Error(t, err)
}
