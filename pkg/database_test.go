package caf

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestSummarize(t *testing.T) {
	rec := fullRecord(t, 4)
	s := Summarize(12, rec)
	assert.Equal(t, 12, s.Entry)
	assert.Equal(t, "nd_lar", s.Detector)
	assert.Equal(t, uint32(20004), s.Run)
	assert.Equal(t, uint32(3), s.Subrun)
	assert.Equal(t, uint32(4), s.Event)
	assert.Equal(t, 2, s.NNu)
	assert.Equal(t, 8, s.NParticles)
	assert.Equal(t, uint32(1<<DetectorNDLAr), s.ActiveDetectors)

	empty := Summarize(0, NewStandardRecord())
	assert.Equal(t, "unknown", empty.Detector)
	assert.Equal(t, uint32(UnsetID), empty.Run)
}

func TestRegisterFile(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO CAFFiles (FileID, Filename, NEntries) VALUES (?, ?, ?)")).
		WithArgs(sqlmock.AnyArg(), "run20004.h5", 3).
		WillReturnResult(sqlmock.NewResult(1, 1))

	fileID, err := RegisterFile(db, "run20004.h5", 3)
	require.NoError(t, err)
	assert.Len(t, fileID, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEntrySummaries(t *testing.T) {
	db, mock := newMockDB(t)
	summaries := []EntrySummary{
		Summarize(0, fullRecord(t, 1)),
		Summarize(1, fullRecord(t, 2)),
	}

	mock.ExpectBegin()
	for _, s := range summaries {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO CAFEntries")).
			WithArgs("file-1", s.Entry, s.ActiveDetectors, s.Detector, s.Run, s.Subrun, s.Event, s.NNu, s.NParticles).
			WillReturnResult(sqlmock.NewResult(int64(s.Entry), 1))
	}
	mock.ExpectCommit()

	require.NoError(t, InsertEntrySummaries(db, "file-1", summaries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEntrySummariesRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO CAFEntries")).
		WillReturnError(errors.New("duplicate entry"))
	mock.ExpectRollback()

	err := InsertEntrySummaries(db, "file-1", []EntrySummary{Summarize(0, NewStandardRecord())})
	assert.ErrorContains(t, err, "duplicate entry")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntriesForRun(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"FileID", "Entry", "ActiveDetectors", "Detector", "Run", "Subrun", "Event", "NNu", "NParticles"}).
		AddRow("file-1", 0, 4, "nd_lar", 20004, 3, 4, 2, 8).
		AddRow("file-1", 1, 4, "nd_lar", 20004, 3, 5, 1, 2)
	mock.ExpectQuery(regexp.QuoteMeta("FROM CAFEntries WHERE Run = ? AND Detector = ?")).
		WithArgs(uint32(20004), "nd_lar").
		WillReturnRows(rows)

	entries, err := GetEntriesForRun(db, 20004, DetectorNDLAr)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(5), entries[1].Event)
	assert.Equal(t, 8, entries[0].NParticles)
	assert.NoError(t, mock.ExpectationsWereMet())
}
