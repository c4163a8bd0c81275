package caf

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// EntrySummary is the catalog row of one record. Run numbers come from the
// first active detector that has them.
type EntrySummary struct {
	FileID          string `db:"FileID"`
	Entry           int    `db:"Entry"`
	ActiveDetectors uint32 `db:"ActiveDetectors"`
	Detector        string `db:"Detector"`
	Run             uint32 `db:"Run"`
	Subrun          uint32 `db:"Subrun"`
	Event           uint32 `db:"Event"`
	NNu             int    `db:"NNu"`
	NParticles      int    `db:"NParticles"`
}

func Summarize(entry int, rec *StandardRecord) EntrySummary {
	summary := EntrySummary{
		Entry:           entry,
		ActiveDetectors: rec.ActiveDetectors.Bits(),
		Detector:        DetectorUnknown.String(),
		Run:             UnsetID,
		Subrun:          UnsetID,
		Event:           UnsetID,
		NNu:             len(rec.MC.Nu),
		NParticles:      rec.MC.NParticles(),
	}
	for _, d := range rec.ActiveDetectors.Detectors() {
		meta := rec.Meta[d]
		if meta.Run == UnsetID {
			continue
		}
		summary.Detector = d.String()
		summary.Run = meta.Run
		summary.Subrun = meta.Subrun
		summary.Event = meta.Event
		break
	}
	return summary
}

// RegisterFile adds a file to the catalog and returns the id its entries are
// stored under.
func RegisterFile(db *sqlx.DB, filename string, nEntries int) (string, error) {
	fileID := uuid.New().String()
	query := "INSERT INTO CAFFiles (FileID, Filename, NEntries) VALUES (?, ?, ?)"
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}
	if _, err := db.Exec(query, fileID, filename, nEntries); err != nil {
		return "", fmt.Errorf("error registering file %s: %w", filename, err)
	}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Registered %s as %s", filename, fileID), "database")
	}
	return fileID, nil
}

// InsertEntrySummaries stores the summaries of one file in a single
// transaction: either all of them are cataloged or none.
func InsertEntrySummaries(db *sqlx.DB, fileID string, summaries []EntrySummary) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	query := `INSERT INTO CAFEntries (FileID, Entry, ActiveDetectors, Detector, Run, Subrun, Event, NNu, NParticles)
		VALUES (:FileID, :Entry, :ActiveDetectors, :Detector, :Run, :Subrun, :Event, :NNu, :NParticles)`
	for _, s := range summaries {
		s.FileID = fileID
		if _, err := tx.NamedExec(query, s); err != nil {
			tx.Rollback()
			return fmt.Errorf("error inserting entry %d: %w", s.Entry, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing entries: %w", err)
	}
	return nil
}

// GetEntriesForRun returns the cataloged entries of a run recorded by the
// given detector.
func GetEntriesForRun(db *sqlx.DB, run uint32, detector Detector) ([]EntrySummary, error) {
	query := `SELECT FileID, Entry, ActiveDetectors, Detector, Run, Subrun, Event, NNu, NParticles
		FROM CAFEntries WHERE Run = ? AND Detector = ? ORDER BY FileID, Entry`
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}
	rows, err := db.Queryx(query, run, detector.String())
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	summaries := make([]EntrySummary, 0)
	for rows.Next() {
		result := EntrySummary{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		summaries = append(summaries, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	return summaries, nil
}
