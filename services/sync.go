package services

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SyncService mirrors students from the external student-information system
// into the local schema. Unlike bulk enrollment, synchronization is
// all-or-nothing: a half-merged person/student set is unsafe, so any failure
// rolls the whole run back.
type SyncService struct {
	db     *sql.DB
	client *SISClient
}

func NewSyncService(db *sql.DB, client *SISClient) *SyncService {
	return &SyncService{db: db, client: client}
}

// SyncReport summarizes one synchronization run.
type SyncReport struct {
	Total    int `json:"total"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// SyncStudents fetches students matching the filters and upserts their
// person and student rows inside one transaction.
func (s *SyncService) SyncStudents(filters SISFilters) (SyncReport, error) {
	var report SyncReport

	students, err := s.client.FetchStudents(filters)
	if err != nil {
		return report, err
	}
	report.Total = len(students)

	tx, err := s.db.Begin()
	if err != nil {
		return report, errors.Wrap(err, "begin sync transaction")
	}
	defer tx.Rollback()

	for _, sis := range students {
		classID, err := s.resolveClass(tx, sis.ClassCode, sis.SchoolYear)
		if err != nil {
			return SyncReport{}, errors.Wrapf(err, "resolve class %q for student %s", sis.ClassCode, sis.RA)
		}

		var studentID, personID int
		err = tx.QueryRow("SELECT id, person_id FROM students WHERE ra = ?", sis.RA).Scan(&studentID, &personID)
		switch err {
		case nil:
			if _, err := tx.Exec(
				"UPDATE persons SET name = ?, email = ?, birth_date = ? WHERE id = ?",
				sis.Name, nullIfEmpty(sis.Email), nullIfEmpty(sis.BirthDate), personID); err != nil {
				return SyncReport{}, errors.Wrapf(err, "update person for student %s", sis.RA)
			}
			if _, err := tx.Exec(
				"UPDATE students SET situation = ?, class_id = ? WHERE id = ?",
				sis.Situation, classID, studentID); err != nil {
				return SyncReport{}, errors.Wrapf(err, "update student %s", sis.RA)
			}
			report.Updated++
		case sql.ErrNoRows:
			res, err := tx.Exec(
				"INSERT INTO persons (name, email, birth_date) VALUES (?, ?, ?)",
				sis.Name, nullIfEmpty(sis.Email), nullIfEmpty(sis.BirthDate))
			if err != nil {
				return SyncReport{}, errors.Wrapf(err, "insert person for student %s", sis.RA)
			}
			pid, _ := res.LastInsertId()
			if _, err := tx.Exec(
				"INSERT INTO students (ra, situation, person_id, class_id) VALUES (?, ?, ?, ?)",
				sis.RA, sis.Situation, pid, classID); err != nil {
				return SyncReport{}, errors.Wrapf(err, "insert student %s", sis.RA)
			}
			report.Inserted++
		default:
			return SyncReport{}, errors.Wrapf(err, "look up student %s", sis.RA)
		}
	}

	if err := tx.Commit(); err != nil {
		return SyncReport{}, errors.Wrap(err, "commit sync transaction")
	}

	log.WithFields(log.Fields{
		"total":    report.Total,
		"inserted": report.Inserted,
		"updated":  report.Updated,
	}).Info("student synchronization finished")
	return report, nil
}

func (s *SyncService) resolveClass(tx *sql.Tx, code string, year int) (interface{}, error) {
	if code == "" {
		return nil, nil
	}
	var id int
	err := tx.QueryRow(`
		SELECT c.id FROM classes c
		INNER JOIN school_years sy ON c.school_year_id = sy.id
		WHERE c.code = ? AND sy.year = ?`,
		code, year).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, errors.Errorf("class %s not found for year %d", code, year)
	}
	if err != nil {
		return nil, err
	}
	return id, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
