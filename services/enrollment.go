package services

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"olympiad-api/models"
)

// EnrollmentService owns the transactional enrollment flows. Simple reads
// stay in the controller; everything that touches more than one row for one
// request goes through here on a dedicated transaction.
type EnrollmentService struct {
	db *sql.DB
}

func NewEnrollmentService(db *sql.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

// Create enrolls a single student. A student already enrolled in the same
// olympiad yields ErrConflict and no new row; the UNIQUE key on
// (olympiad_id, student_id) backs the check against concurrent duplicates.
func (s *EnrollmentService) Create(olympiadID, studentID int, status, notes string) (int, error) {
	if status == "" {
		status = models.EnrollmentEnrolled
	}

	var existing int
	err := s.db.QueryRow(
		"SELECT id FROM enrollments WHERE olympiad_id = ? AND student_id = ?",
		olympiadID, studentID).Scan(&existing)
	if err == nil {
		return 0, ErrConflict
	}
	if err != sql.ErrNoRows {
		return 0, errors.Wrap(err, "check existing enrollment")
	}

	res, err := s.db.Exec(
		"INSERT INTO enrollments (olympiad_id, student_id, status, notes) VALUES (?, ?, ?, ?)",
		olympiadID, studentID, status, notes)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrConflict
		}
		return 0, errors.Wrap(err, "insert enrollment")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "read enrollment id")
	}
	return int(id), nil
}

// EnrollStudents enrolls every listed student into the olympiad. Students
// already enrolled are recorded as skips, other per-item failures as errors;
// the batch itself never aborts because of one member. All inserts share one
// transaction.
func (s *EnrollmentService) EnrollStudents(olympiadID int, studentIDs []int, status string) (models.BatchEnrollmentResult, error) {
	outcome := models.BatchEnrollmentResult{Items: []models.BatchEnrollmentItem{}}
	if status == "" {
		status = models.EnrollmentEnrolled
	}

	tx, err := s.db.Begin()
	if err != nil {
		return outcome, errors.Wrap(err, "begin enrollment transaction")
	}
	defer tx.Rollback()

	for _, studentID := range studentIDs {
		var existing int
		err := tx.QueryRow(
			"SELECT id FROM enrollments WHERE olympiad_id = ? AND student_id = ?",
			olympiadID, studentID).Scan(&existing)
		if err == nil {
			outcome.AlreadyEnrolled++
			outcome.Items = append(outcome.Items, models.BatchEnrollmentItem{
				StudentID: studentID, Skipped: true, Reason: "already enrolled",
			})
			continue
		}
		if err != sql.ErrNoRows {
			return outcome, errors.Wrap(err, "check existing enrollment")
		}

		res, err := tx.Exec(
			"INSERT INTO enrollments (olympiad_id, student_id, status) VALUES (?, ?, ?)",
			olympiadID, studentID, status)
		if err != nil {
			if isDuplicateKey(err) {
				outcome.AlreadyEnrolled++
				outcome.Items = append(outcome.Items, models.BatchEnrollmentItem{
					StudentID: studentID, Skipped: true, Reason: "already enrolled",
				})
				continue
			}
			outcome.Failed++
			outcome.Items = append(outcome.Items, models.BatchEnrollmentItem{
				StudentID: studentID, Skipped: true, Reason: err.Error(),
			})
			continue
		}
		id, _ := res.LastInsertId()
		outcome.Enrolled++
		outcome.Items = append(outcome.Items, models.BatchEnrollmentItem{
			StudentID: studentID, EnrollmentID: int(id),
		})
	}

	if err := tx.Commit(); err != nil {
		return outcome, errors.Wrap(err, "commit enrollment transaction")
	}

	log.WithFields(log.Fields{
		"olympiad_id": olympiadID,
		"enrolled":    outcome.Enrolled,
		"skipped":     outcome.AlreadyEnrolled,
	}).Info("batch enrollment finished")
	return outcome, nil
}

// EnrollByClass enrolls every eligible student of one class: situation
// Matriculado within an active school year.
func (s *EnrollmentService) EnrollByClass(olympiadID, classID int) (models.BatchEnrollmentResult, error) {
	ids, err := s.eligibleStudents(`
		SELECT st.id
		FROM students st
		INNER JOIN classes c ON st.class_id = c.id
		INNER JOIN school_years sy ON c.school_year_id = sy.id
		WHERE st.class_id = ? AND st.situation = 'Matriculado' AND sy.status = 'active'`,
		classID)
	if err != nil {
		return models.BatchEnrollmentResult{}, err
	}
	return s.EnrollStudents(olympiadID, ids, models.EnrollmentEnrolled)
}

// EnrollByGrade enrolls every eligible student of one grade at one branch.
func (s *EnrollmentService) EnrollByGrade(olympiadID, gradeID, branchID int) (models.BatchEnrollmentResult, error) {
	ids, err := s.eligibleStudents(`
		SELECT st.id
		FROM students st
		INNER JOIN classes c ON st.class_id = c.id
		INNER JOIN grades g ON c.grade_id = g.id
		INNER JOIN school_years sy ON c.school_year_id = sy.id
		WHERE g.id = ? AND g.branch_id = ? AND st.situation = 'Matriculado' AND sy.status = 'active'`,
		gradeID, branchID)
	if err != nil {
		return models.BatchEnrollmentResult{}, err
	}
	return s.EnrollStudents(olympiadID, ids, models.EnrollmentEnrolled)
}

func (s *EnrollmentService) eligibleStudents(query string, args ...interface{}) ([]int, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query eligible students")
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan student id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteBatch removes the listed enrollments and returns how many rows
// actually existed. Missing ids are not an error.
func (s *EnrollmentService) DeleteBatch(ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	deleted := 0
	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "begin delete transaction")
	}
	defer tx.Rollback()
	for _, id := range ids {
		res, err := tx.Exec("DELETE FROM enrollments WHERE id = ?", id)
		if err != nil {
			return 0, errors.Wrapf(err, "delete enrollment %d", id)
		}
		n, _ := res.RowsAffected()
		deleted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit delete transaction")
	}
	return deleted, nil
}

// Summary counts the olympiad's enrollments by status.
func (s *EnrollmentService) Summary(olympiadID int) (models.EnrollmentSummary, error) {
	var sum models.EnrollmentSummary
	rows, err := s.db.Query(
		"SELECT status, COUNT(*) FROM enrollments WHERE olympiad_id = ? GROUP BY status",
		olympiadID)
	if err != nil {
		return sum, errors.Wrap(err, "query enrollment summary")
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return sum, errors.Wrap(err, "scan summary row")
		}
		sum.Total += count
		switch status {
		case models.EnrollmentEnrolled:
			sum.Enrolled = count
		case models.EnrollmentConfirmed:
			sum.Confirmed = count
		case models.EnrollmentPresent:
			sum.Present = count
		case models.EnrollmentAbsent:
			sum.Absent = count
		case models.EnrollmentCancelled:
			sum.Cancelled = count
		}
	}
	return sum, rows.Err()
}
