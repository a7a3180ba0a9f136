package services

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"olympiad-api/models"
)

// RankingService computes and reads classifications over the results of one
// olympiad. Every query orders by the canonical tie-break: score descending,
// student name ascending, result id ascending. The write path and the read
// paths therefore always agree on the relative order of tied scores.
type RankingService struct {
	db *sql.DB
}

func NewRankingService(db *sql.DB) *RankingService {
	return &RankingService{db: db}
}

const rankingOrder = " ORDER BY r.score DESC, p.name ASC, r.id ASC"

// ComputeClassifications assigns ranks 1..N to every result of the olympiad
// inside a single transaction: concurrent readers observe either the old
// rank set or the new one, never a partial mix. Recomputation over a stable
// score set is idempotent. Returns the number of results processed.
func (s *RankingService) ComputeClassifications(olympiadID int) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "begin classification transaction")
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT r.id
		FROM results r
		INNER JOIN enrollments e ON r.enrollment_id = e.id
		INNER JOIN students st ON e.student_id = st.id
		INNER JOIN persons p ON st.person_id = p.id
		WHERE e.olympiad_id = ?`+rankingOrder,
		olympiadID)
	if err != nil {
		return 0, errors.Wrap(err, "load results for classification")
	}

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, errors.Wrap(err, "scan result id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, errors.Wrap(err, "iterate results")
	}
	rows.Close()

	for i, id := range ids {
		if _, err := tx.Exec("UPDATE results SET rank_position = ? WHERE id = ?", i+1, id); err != nil {
			return 0, errors.Wrapf(err, "write rank for result %d", id)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit classification transaction")
	}

	log.WithFields(log.Fields{"olympiad_id": olympiadID, "processed": len(ids)}).Info("classifications computed")
	return len(ids), nil
}

// RankingGeneral returns the full ranking of one olympiad. Positions are a
// plain running index over the sorted rows, computed here rather than by any
// session-scoped counter in the database.
func (s *RankingService) RankingGeneral(olympiadID int) ([]models.RankingRow, error) {
	return s.ranking(olympiadID, 0)
}

// RankingBySeries restricts the ranking to students of one grade. Positions
// restart at 1 within the filtered cohort.
func (s *RankingService) RankingBySeries(olympiadID, gradeID int) ([]models.RankingRow, error) {
	return s.ranking(olympiadID, gradeID)
}

func (s *RankingService) ranking(olympiadID, gradeID int) ([]models.RankingRow, error) {
	query := `
		SELECT p.name, st.ra, r.score, c.name, g.name, b.name, mt.name
		FROM results r
		INNER JOIN enrollments e ON r.enrollment_id = e.id
		INNER JOIN students st ON e.student_id = st.id
		INNER JOIN persons p ON st.person_id = p.id
		LEFT JOIN classes c ON st.class_id = c.id
		LEFT JOIN grades g ON c.grade_id = g.id
		LEFT JOIN branches b ON g.branch_id = b.id
		LEFT JOIN medal_tiers mt ON r.medal_tier_id = mt.id
		WHERE e.olympiad_id = ?`
	args := []interface{}{olympiadID}
	if gradeID != 0 {
		query += " AND g.id = ?"
		args = append(args, gradeID)
	}
	query += rankingOrder

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query ranking")
	}
	defer rows.Close()

	ranking := []models.RankingRow{}
	for rows.Next() {
		var row models.RankingRow
		var class, grade, branch, medal sql.NullString
		if err := rows.Scan(&row.StudentName, &row.StudentRA, &row.Score, &class, &grade, &branch, &medal); err != nil {
			return nil, errors.Wrap(err, "scan ranking row")
		}
		row.Position = len(ranking) + 1
		row.ClassName = class.String
		row.GradeName = grade.String
		row.BranchName = branch.String
		row.MedalTier = medal.String
		ranking = append(ranking, row)
	}
	return ranking, rows.Err()
}

// Medalists lists the results carrying a medal tier, ordered by tier
// priority (Gold, Silver, Bronze, then the rest) and score descending.
// An empty list is a valid outcome, not an error.
func (s *RankingService) Medalists(olympiadID int) ([]models.MedalistRow, error) {
	rows, err := s.db.Query(`
		SELECT p.name, st.ra, r.score, mt.name, g.name, b.name
		FROM results r
		INNER JOIN enrollments e ON r.enrollment_id = e.id
		INNER JOIN students st ON e.student_id = st.id
		INNER JOIN persons p ON st.person_id = p.id
		INNER JOIN medal_tiers mt ON r.medal_tier_id = mt.id
		LEFT JOIN classes c ON st.class_id = c.id
		LEFT JOIN grades g ON c.grade_id = g.id
		LEFT JOIN branches b ON g.branch_id = b.id
		WHERE e.olympiad_id = ? AND r.medal_tier_id IS NOT NULL
		ORDER BY mt.priority ASC, r.score DESC, p.name ASC`,
		olympiadID)
	if err != nil {
		return nil, errors.Wrap(err, "query medalists")
	}
	defer rows.Close()

	medalists := []models.MedalistRow{}
	for rows.Next() {
		var row models.MedalistRow
		var grade, branch sql.NullString
		if err := rows.Scan(&row.StudentName, &row.StudentRA, &row.Score, &row.MedalTier, &grade, &branch); err != nil {
			return nil, errors.Wrap(err, "scan medalist row")
		}
		row.GradeName = grade.String
		row.BranchName = branch.String
		medalists = append(medalists, row)
	}
	return medalists, rows.Err()
}
