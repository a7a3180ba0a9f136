package services

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"olympiad-api/models"
)

// ResultService owns batch result entry. Like batch enrollment, one bad row
// is recorded and skipped without aborting its siblings.
type ResultService struct {
	db *sql.DB
}

func NewResultService(db *sql.DB) *ResultService {
	return &ResultService{db: db}
}

// ResultEntry is one row of a batch result submission.
type ResultEntry struct {
	EnrollmentID int     `json:"enrollment_id" validate:"required,gt=0"`
	Score        float64 `json:"score" validate:"gte=0"`
	MedalTierID  int     `json:"medal_tier_id"`
	Notes        string  `json:"notes"`
}

// CreateBatch inserts every entry inside one transaction, recording per-item
// failures. The envelope succeeds as long as the transaction commits.
func (s *ResultService) CreateBatch(entries []ResultEntry) (models.BatchResultOutcome, error) {
	outcome := models.BatchResultOutcome{InsertedIDs: []int{}, Items: []models.BatchResultItem{}}

	tx, err := s.db.Begin()
	if err != nil {
		return outcome, errors.Wrap(err, "begin result transaction")
	}
	defer tx.Rollback()

	for _, entry := range entries {
		var enrollmentExists int
		err := tx.QueryRow("SELECT id FROM enrollments WHERE id = ?", entry.EnrollmentID).Scan(&enrollmentExists)
		if err == sql.ErrNoRows {
			outcome.Failed++
			outcome.Items = append(outcome.Items, models.BatchResultItem{
				EnrollmentID: entry.EnrollmentID, Error: "enrollment not found",
			})
			continue
		}
		if err != nil {
			return outcome, errors.Wrap(err, "check enrollment")
		}

		var medalTier interface{}
		if entry.MedalTierID != 0 {
			medalTier = entry.MedalTierID
		}
		res, err := tx.Exec(
			"INSERT INTO results (enrollment_id, score, medal_tier_id, notes) VALUES (?, ?, ?, ?)",
			entry.EnrollmentID, entry.Score, medalTier, entry.Notes)
		if err != nil {
			outcome.Failed++
			outcome.Items = append(outcome.Items, models.BatchResultItem{
				EnrollmentID: entry.EnrollmentID, Error: err.Error(),
			})
			continue
		}
		id, _ := res.LastInsertId()
		outcome.Inserted++
		outcome.InsertedIDs = append(outcome.InsertedIDs, int(id))
		outcome.Items = append(outcome.Items, models.BatchResultItem{
			EnrollmentID: entry.EnrollmentID, ResultID: int(id),
		})
	}

	if err := tx.Commit(); err != nil {
		return outcome, errors.Wrap(err, "commit result transaction")
	}

	log.WithFields(log.Fields{"inserted": outcome.Inserted, "failed": outcome.Failed}).Info("batch results entered")
	return outcome, nil
}
