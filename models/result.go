package models

import "time"

type Result struct {
	ID           int       `json:"id"`
	EnrollmentID int       `json:"enrollment_id"`
	OlympiadID   int       `json:"olympiad_id,omitempty"`
	OlympiadName string    `json:"olympiad_name,omitempty"`
	StudentID    int       `json:"student_id,omitempty"`
	StudentName  string    `json:"student_name,omitempty"`
	StudentRA    string    `json:"student_ra,omitempty"`
	Score        float64   `json:"score"`
	MedalTierID  int       `json:"medal_tier_id,omitempty"`
	MedalTier    string    `json:"medal_tier,omitempty"`
	Rank         int       `json:"rank,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ClassName    string    `json:"class_name,omitempty"`
	GradeName    string    `json:"grade_name,omitempty"`
	BranchName   string    `json:"branch_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ResultPatch struct {
	Score       *float64 `json:"score" validate:"omitempty,gte=0"`
	MedalTierID *int     `json:"medal_tier_id"`
	Notes       *string  `json:"notes"`
}

func (p ResultPatch) Apply(r *Result) {
	if p.Score != nil {
		r.Score = *p.Score
	}
	if p.MedalTierID != nil {
		r.MedalTierID = *p.MedalTierID
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
}

// RankingRow is one position of a computed ranking view.
type RankingRow struct {
	Position    int     `json:"position"`
	StudentName string  `json:"student_name"`
	StudentRA   string  `json:"student_ra"`
	Score       float64 `json:"score"`
	ClassName   string  `json:"class_name,omitempty"`
	GradeName   string  `json:"grade_name,omitempty"`
	BranchName  string  `json:"branch_name,omitempty"`
	MedalTier   string  `json:"medal_tier,omitempty"`
}

// MedalistRow is one entry of the medalist listing.
type MedalistRow struct {
	StudentName string  `json:"student_name"`
	StudentRA   string  `json:"student_ra"`
	Score       float64 `json:"score"`
	MedalTier   string  `json:"medal_tier"`
	GradeName   string  `json:"grade_name,omitempty"`
	BranchName  string  `json:"branch_name,omitempty"`
}

// BatchResultItem records the per-row outcome of a bulk result entry.
type BatchResultItem struct {
	EnrollmentID int    `json:"enrollment_id"`
	ResultID     int    `json:"result_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

type BatchResultOutcome struct {
	Inserted    int               `json:"inserted"`
	Failed      int               `json:"failed"`
	InsertedIDs []int             `json:"inserted_ids"`
	Items       []BatchResultItem `json:"items"`
}
