package models

import "time"

// Enrollment statuses.
const (
	EnrollmentEnrolled  = "enrolled"
	EnrollmentConfirmed = "confirmed"
	EnrollmentPresent   = "present"
	EnrollmentAbsent    = "absent"
	EnrollmentCancelled = "cancelled"
)

type Enrollment struct {
	ID           int       `json:"id"`
	OlympiadID   int       `json:"olympiad_id"`
	OlympiadName string    `json:"olympiad_name,omitempty"`
	StudentID    int       `json:"student_id"`
	StudentName  string    `json:"student_name,omitempty"`
	StudentRA    string    `json:"student_ra,omitempty"`
	GradeName    string    `json:"grade_name,omitempty"`
	ClassName    string    `json:"class_name,omitempty"`
	BranchName   string    `json:"branch_name,omitempty"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

// BatchEnrollmentItem records the per-student outcome of a bulk enrollment.
type BatchEnrollmentItem struct {
	StudentID    int    `json:"student_id"`
	EnrollmentID int    `json:"enrollment_id,omitempty"`
	Skipped      bool   `json:"skipped,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// BatchEnrollmentResult is the envelope-level outcome of a bulk enrollment.
// The batch itself always succeeds; failures are per item.
type BatchEnrollmentResult struct {
	Enrolled        int                   `json:"enrolled"`
	AlreadyEnrolled int                   `json:"already_enrolled"`
	Failed          int                   `json:"failed"`
	Items           []BatchEnrollmentItem `json:"items"`
}

// EnrollmentSummary counts enrollments of one olympiad by status.
type EnrollmentSummary struct {
	Total     int `json:"total"`
	Enrolled  int `json:"enrolled"`
	Confirmed int `json:"confirmed"`
	Present   int `json:"present"`
	Absent    int `json:"absent"`
	Cancelled int `json:"cancelled"`
}
