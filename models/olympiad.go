package models

import "time"

// Olympiad statuses. Transitions are explicit and unguarded: any status may
// be set to any other by an authorized user.
const (
	OlympiadPlanning         = "planning"
	OlympiadEnrollmentOpen   = "enrollment_open"
	OlympiadEnrollmentClosed = "enrollment_closed"
	OlympiadHeld             = "held"
	OlympiadCorrected        = "corrected"
	OlympiadFinalized        = "finalized"
	OlympiadCancelled        = "cancelled"
)

type Olympiad struct {
	ID                    int       `json:"id"`
	Name                  string    `json:"name"`
	Abbreviation          string    `json:"abbreviation,omitempty"`
	Year                  int       `json:"year"`
	Status                string    `json:"status"`
	ApplicationLocationID int       `json:"application_location_id,omitempty"`
	ApplicationLocation   string    `json:"application_location,omitempty"`
	PaymentTypeID         int       `json:"payment_type_id,omitempty"`
	PaymentType           string    `json:"payment_type,omitempty"`
	CorrectionTypeID      int       `json:"correction_type_id,omitempty"`
	CorrectionType        string    `json:"correction_type,omitempty"`
	ResponsibleUserID     int       `json:"responsible_user_id"`
	ResponsibleName       string    `json:"responsible_name,omitempty"`
	CostValue             float64   `json:"cost_value,omitempty"`
	EnrollmentDeadline    string    `json:"enrollment_deadline,omitempty"`
	ApplicationDate       string    `json:"application_date,omitempty"`
	CorrectionDate        string    `json:"correction_date,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

type OlympiadPatch struct {
	Name                  *string  `json:"name"`
	Abbreviation          *string  `json:"abbreviation"`
	Year                  *int     `json:"year" validate:"omitempty,gte=2000"`
	Status                *string  `json:"status" validate:"omitempty,oneof=planning enrollment_open enrollment_closed held corrected finalized cancelled"`
	ApplicationLocationID *int     `json:"application_location_id"`
	PaymentTypeID         *int     `json:"payment_type_id"`
	CorrectionTypeID      *int     `json:"correction_type_id"`
	ResponsibleUserID     *int     `json:"responsible_user_id"`
	CostValue             *float64 `json:"cost_value"`
	EnrollmentDeadline    *string  `json:"enrollment_deadline"`
	ApplicationDate       *string  `json:"application_date"`
	CorrectionDate        *string  `json:"correction_date"`
}

func (p OlympiadPatch) Apply(o *Olympiad) {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Abbreviation != nil {
		o.Abbreviation = *p.Abbreviation
	}
	if p.Year != nil {
		o.Year = *p.Year
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.ApplicationLocationID != nil {
		o.ApplicationLocationID = *p.ApplicationLocationID
	}
	if p.PaymentTypeID != nil {
		o.PaymentTypeID = *p.PaymentTypeID
	}
	if p.CorrectionTypeID != nil {
		o.CorrectionTypeID = *p.CorrectionTypeID
	}
	if p.ResponsibleUserID != nil {
		o.ResponsibleUserID = *p.ResponsibleUserID
	}
	if p.CostValue != nil {
		o.CostValue = *p.CostValue
	}
	if p.EnrollmentDeadline != nil {
		o.EnrollmentDeadline = *p.EnrollmentDeadline
	}
	if p.ApplicationDate != nil {
		o.ApplicationDate = *p.ApplicationDate
	}
	if p.CorrectionDate != nil {
		o.CorrectionDate = *p.CorrectionDate
	}
}
