package models

type Student struct {
	ID         int    `json:"id"`
	RA         string `json:"ra"`
	Situation  string `json:"situation"`
	PersonID   int    `json:"person_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`
	ClassID    int    `json:"class_id,omitempty"`
	ClassName  string `json:"class_name,omitempty"`
	GradeID    int    `json:"grade_id,omitempty"`
	GradeName  string `json:"grade_name,omitempty"`
	BranchID   int    `json:"branch_id,omitempty"`
	BranchName string `json:"branch_name,omitempty"`
	SchoolYear int    `json:"school_year,omitempty"`
}

// StudentPage is a paginated student listing.
type StudentPage struct {
	Students []Student `json:"students"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}
