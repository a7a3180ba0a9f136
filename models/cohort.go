package models

type Branch struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

type SchoolYear struct {
	ID     int    `json:"id"`
	Year   int    `json:"year"`
	Status string `json:"status"`
}

type Grade struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	BranchID   int    `json:"branch_id"`
	BranchName string `json:"branch_name,omitempty"`
}

type Class struct {
	ID           int    `json:"id"`
	Code         string `json:"code,omitempty"`
	Name         string `json:"name"`
	GradeID      int    `json:"grade_id"`
	GradeName    string `json:"grade_name,omitempty"`
	SchoolYearID int    `json:"school_year_id"`
	SchoolYear   int    `json:"school_year,omitempty"`
}
