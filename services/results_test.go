package services

import "testing"

func TestCreateBatchRecordsPerItemFailures(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBA")

	e1 := seedEnrollment(t, db, olympiadID, seedStudent(t, db, "Ana", "RK01", classID))
	e2 := seedEnrollment(t, db, olympiadID, seedStudent(t, db, "Bia", "RK02", classID))

	entries := []ResultEntry{
		{EnrollmentID: e1, Score: 88},
		{EnrollmentID: 9999, Score: 70},
		{EnrollmentID: e2, Score: 91.5},
	}

	outcome, err := NewResultService(db).CreateBatch(entries)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if outcome.Inserted != 2 {
		t.Errorf("inserted = %d, want 2", outcome.Inserted)
	}
	if outcome.Failed != 1 {
		t.Errorf("failed = %d, want 1", outcome.Failed)
	}
	if len(outcome.InsertedIDs) != 2 {
		t.Errorf("inserted ids = %v, want 2 entries", outcome.InsertedIDs)
	}
	if outcome.Items[1].Error != "enrollment not found" {
		t.Errorf("item error = %q, want %q", outcome.Items[1].Error, "enrollment not found")
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM results").Scan(&total); err != nil {
		t.Fatalf("count results: %v", err)
	}
	if total != 2 {
		t.Errorf("results = %d, want 2 (the bad row must not abort siblings)", total)
	}
}
