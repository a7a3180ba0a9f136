package services

import "testing"

// Partial-failure law: K students, M already enrolled -> K-M new rows,
// M "already enrolled" skips, envelope success.
func TestEnrollStudentsSkipsAlreadyEnrolled(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBF")

	var ids []int
	for i := 0; i < 5; i++ {
		ids = append(ids, seedStudent(t, db, "Student "+string(rune('A'+i)), "RF0"+string(rune('1'+i)), classID))
	}
	seedEnrollment(t, db, olympiadID, ids[0])
	seedEnrollment(t, db, olympiadID, ids[3])

	outcome, err := NewEnrollmentService(db).EnrollStudents(olympiadID, ids, "")
	if err != nil {
		t.Fatalf("EnrollStudents: %v", err)
	}
	if outcome.Enrolled != 3 {
		t.Errorf("enrolled = %d, want 3", outcome.Enrolled)
	}
	if outcome.AlreadyEnrolled != 2 {
		t.Errorf("already_enrolled = %d, want 2", outcome.AlreadyEnrolled)
	}
	if outcome.Failed != 0 {
		t.Errorf("failed = %d, want 0", outcome.Failed)
	}
	for _, item := range outcome.Items {
		if item.Skipped && item.Reason != "already enrolled" {
			t.Errorf("skip reason = %q, want %q", item.Reason, "already enrolled")
		}
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM enrollments WHERE olympiad_id = ?", olympiadID).Scan(&total); err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	if total != 5 {
		t.Errorf("total enrollments = %d, want 5", total)
	}
}

func TestCreateRejectsDuplicateEnrollment(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBF")
	studentID := seedStudent(t, db, "Ana", "RG01", classID)

	svc := NewEnrollmentService(db)
	if _, err := svc.Create(olympiadID, studentID, "", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(olympiadID, studentID, "", ""); err != ErrConflict {
		t.Fatalf("second create: got %v, want ErrConflict", err)
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM enrollments").Scan(&total); err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 1 {
		t.Errorf("enrollments = %d, want 1", total)
	}
}

func TestEnrollByClassOnlyEligibleStudents(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBF")

	seedStudent(t, db, "Ativa", "RH01", classID)
	transferred := seedStudent(t, db, "Saiu", "RH02", classID)
	mustExec(t, db, "UPDATE students SET situation = 'Transferido' WHERE id = ?", transferred)

	outcome, err := NewEnrollmentService(db).EnrollByClass(olympiadID, classID)
	if err != nil {
		t.Fatalf("EnrollByClass: %v", err)
	}
	if outcome.Enrolled != 1 {
		t.Errorf("enrolled = %d, want 1 (only Matriculado students)", outcome.Enrolled)
	}
}

func TestDeleteBatchIgnoresMissingIDs(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBF")

	e1 := seedEnrollment(t, db, olympiadID, seedStudent(t, db, "Um", "RI01", classID))
	e2 := seedEnrollment(t, db, olympiadID, seedStudent(t, db, "Dois", "RI02", classID))

	deleted, err := NewEnrollmentService(db).DeleteBatch([]int{e1, e2, 9999})
	if err != nil {
		t.Fatalf("DeleteBatch: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
}

func TestSummaryCountsByStatus(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBF")

	e1 := seedEnrollment(t, db, olympiadID, seedStudent(t, db, "Um", "RJ01", classID))
	seedEnrollment(t, db, olympiadID, seedStudent(t, db, "Dois", "RJ02", classID))
	mustExec(t, db, "UPDATE enrollments SET status = 'present' WHERE id = ?", e1)

	sum, err := NewEnrollmentService(db).Summary(olympiadID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 2 || sum.Present != 1 || sum.Enrolled != 1 {
		t.Errorf("summary = %+v, want total 2, present 1, enrolled 1", sum)
	}
}
