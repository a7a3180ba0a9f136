package services

import (
	"database/sql"
	"testing"
)

func TestComputeClassificationsAssignsContiguousRanks(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBMEP")

	scores := []float64{72.5, 91, 55, 83, 91.5}
	for i, score := range scores {
		studentID := seedStudent(t, db, "Student "+string(rune('A'+i)), "RA"+string(rune('A'+i)), classID)
		enrollmentID := seedEnrollment(t, db, olympiadID, studentID)
		seedResult(t, db, enrollmentID, score, 0)
	}

	processed, err := NewRankingService(db).ComputeClassifications(olympiadID)
	if err != nil {
		t.Fatalf("ComputeClassifications: %v", err)
	}
	if processed != len(scores) {
		t.Fatalf("processed = %d, want %d", processed, len(scores))
	}

	rows, err := db.Query(`
		SELECT r.rank_position, r.score FROM results r
		INNER JOIN enrollments e ON r.enrollment_id = e.id
		WHERE e.olympiad_id = ? ORDER BY r.rank_position`, olympiadID)
	if err != nil {
		t.Fatalf("query ranks: %v", err)
	}
	defer rows.Close()

	seen := map[int]bool{}
	prevScore := 1e9
	n := 0
	for rows.Next() {
		var rank int
		var score float64
		if err := rows.Scan(&rank, &score); err != nil {
			t.Fatalf("scan: %v", err)
		}
		n++
		if rank != n {
			t.Errorf("rank %d at position %d, want contiguous 1..N", rank, n)
		}
		if seen[rank] {
			t.Errorf("duplicate rank %d", rank)
		}
		seen[rank] = true
		if score > prevScore {
			t.Errorf("score %v out of order at rank %d", score, rank)
		}
		prevScore = score
	}
	if n != len(scores) {
		t.Fatalf("ranked %d results, want %d", n, len(scores))
	}
}

// Tie-break rule under test: score descending, then student name ascending,
// then result id ascending.
func TestComputeClassificationsTieBreak(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBMEP")

	// Insertion order: Carla 80, Bruno 95, Ana 95, Diego 60.
	students := []struct {
		name  string
		score float64
	}{
		{"Carla", 80},
		{"Bruno", 95},
		{"Ana", 95},
		{"Diego", 60},
	}
	resultIDs := map[string]int{}
	for i, s := range students {
		studentID := seedStudent(t, db, s.name, "RA0"+string(rune('1'+i)), classID)
		enrollmentID := seedEnrollment(t, db, olympiadID, studentID)
		resultIDs[s.name] = seedResult(t, db, enrollmentID, s.score, 0)
	}

	if _, err := NewRankingService(db).ComputeClassifications(olympiadID); err != nil {
		t.Fatalf("ComputeClassifications: %v", err)
	}

	wantRanks := map[string]int{"Ana": 1, "Bruno": 2, "Carla": 3, "Diego": 4}
	for name, want := range wantRanks {
		var got int
		if err := db.QueryRow("SELECT rank_position FROM results WHERE id = ?", resultIDs[name]).Scan(&got); err != nil {
			t.Fatalf("read rank for %s: %v", name, err)
		}
		if got != want {
			t.Errorf("rank(%s) = %d, want %d", name, got, want)
		}
	}
}

func TestComputeClassificationsIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBMEP")

	for i, score := range []float64{50, 50, 70} {
		studentID := seedStudent(t, db, "Student "+string(rune('A'+i)), "RB"+string(rune('A'+i)), classID)
		enrollmentID := seedEnrollment(t, db, olympiadID, studentID)
		seedResult(t, db, enrollmentID, score, 0)
	}

	svc := NewRankingService(db)
	if _, err := svc.ComputeClassifications(olympiadID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := readRanks(t, db, olympiadID)
	if _, err := svc.ComputeClassifications(olympiadID); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := readRanks(t, db, olympiadID)

	if len(first) != len(second) {
		t.Fatalf("rank set size changed: %d vs %d", len(first), len(second))
	}
	for id, rank := range first {
		if second[id] != rank {
			t.Errorf("result %d moved from rank %d to %d on recomputation", id, rank, second[id])
		}
	}
}

func readRanks(t *testing.T, db *sql.DB, olympiadID int) map[int]int {
	t.Helper()
	rows, err := db.Query(`
		SELECT r.id, r.rank_position FROM results r
		INNER JOIN enrollments e ON r.enrollment_id = e.id
		WHERE e.olympiad_id = ?`, olympiadID)
	if err != nil {
		t.Fatalf("read ranks: %v", err)
	}
	defer rows.Close()

	ranks := map[int]int{}
	for rows.Next() {
		var id, rank int
		if err := rows.Scan(&id, &rank); err != nil {
			t.Fatalf("scan rank: %v", err)
		}
		ranks[id] = rank
	}
	return ranks
}

func TestRankingGeneralPositionsAndTieOrder(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBMEP")

	for _, s := range []struct {
		name  string
		score float64
	}{
		{"Zilda", 88},
		{"Abel", 88},
		{"Mara", 93},
	} {
		studentID := seedStudent(t, db, s.name, "RC-"+s.name, classID)
		enrollmentID := seedEnrollment(t, db, olympiadID, studentID)
		seedResult(t, db, enrollmentID, s.score, 0)
	}

	ranking, err := NewRankingService(db).RankingGeneral(olympiadID)
	if err != nil {
		t.Fatalf("RankingGeneral: %v", err)
	}
	wantOrder := []string{"Mara", "Abel", "Zilda"}
	if len(ranking) != len(wantOrder) {
		t.Fatalf("got %d rows, want %d", len(ranking), len(wantOrder))
	}
	for i, row := range ranking {
		if row.Position != i+1 {
			t.Errorf("row %d position = %d, want %d", i, row.Position, i+1)
		}
		if row.StudentName != wantOrder[i] {
			t.Errorf("row %d student = %q, want %q", i, row.StudentName, wantOrder[i])
		}
	}
}

func TestRankingBySeriesFiltersCohort(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBMEP")

	// Second grade with its own class on the same branch.
	mustExec(t, db, "INSERT INTO grades (name, branch_id) VALUES ('8º Ano', 1)")
	mustExec(t, db, "INSERT INTO classes (code, name, grade_id, school_year_id) VALUES ('8A-2026', '8A', 2, 1)")
	otherClassID := 2

	inGrade := seedStudent(t, db, "Nona", "RD01", classID)
	outGrade := seedStudent(t, db, "Oitava", "RD02", otherClassID)
	seedResult(t, db, seedEnrollment(t, db, olympiadID, inGrade), 70, 0)
	seedResult(t, db, seedEnrollment(t, db, olympiadID, outGrade), 99, 0)

	ranking, err := NewRankingService(db).RankingBySeries(olympiadID, 1)
	if err != nil {
		t.Fatalf("RankingBySeries: %v", err)
	}
	if len(ranking) != 1 {
		t.Fatalf("got %d rows, want 1", len(ranking))
	}
	if ranking[0].StudentName != "Nona" || ranking[0].Position != 1 {
		t.Errorf("got %+v, want Nona at position 1", ranking[0])
	}
}

func TestMedalistsOrderedByTierThenScore(t *testing.T) {
	db := openTestDB(t)
	classID := seedCohort(t, db)
	olympiadID := seedOlympiad(t, db, "OBMEP")
	seedMedalTiers(t, db)

	const (
		gold   = 1
		silver = 2
		bronze = 3
	)
	// Tiers {Bronze, Gold, Silver, Gold} with arbitrary scores, plus one
	// result without a medal that must not appear.
	entries := []struct {
		name  string
		score float64
		tier  int
	}{
		{"Bia", 60, bronze},
		{"Gil", 85, gold},
		{"Sol", 90, silver},
		{"Guto", 95, gold},
		{"Nulo", 99, 0},
	}
	for i, e := range entries {
		studentID := seedStudent(t, db, e.name, "RE0"+string(rune('1'+i)), classID)
		enrollmentID := seedEnrollment(t, db, olympiadID, studentID)
		seedResult(t, db, enrollmentID, e.score, e.tier)
	}

	medalists, err := NewRankingService(db).Medalists(olympiadID)
	if err != nil {
		t.Fatalf("Medalists: %v", err)
	}
	wantOrder := []string{"Guto", "Gil", "Sol", "Bia"}
	if len(medalists) != len(wantOrder) {
		t.Fatalf("got %d medalists, want %d", len(medalists), len(wantOrder))
	}
	for i, m := range medalists {
		if m.StudentName != wantOrder[i] {
			t.Errorf("medalist %d = %q, want %q", i, m.StudentName, wantOrder[i])
		}
	}
}

func TestMedalistsEmptyIsNotAnError(t *testing.T) {
	db := openTestDB(t)
	olympiadID := seedOlympiad(t, db, "OBMEP")

	medalists, err := NewRankingService(db).Medalists(olympiadID)
	if err != nil {
		t.Fatalf("Medalists: %v", err)
	}
	if len(medalists) != 0 {
		t.Fatalf("got %d medalists, want 0", len(medalists))
	}
}
