package store

import (
	"context"
	"fmt"
	"testing"

	"kosyak-bot/core/utils"
)

func TestUserStatsIncludesZeroMembers(t *testing.T) {
	db := setupTestDB(t)
	staff := NewStaffStore(db)
	mistakes := NewMistakesStore(db)
	stats := NewStatsStore(db)
	ctx := context.Background()
	mustAddStaff(t, staff, "Иван Петров", "Анна Иванова")

	id, _ := mistakes.AddMistake(ctx, "Иван Петров", "опоздал", PriorityNormal)
	_, _ = mistakes.AddMistake(ctx, "Иван Петров", "забыл", PriorityCritical)
	_ = mistakes.CloseMistake(ctx, id)

	got, err := stats.UserStats(ctx)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both staff members, got %v", got)
	}
	if got[0].User != "Иван Петров" || got[0].Total != 2 || got[0].Open != 1 {
		t.Fatalf("unexpected leader row: %+v", got[0])
	}
	if got[1].User != "Анна Иванова" || got[1].Total != 0 || got[1].Open != 0 {
		t.Fatalf("zero member must appear with zeroes: %+v", got[1])
	}
}

func TestStatusAndPriorityStats(t *testing.T) {
	db := setupTestDB(t)
	staff := NewStaffStore(db)
	mistakes := NewMistakesStore(db)
	stats := NewStatsStore(db)
	ctx := context.Background()
	mustAddStaff(t, staff, "Иван Петров")

	st, err := stats.StatusStats(ctx)
	if err != nil {
		t.Fatalf("status stats: %v", err)
	}
	if st.Open != 0 || st.Closed != 0 {
		t.Fatalf("empty store must report zeroes: %+v", st)
	}

	id, _ := mistakes.AddMistake(ctx, "Иван Петров", "а", PriorityNormal)
	_, _ = mistakes.AddMistake(ctx, "Иван Петров", "б", PriorityCritical)
	_ = mistakes.CloseMistake(ctx, id)

	st, err = stats.StatusStats(ctx)
	if err != nil {
		t.Fatalf("status stats: %v", err)
	}
	if st.Open != 1 || st.Closed != 1 {
		t.Fatalf("unexpected status stats: %+v", st)
	}

	prio, err := stats.PriorityStats(ctx)
	if err != nil {
		t.Fatalf("priority stats: %v", err)
	}
	counts := map[int]int{}
	for _, p := range prio {
		counts[p.Priority] = p.Count
	}
	if counts[PriorityNormal] != 1 || counts[PriorityCritical] != 1 {
		t.Fatalf("unexpected priority stats: %v", prio)
	}
}

func TestPeriodStatsTopFiveTieBreak(t *testing.T) {
	db := setupTestDB(t)
	staff := NewStaffStore(db)
	mistakes := NewMistakesStore(db)
	stats := NewStatsStore(db)
	ctx := context.Background()

	names := []string{"Анна Иванова", "Борис Козлов", "Вера Смирнова", "Глеб Орлов", "Дина Белова", "Егор Волков"}
	mustAddStaff(t, staff, names...)
	for i, name := range names {
		// Egor gets the most, the rest tie at one apiece.
		n := 1
		if i == len(names)-1 {
			n = 3
		}
		for j := 0; j < n; j++ {
			if _, err := mistakes.AddMistake(ctx, name, "косяк", PriorityNormal); err != nil {
				t.Fatalf("add: %v", err)
			}
		}
	}

	st, err := stats.PeriodStats(ctx, 7)
	if err != nil {
		t.Fatalf("period stats: %v", err)
	}
	if st.Total != 8 || st.Normal != 8 || st.Critical != 0 {
		t.Fatalf("unexpected totals: %+v", st)
	}
	if len(st.Top) != 5 {
		t.Fatalf("expected top 5, got %d", len(st.Top))
	}
	if st.Top[0].User != "Егор Волков" || st.Top[0].Count != 3 {
		t.Fatalf("leader wrong: %+v", st.Top[0])
	}
	// Tied entries fall back to name order.
	for i := 2; i < len(st.Top); i++ {
		if st.Top[i-1].Count == st.Top[i].Count && st.Top[i-1].User > st.Top[i].User {
			t.Fatalf("tie-break violated: %+v before %+v", st.Top[i-1], st.Top[i])
		}
	}

	all, err := stats.PeriodStats(ctx, 0)
	if err != nil {
		t.Fatalf("all-time stats: %v", err)
	}
	if all.Total != st.Total {
		t.Fatalf("all-time must cover everything: %+v vs %+v", all, st)
	}
	if all.Open+all.Closed != all.Total {
		t.Fatalf("status split must sum to total: %+v", all)
	}
}

func TestWeekAndMonthMistakes(t *testing.T) {
	db := setupTestDB(t)
	staff := NewStaffStore(db)
	mistakes := NewMistakesStore(db)
	stats := NewStatsStore(db)
	ctx := context.Background()
	mustAddStaff(t, staff, "Иван Петров")

	if _, err := mistakes.AddMistake(ctx, "Иван Петров", "сегодня", PriorityNormal); err != nil {
		t.Fatalf("add: %v", err)
	}
	now := utils.NowUTC()

	week, err := stats.WeekMistakes(ctx, now)
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if len(week) != 1 {
		t.Fatalf("expected this week's mistake, got %d", len(week))
	}
	week, err = stats.WeekMistakes(ctx, now.AddDate(0, 0, -14))
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if len(week) != 0 {
		t.Fatalf("two weeks ago must be empty, got %d", len(week))
	}

	month, err := stats.MonthMistakes(ctx, now.Year(), now.Month())
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if len(month) != 1 {
		t.Fatalf("expected this month's mistake, got %d", len(month))
	}
}

func TestUserMonthlyStats(t *testing.T) {
	db := setupTestDB(t)
	staff := NewStaffStore(db)
	mistakes := NewMistakesStore(db)
	stats := NewStatsStore(db)
	ctx := context.Background()
	mustAddStaff(t, staff, "Иван Петров")

	var first int64
	for i := 0; i < 3; i++ {
		id, err := mistakes.AddMistake(ctx, "Иван Петров", fmt.Sprintf("косяк %d", i), PriorityNormal)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if i == 0 {
			first = id
		}
	}
	if err := mistakes.CloseMistake(ctx, first); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Exercises strftime over timestamps the driver wrote itself.
	got, err := stats.UserMonthlyStats(ctx, "Иван Петров")
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if len(got) != 1 || got[0].Total != 3 || got[0].Open != 2 || got[0].Closed != 1 {
		t.Fatalf("unexpected monthly stats: %v", got)
	}
	if got[0].Month != utils.NowUTC().Format("2006-01") {
		t.Fatalf("month bucket wrong: %s", got[0].Month)
	}
}
