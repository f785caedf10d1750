package bot

import (
	"strings"
	"testing"
	"time"

	"kosyak-bot/core/store"
)

func TestFormatMistakeDetails(t *testing.T) {
	m := &store.Mistake{
		ID:          5,
		User:        "Иван Петров",
		Description: "опоздал",
		Date:        time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		Priority:    store.PriorityCritical,
		Closed:      true,
		Comments:    []string{"обсудили", "закрыто"},
	}
	got := formatMistakeDetails(m)
	for _, want := range []string{"#5", "Иван Петров", "‼️ Критический", "✅ Закрыт", "обсудили | закрыто"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}

	m.Closed = false
	m.Priority = store.PriorityNormal
	m.Comments = nil
	got = formatMistakeDetails(m)
	if !strings.Contains(got, "❗ Обычный") || !strings.Contains(got, "❌ Активен") {
		t.Fatalf("open normal mistake formatted wrong:\n%s", got)
	}
	if strings.Contains(got, "Комментарии") {
		t.Fatalf("no comments line expected:\n%s", got)
	}
}

func TestFormatPeriodReportMedals(t *testing.T) {
	st := &store.PeriodStat{
		Total:    10,
		Open:     4,
		Closed:   6,
		Normal:   7,
		Critical: 3,
		Top: []store.TopUser{
			{User: "А", Count: 4},
			{User: "Б", Count: 3},
			{User: "В", Count: 2},
			{User: "Г", Count: 1},
		},
	}
	got := formatPeriodReport("за неделю", st)
	for _, want := range []string{"🥇 А", "🥈 Б", "🥉 В", "👎 Г", "Всего косяков: `10`"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatSearchResultsCapNotice(t *testing.T) {
	if got := formatSearchResults(nil); got != "Косяков не найдено" {
		t.Fatalf("empty result text wrong: %q", got)
	}

	full := make([]store.Mistake, store.SearchLimit)
	for i := range full {
		full[i] = store.Mistake{ID: int64(i + 1), User: "Иван Петров", Description: "к"}
	}
	got := formatSearchResults(full)
	if !strings.Contains(got, "Показаны первые 50") {
		t.Fatalf("cap notice missing:\n%s", got)
	}
	got = formatSearchResults(full[:3])
	if strings.Contains(got, "Показаны первые 50") {
		t.Fatalf("cap notice must appear only at the limit:\n%s", got)
	}
}

func TestFormatUnknownStaffListsRoster(t *testing.T) {
	got := formatUnknownStaff("Борис Козлов", []string{"Анна Иванова", "Иван Петров"})
	if !strings.Contains(got, "Борис Козлов не найден") {
		t.Fatalf("name missing:\n%s", got)
	}
	if !strings.Contains(got, "• Анна Иванова") || !strings.Contains(got, "• Иван Петров") {
		t.Fatalf("roster missing:\n%s", got)
	}
}
