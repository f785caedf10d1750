package bot

import (
	"fmt"
	"strings"

	"kosyak-bot/core/store"
)

const dateLayout = "2006-01-02 15:04:05"

func priorityLabel(p int) string {
	if p == store.PriorityCritical {
		return "критический"
	}
	return "обычный"
}

func priorityEmoji(p int) string {
	if p == store.PriorityCritical {
		return "‼️"
	}
	return "❗"
}

func formatMistakeAdded(id int64, user, description string, priority int) string {
	return fmt.Sprintf(
		"%s Косяк #%d добавлен\nСотрудник: %s\nПриоритет: %s\nОписание: %s",
		priorityEmoji(priority), id, user, priorityLabel(priority), description)
}

func formatMistakeDetails(m *store.Mistake) string {
	status := "❌ Активен"
	if m.Closed {
		status = "✅ Закрыт"
	}
	priority := "❗ Обычный"
	if m.Priority == store.PriorityCritical {
		priority = "‼️ Критический"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "#%d\n", m.ID)
	fmt.Fprintf(&b, "👤 Сотрудник: %s\n", m.User)
	fmt.Fprintf(&b, "📝 Описание: %s\n", m.Description)
	fmt.Fprintf(&b, "🔍 Приоритет: %s\n", priority)
	fmt.Fprintf(&b, "📅 Дата: %s\n", m.Date.Format(dateLayout))
	fmt.Fprintf(&b, "📊 Статус: %s", status)
	if len(m.Comments) > 0 {
		fmt.Fprintf(&b, "\n💬 Комментарии: %s", strings.Join(m.Comments, " | "))
	}
	return b.String()
}

func formatRoster(users []string) string {
	if len(users) == 0 {
		return "📝 В базе данных пока нет сотрудников.\n\nДобавить сотрудника: /add_user Имя Фамилия"
	}
	var b strings.Builder
	b.WriteString("*Список сотрудников:*\n\n")
	for _, u := range users {
		fmt.Fprintf(&b, "👤 %s\n", u)
	}
	return b.String()
}

func formatUnknownStaff(name string, available []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ Сотрудник %s не найден.\nДоступные сотрудники:\n", name)
	lines := make([]string, 0, len(available))
	for _, u := range available {
		lines = append(lines, "• "+u)
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func formatUserStats(stats []store.UserStat) string {
	if len(stats) == 0 {
		return "*Статистика по сотрудникам:*\nНет данных"
	}
	var b strings.Builder
	b.WriteString("*Статистика по сотрудникам:*\n\n")
	for _, st := range stats {
		closed := st.Total - st.Open
		fmt.Fprintf(&b, "*%s*:\n", st.User)
		fmt.Fprintf(&b, "Всего косяков: `%d`\n", st.Total)
		fmt.Fprintf(&b, "Активных: `%d`\n", st.Open)
		fmt.Fprintf(&b, "Закрытых: `%d`\n\n", closed)
	}
	return b.String()
}

func formatPriorityStats(stats []store.PriorityStat) string {
	normal, critical := 0, 0
	for _, st := range stats {
		switch st.Priority {
		case store.PriorityNormal:
			normal = st.Count
		case store.PriorityCritical:
			critical = st.Count
		}
	}
	return fmt.Sprintf(
		"*Статистика по приоритетам:*\n\n❗ Обычные: `%d`\n‼️ Критические: `%d`\n",
		normal, critical)
}

func formatStatusStats(st store.StatusStat) string {
	return fmt.Sprintf(
		"*Статистика по статусам:*\n\nАктивных: `%d`\nЗакрытых: `%d`\nВсего: `%d`\n",
		st.Open, st.Closed, st.Open+st.Closed)
}

func formatPeriodReport(title string, st *store.PeriodStat) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Отчет %s:*\n\n", title)
	fmt.Fprintf(&b, "Всего косяков: `%d`\n", st.Total)
	fmt.Fprintf(&b, "Активных: `%d`\n", st.Open)
	fmt.Fprintf(&b, "Закрытых: `%d`\n\n", st.Closed)
	b.WriteString("*По приоритетам:*\n")
	fmt.Fprintf(&b, "❗ Обычные: `%d`\n", st.Normal)
	fmt.Fprintf(&b, "‼️ Критические: `%d`\n", st.Critical)
	b.WriteString("*Анти-топ сотрудников:*\n")
	medals := []string{"🥇", "🥈", "🥉"}
	for i, top := range st.Top {
		medal := "👎"
		if i < len(medals) {
			medal = medals[i]
		}
		fmt.Fprintf(&b, "%s %s: `%d` косяков\n", medal, top.User, top.Count)
	}
	return b.String()
}

func formatUserMonthlyStats(user string, stats []store.MonthlyUserStat) string {
	if len(stats) == 0 {
		return fmt.Sprintf("Статистика для %s: косяков нет", user)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Статистика для %s:\n", user)
	for _, st := range stats {
		fmt.Fprintf(&b, "%s: Активных: %d, Исправленных: %d, Всего: %d\n",
			st.Month, st.Open, st.Closed, st.Total)
	}
	return b.String()
}

func formatUserMistakes(user string, mistakes []store.Mistake) string {
	if len(mistakes) == 0 {
		return fmt.Sprintf("У сотрудника %s нет косяков", user)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Косяки сотрудника %s:\n\n", user)
	for i := range mistakes {
		b.WriteString(formatMistakeDetails(&mistakes[i]))
		b.WriteString("\n")
	}
	return b.String()
}

func formatDateMistakes(dateStr string, mistakes []store.Mistake) string {
	if len(mistakes) == 0 {
		return fmt.Sprintf("За %s косяков не найдено", dateStr)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Найдено косяков за %s:\n\n", dateStr)
	for i := range mistakes {
		b.WriteString(formatMistakeDetails(&mistakes[i]))
		b.WriteString("\n")
	}
	return b.String()
}

func formatSearchResults(mistakes []store.Mistake) string {
	if len(mistakes) == 0 {
		return "Косяков не найдено"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Найдено косяков: %d\n\n", len(mistakes))
	for _, m := range mistakes {
		status := "❌"
		if m.Closed {
			status = "✅"
		}
		fmt.Fprintf(&b, "#%d %s - %s (%s) %s\n",
			m.ID, m.User, m.Description, m.Date.Format(dateLayout), status)
	}
	if len(mistakes) == store.SearchLimit {
		b.WriteString("\nПоказаны первые 50 результатов, уточните запрос")
	}
	return b.String()
}
