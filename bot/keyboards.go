package bot

import "kosyak-bot/core/telegram"

const (
	menuStaff     = "👥 Сотрудники"
	menuStats     = "📊 Статистика"
	menuReports   = "📑 Отчеты"
	menuSearch    = "🔍 Поиск"
	menuStaffAlt  = "Сотрудники"
	menuSearchAlt = "Поиск"
)

func adminKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: menuStaff}, {Text: menuStats}},
			{{Text: menuReports}, {Text: menuSearch}},
		},
		ResizeKeyboard: true,
	}
}

func statsKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "По сотрудникам", CallbackData: "stats_type:users"}},
			{{Text: "По приоритетам", CallbackData: "stats_type:priority"}},
			{{Text: "По статусам", CallbackData: "stats_type:status"}},
		},
	}
}

func reportsKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "За неделю", CallbackData: "report:week"}},
			{{Text: "За месяц", CallbackData: "report:month"}},
			{{Text: "За все время", CallbackData: "report:all"}},
		},
	}
}

func searchKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "По сотруднику", CallbackData: "search:by_user"}},
			{{Text: "По номеру косяка", CallbackData: "search:by_id"}},
			{{Text: "По дате", CallbackData: "search:by_date"}},
		},
	}
}

func staffPickKeyboard(users []string) telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(users))
	for _, u := range users {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: u, CallbackData: "show_user:" + u},
		})
	}
	return telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func userStatsKeyboard(user string) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "📊 По месяцам", CallbackData: "user_stats:" + user}},
		},
	}
}

// clearConfirmKeyboard carries a one-time token so a stale confirmation
// button can't wipe the log after the prompt expired.
func clearConfirmKeyboard(token string) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "✅ Да, очистить", CallbackData: "clear_stats:confirm:" + token},
				{Text: "❌ Отмена", CallbackData: "clear_stats:cancel:" + token},
			},
		},
	}
}
