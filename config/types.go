package config

type AppConfig struct {
	BotToken    string  `yaml:"bot_token" env:"KOSYAK_BOT_TOKEN"`
	GroupChatID int64   `yaml:"group_chat_id" env:"KOSYAK_GROUP_CHAT_ID"`
	AdminIDs    []int64 `yaml:"admin_ids" env:"KOSYAK_ADMIN_IDS" env-separator:","`
	DBPath      string  `yaml:"db_path" env:"KOSYAK_DB_PATH" env-default:"data/kosyaki.db"`

	Transport TransportConfig `yaml:"transport"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type TransportConfig struct {
	// Mode selects how updates are received: "polling" (default) or "webhook".
	Mode           string `yaml:"mode" env:"KOSYAK_TRANSPORT_MODE" env-default:"polling"`
	ListenAddr     string `yaml:"listen_addr" env:"KOSYAK_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	WebhookURL     string `yaml:"webhook_url" env:"KOSYAK_WEBHOOK_URL"`
	WebhookSecret  string `yaml:"webhook_secret" env:"KOSYAK_WEBHOOK_SECRET"`
	PollTimeoutSec int    `yaml:"poll_timeout_sec" env:"KOSYAK_POLL_TIMEOUT_SEC" env-default:"30"`
}

type SchedulerConfig struct {
	Enabled bool `yaml:"enabled" env:"KOSYAK_SCHEDULER_ENABLED" env-default:"true"`
	// Cron expressions use the standard 5-field format.
	StaleReminderCron string `yaml:"stale_reminder_cron" env:"KOSYAK_STALE_REMINDER_CRON" env-default:"0 10 * * 1-5"`
	WeeklyReportCron  string `yaml:"weekly_report_cron" env:"KOSYAK_WEEKLY_REPORT_CRON" env-default:"0 18 * * 5"`
	StaleAfterDays    int    `yaml:"stale_after_days" env:"KOSYAK_STALE_AFTER_DAYS" env-default:"7"`
}

func (t TransportConfig) IsWebhookMode() bool {
	return t.Mode == "webhook"
}
