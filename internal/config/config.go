package config

import "time"

type Config struct {
	DBPath        string
	PolicyFile    string
	ReportsDir    string
	LookbackHours int
	Port          int
	FetchTimeout  time.Duration
	Concurrency   int
	Mirrors       []string
	CheckInterval time.Duration
	LogLevel      string
	LogJSON       bool
}

func Default() Config {
	return Config{
		DBPath:        "data/postwatch.duckdb",
		ReportsDir:    "reports",
		LookbackHours: 24,
		Port:          8080,
		FetchTimeout:  10 * time.Second,
		Concurrency:   4,
		CheckInterval: 5 * time.Minute,
		LogLevel:      "info",
	}
}

// FromEnv builds a Config from the process environment on top of Default.
func FromEnv() Config {
	d := Default()
	return Config{
		DBPath:        GetEnv("POSTWATCH_DB", d.DBPath),
		PolicyFile:    GetEnv("POSTWATCH_POLICIES", d.PolicyFile),
		ReportsDir:    GetEnv("POSTWATCH_REPORTS_DIR", d.ReportsDir),
		LookbackHours: GetEnvInt("POSTWATCH_LOOKBACK_HOURS", d.LookbackHours),
		Port:          GetEnvInt("POSTWATCH_PORT", d.Port),
		FetchTimeout:  GetEnvDuration("POSTWATCH_FETCH_TIMEOUT", d.FetchTimeout),
		Concurrency:   GetEnvInt("POSTWATCH_CONCURRENCY", d.Concurrency),
		Mirrors:       GetEnvList("POSTWATCH_MIRRORS"),
		CheckInterval: GetEnvDuration("POSTWATCH_CHECK_INTERVAL", d.CheckInterval),
		LogLevel:      GetEnv("LOG_LEVEL", d.LogLevel),
		LogJSON:       GetEnvBool("LOG_JSON", d.LogJSON),
	}
}
