package policy

// Defaults returns the built-in monitored accounts.
func Defaults() []Policy {
	return []Policy{
		{
			Key:                 "ladymacbeth",
			ActorHandle:         "LadyMacbethAI",
			DisplayName:         "Lady Macbeth",
			ScheduleDescription: "Posts 18:00-06:00 UTC, 1-1.5hr intervals, max 10/day, replies within 30min",
			ActiveHoursUTC:      append(HourRange(18, 23), HourRange(0, 6)...),
			MaxRecordsPerDay:    10,
			MinIntervalMinutes:  60,
			MaxIntervalMinutes:  90,
			RuleVariant:         VariantNightActivity,
			ReplyWindowMinutes:  intPtr(30),
		},
		{
			Key:                 "bitbard",
			ActorHandle:         "BitBardOfficial",
			DisplayName:         "BitBard",
			ScheduleDescription: "Daily 'Cue' at 08:00 Mountain Time (14:00/15:00 UTC), occasional extras",
			ActiveHoursUTC:      []int{14, 15},
			MaxRecordsPerDay:    5,
			MinIntervalMinutes:  60,
			MaxIntervalMinutes:  1440,
			RuleVariant:         VariantDailySinglePost,
			ExpectedWindowUTC:   []int{14, 15},
			ReplyWindowMinutes:  intPtr(60),
		},
	}
}

// DefaultRegistry builds a registry from Defaults.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Defaults()...)
	if err != nil {
		panic(err)
	}
	return r
}
