package config

import "time"

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			DataDir: "data",
			History: "briefing_history.json",
			Picks:   "mikes_picks.json",
			Lock:    "mikecast.lock",
		},
		History: HistoryConfig{
			Backend:       BackendJSON,
			RetentionDays: 7,
		},
		Dedup: DedupConfig{
			MatchThreshold:  0.8,
			UpdateThreshold: 0.9,
		},
		Sources: SourcesConfig{
			NYTBaseURL:    "https://api.nytimes.com/svc",
			GoogleNewsURL: "https://news.google.com/rss/search",
			Categories: []CategoryConfig{
				{
					Name: "AI & Tech",
					Queries: []string{
						"OpenAI", "Anthropic Claude AI", "Google AI Gemini",
						"Microsoft AI Copilot", "AI startups funding",
						"artificial intelligence breakthroughs",
					},
					NYTQueries: []string{"artificial intelligence", "OpenAI Anthropic"},
				},
				{
					Name: "Business & Markets",
					Queries: []string{
						"stock market today", "Nasdaq S&P 500 today",
						"AI spending enterprise", "venture capital funding",
						"Federal Reserve economy",
					},
					NYTQueries: []string{"stock market economy", "venture capital AI"},
				},
				{
					Name: "Companies",
					Queries: []string{
						"Apple news today", "Meta Facebook news",
						"Amazon news today", "Nvidia news today",
						"Tesla news today", "Netflix news today",
						"Microsoft news today", "Google Alphabet news",
					},
					NYTQueries: []string{"Apple Meta Amazon Nvidia Tesla"},
				},
				{
					Name: "NY Sports",
					Queries: []string{
						"New York Yankees", "New York Knicks",
						"New York Giants NFL", "New Jersey Devils NHL",
					},
					NYTQueries: []string{"Yankees Knicks Giants Devils"},
				},
			},
			NYTSections: []SectionConfig{
				{Section: "technology", Category: "AI & Tech"},
				{Section: "business", Category: "Business & Markets"},
				{Section: "sports", Category: "NY Sports"},
				{Section: "home", Category: "AI & Tech"},
			},
			TopStoriesLimit: 8,
			MaxResults:      3,
			RequestInterval: 500 * time.Millisecond,
			Timeout:         15 * time.Second,
		},
		Selection: SelectionConfig{TotalArticles: 25},
		AI: AIConfig{
			Model: "gemini-2.5-flash",
		},
		TTS: TTSConfig{
			Model:     "tts-1-hd",
			Voice:     "alloy",
			ChunkSize: 4000,
		},
		Email: EmailConfig{
			SMTPServer: "smtp.gmail.com",
			SMTPPort:   465,
		},
		Retry: RetryConfig{
			Attempts:  3,
			BaseDelay: time.Second,
			MaxDelay:  8 * time.Second,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			DashboardDir: "dashboard",
		},
		Timezone: "UTC",
		LogLevel: "info",
	}
}
