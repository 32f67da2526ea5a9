package testutil

const (
	HealthCheckEndpoint   = "/health"
	AuthBaseURL           = "/api/token-auth"
	GoogleLoginEndpoint   = AuthBaseURL + "/google-login"
	RefreshTokenEndpoint  = AuthBaseURL + "/refresh"
	LogoutEndpoint        = AuthBaseURL + "/logout"
	LogoutAllEndpoint     = AuthBaseURL + "/logout-all"
	MeEndpoint            = AuthBaseURL + "/me"
	ProtectedEndpoint     = AuthBaseURL + "/protected"
	CleanupTokensEndpoint = AuthBaseURL + "/cleanup-tokens"
	EmotionBaseURL        = "/api/emotion"
	AnalyzeEndpoint       = EmotionBaseURL + "/openai"
	HistoryEndpoint       = EmotionBaseURL + "/history"
	ByDateEndpoint        = EmotionBaseURL + "/by-date"
	MonthlyStatsEndpoint  = EmotionBaseURL + "/monthly-stats"
	RecentEndpoint        = EmotionBaseURL + "/recent"
)
