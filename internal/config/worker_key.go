package config

type WorkerKeyStruct struct {
	InvalidateViewsQueue    string
	RefreshLeaderboardQueue string
}

var WorkerKey = &WorkerKeyStruct{
	InvalidateViewsQueue:    "invalidate_views_queue",
	RefreshLeaderboardQueue: "refresh_leaderboard_queue",
}
