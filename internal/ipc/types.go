package ipc

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// FeedStatus is the wire form of one feed's sync state.
type FeedStatus struct {
	Name       string `json:"name"`
	State      string `json:"state"`
	Episodes   int    `json:"episodes"`
	LastSyncAt string `json:"last_sync_at"`
	LastError  string `json:"last_error"`
}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	LockFilePath string         `json:"lock_file_path"`
	DBPath       string         `json:"db_path"`
	QueueStats   map[string]int `json:"queue_stats"`
	Feeds        []FeedStatus   `json:"feeds"`
}

// SyncRequest triggers an immediate pass for one feed, or all feeds when
// Feed is empty.
type SyncRequest struct {
	Feed string `json:"feed"`
}

// SyncResponse acknowledges a sync trigger.
type SyncResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopping bool `json:"stopping"`
}

// EpisodesRequest lists the ledger for one feed.
type EpisodesRequest struct {
	Feed string `json:"feed"`
}

// Episode is the wire form of a ledger episode record.
type Episode struct {
	Filename     string  `json:"filename"`
	VideoID      string  `json:"video_id"`
	RemoteTitle  string  `json:"remote_title"`
	PublishDate  string  `json:"publish_date"`
	MatchScore   float64 `json:"match_score"`
	DisplayOrder int64   `json:"display_order"`
}

// EpisodesResponse contains a feed's episodes in display order.
type EpisodesResponse struct {
	Episodes []Episode `json:"episodes"`
}

// QueueListRequest filters queue listing by feed and status. An empty
// feed spans all feeds.
type QueueListRequest struct {
	Feed     string   `json:"feed"`
	Statuses []string `json:"statuses"`
}

// QueueItem is the wire form of a download queue entry.
type QueueItem struct {
	ID              int64   `json:"id"`
	Feed            string  `json:"feed"`
	VideoID         string  `json:"video_id"`
	Title           string  `json:"title"`
	Status          string  `json:"status"`
	ProgressPercent float64 `json:"progress_percent"`
	ErrorMessage    string  `json:"error_message"`
	Attempts        int64   `json:"attempts"`
	QueuedAt        string  `json:"queued_at"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueClearCompletedRequest removes completed items.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed items.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// ActivityRequest fetches recent activity log events, optionally
// restricted to one feed.
type ActivityRequest struct {
	Feed  string `json:"feed"`
	Limit int    `json:"limit"`
}

// ActivityEvent is the wire form of one activity log row.
type ActivityEvent struct {
	Feed      string `json:"feed"`
	EventType string `json:"event_type"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// ActivityResponse contains activity events newest first.
type ActivityResponse struct {
	Events []ActivityEvent `json:"events"`
}
