package ledger

import "time"

// Status represents the lifecycle of a download queue item.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusDownloading,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Episode is one row of the per-feed episode ledger. Filename is the
// on-disk basename within the feed directory and is unique per feed.
// VideoID is set once the episode has been linked to a playlist entry.
type Episode struct {
	ID           int64
	Feed         string
	Filename     string
	VideoID      string
	RemoteTitle  string
	Description  string
	ThumbnailURL string
	PublishDate  string
	MatchScore   *float64
	DisplayOrder int64
	AddedAt      time.Time
	UpdatedAt    time.Time
}

// Linked reports whether the episode has been matched to a remote video.
func (e *Episode) Linked() bool {
	return e != nil && e.VideoID != ""
}

// Download records that a video has been fetched (or linked to an
// existing file) exactly once. Rows are never updated after insert.
type Download struct {
	ID           int64
	Feed         string
	VideoID      string
	Filename     string
	DownloadedAt time.Time
}

// QueueItem is a pending or in-flight download.
type QueueItem struct {
	ID              int64
	Feed            string
	VideoID         string
	Title           string
	Status          Status
	ProgressPercent float64
	ErrorMessage    string
	Attempts        int64
	QueuedAt        time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
	UpdatedAt       time.Time
}

// Activity is one row of the append-only event log.
type Activity struct {
	ID        int64
	Feed      string
	EventType string
	Message   string
	CreatedAt time.Time
}

// FeedState tracks the last sync outcome for a feed.
type FeedState struct {
	Feed       string
	LastSyncAt *time.Time
	LastError  string
	UpdatedAt  time.Time
}

// QueueStats summarizes queue occupancy by status.
type QueueStats struct {
	Queued      int
	Downloading int
	Completed   int
	Failed      int
}

// Total returns the number of items across all states.
func (q QueueStats) Total() int {
	return q.Queued + q.Downloading + q.Completed + q.Failed
}
