// Package ledger persists the durable sync state in SQLite: episode
// records with their publish ordering, the download fact table, the
// transient download queue, the activity log, and per-feed sync status.
//
// The ledger owns the uniqueness invariants: within a feed no two
// episodes share a filename, no two episodes claim the same video, and a
// video is downloaded at most once. Write paths are serialized per feed
// and multi-row reconciliation updates apply in a single transaction.
package ledger
