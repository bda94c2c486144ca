// Package progress owns the shared download progress record and the handle of
// the in-flight download.
//
// A Tracker is created once per server and passed explicitly to the download
// service (writer) and the HTTP layer (readers and cancel). Reads are
// lock-free: every mutation publishes a fresh immutable Snapshot through an
// atomic pointer. The active job handle is guarded by a mutex so cancel and
// job completion never race.
package progress
