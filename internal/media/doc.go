// Package media turns yt-dlp metadata into user-facing format choices and
// drives downloads and playlist listings through an Engine.
//
// The Engine interface isolates the yt-dlp process so handlers and tests can
// run against fakes. YTDLP is the production implementation built on
// github.com/lrstanley/go-ytdlp. DownloadService wires an Engine to the shared
// progress.Tracker, owns the temporary directory of each download, and hands
// the finished file back in memory.
package media
