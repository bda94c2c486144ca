// Package procutil finds and kills the process tree a download spawned.
//
// yt-dlp launches ffmpeg for merging and transcoding. Killing yt-dlp alone
// reparents those children to init, so callers snapshot the descendants of
// the server first, stop the download, and then kill whatever survived.
package procutil
