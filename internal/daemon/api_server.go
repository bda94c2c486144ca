package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vfaronov/httpheader"

	"ytserve/internal/api"
	"ytserve/internal/logging"
	"ytserve/internal/services"
	"ytserve/internal/services/gemini"
)

const maxSummarizeBody = 4 << 20

type apiServer struct {
	daemon *Daemon
	logger *slog.Logger
}

func newAPIServer(d *Daemon, logger *slog.Logger) *apiServer {
	return &apiServer{daemon: d, logger: logging.NewComponentLogger(logger, "api-server")}
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/formats", s.handleFormats)
	mux.HandleFunc("/download", s.handleDownload)
	mux.HandleFunc("/progress", s.handleProgress)
	mux.HandleFunc("/cancel", s.handleCancel)
	mux.HandleFunc("/reset-progress", s.handleResetProgress)
	mux.HandleFunc("/playlist-info", s.handlePlaylistInfo)
	mux.HandleFunc("/get-transcript-languages", s.handleTranscriptLanguages)
	mux.HandleFunc("/check-transcript", s.handleCheckTranscript)
	mux.HandleFunc("/get-transcript", s.handleGetTranscript)
	mux.HandleFunc("/summarize", s.handleSummarize)
	mux.HandleFunc("/api/status", s.handleStatus)

	return chain(mux,
		withRequestID,
		accessLog(s.logger),
		cors(s.daemon.cfg.Server.CORSOrigins),
	)
}

func (s *apiServer) handleFormats(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	options, err := s.daemon.svc.Catalog.Formats(r.Context(), r.URL.Query().Get("videoId"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, services.Message(err))
		return
	}
	s.writeJSON(w, http.StatusOK, options)
}

func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	query := r.URL.Query()
	videoID := strings.TrimSpace(query.Get("videoId"))
	formatID := strings.TrimSpace(query.Get("formatId"))
	if videoID == "" || formatID == "" {
		s.writeError(w, http.StatusBadRequest, "Missing videoId or formatId")
		return
	}

	result, err := s.daemon.svc.Downloads.Download(r.Context(), videoID, formatID)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			s.writeError(w, http.StatusBadRequest, services.Message(err))
			return
		}
		s.writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{
			Error:   services.Message(err),
			Details: api.DownloadFailureDetails,
		})
		return
	}

	h := w.Header()
	h.Set("Content-Type", result.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(result.Data)))
	httpheader.SetContentDisposition(h, "attachment", result.Filename, nil)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		logging.WithContext(r.Context(), s.logger).Debug("download response write failed", logging.Error(err))
	}
}

func (s *apiServer) handleProgress(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.svc.Tracker.Snapshot())
}

func (s *apiServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	cancelled, err := s.daemon.svc.Tracker.Cancel()
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "download termination failed", "cancel_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "yt-dlp or ffmpeg may still be running; check the process list"),
		)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !cancelled {
		s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: api.StatusIdle})
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("download cancelled by request")
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: api.StatusCancelled})
}

func (s *apiServer) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	s.daemon.svc.Tracker.Reset()
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: api.StatusReset})
}

func (s *apiServer) handlePlaylistInfo(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	info, err := s.daemon.svc.Catalog.Playlist(r.Context(), r.URL.Query().Get("playlistId"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, services.Message(err))
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *apiServer) handleTranscriptLanguages(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	langs, err := s.daemon.svc.Transcripts.Languages(r.Context(), r.URL.Query().Get("videoId"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, services.Message(err))
		return
	}
	s.writeJSON(w, http.StatusOK, langs)
}

func (s *apiServer) handleCheckTranscript(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	ok, err := s.daemon.svc.Transcripts.Check(r.Context(), r.URL.Query().Get("videoId"))
	if err != nil {
		s.writeJSON(w, http.StatusOK, api.CheckTranscriptResponse{Error: services.Message(err)})
		return
	}
	s.writeJSON(w, http.StatusOK, api.CheckTranscriptResponse{HasTranscript: ok})
}

func (s *apiServer) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	query := r.URL.Query()
	result, err := s.daemon.svc.Transcripts.Get(r.Context(), query.Get("videoId"), query.Get("language"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, services.Message(err))
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodPost) {
		return
	}
	var req api.SummarizeRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxSummarizeBody))
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	logger := logging.WithContext(r.Context(), s.logger)
	summary, err := s.daemon.svc.Summarizer.Summarize(r.Context(), r.Header.Get(api.GeminiKeyHeader), req.Text)
	switch {
	case err == nil:
		logger.Info("summary generated", logging.Int("input_chars", len(req.Text)), logging.Int("summary_chars", len(summary)))
		s.writeJSON(w, http.StatusOK, api.SummarizeResponse{Summary: summary})
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, services.Message(err))
	case gemini.IsInvalidKey(err):
		logger.Warn("summarize rejected: invalid api key")
		s.writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: api.InvalidKeyMessage, Details: err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		s.writeError(w, http.StatusUnauthorized, services.Message(err))
	default:
		logging.ErrorWithContext(logger, "summary generation failed", "summarize_failed", logging.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: api.SummaryFailureMessage, Details: err.Error()})
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
