package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/nikhilbhutani/videoscribe/internal/transcription"
)

const (
	videoField    = "videoFile"
	languageField = "language"

	// multipartMemory is how much of an upload is buffered in memory before
	// spilling to a temp file.
	multipartMemory = 32 << 20

	statusClientClosedRequest = 499
)

type Transcriber interface {
	RunTranscription(ctx context.Context, payload transcription.VideoPayload, language string) (*transcription.TranscriptionResult, error)
}

type TranscribeHandler struct {
	svc      Transcriber
	maxBytes int64
}

func NewTranscribeHandler(svc Transcriber, maxBytes int64) *TranscribeHandler {
	return &TranscribeHandler{svc: svc, maxBytes: maxBytes}
}

// Transcribe accepts a multipart upload with the video in the videoFile
// field and blocks until the provider's job is terminal.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		if r.ContentLength > h.maxBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(videoField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "videoFile is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !isVideo(contentType) {
		writeError(w, http.StatusBadRequest, "Only video files are allowed")
		return
	}
	if header.Size == 0 {
		writeError(w, http.StatusBadRequest, "video file is empty")
		return
	}

	res, err := h.svc.RunTranscription(r.Context(), transcription.VideoPayload{
		Body:        file,
		ContentType: contentType,
		Size:        header.Size,
		Filename:    header.Filename,
	}, strings.TrimSpace(r.FormValue(languageField)))
	if err != nil {
		status := statusFor(r.Context(), err)
		if status >= 500 {
			slog.Error("transcription failed", "stage", transcription.StageOf(err), "status", status, "error", err)
		}
		writeJSON(w, status, errorResponse{Error: err.Error(), Stage: string(transcription.StageOf(err))})
		return
	}

	w.Header().Set("X-Transcription-Job-Id", res.JobID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"transcriptionText": res})
}

func isVideo(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "video/")
}

// statusFor maps a pipeline failure onto the response status. Remote stage
// failures are the provider's fault and surface as 502; an expired polling
// budget is 504; a job the provider reports as failed is 500.
func statusFor(ctx context.Context, err error) int {
	switch {
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, transcription.ErrPollTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, transcription.ErrJobFailed):
		return http.StatusInternalServerError
	case errors.Is(err, transcription.ErrAuth),
		errors.Is(err, transcription.ErrAllocation),
		errors.Is(err, transcription.ErrUpload),
		errors.Is(err, transcription.ErrSubmission),
		errors.Is(err, transcription.ErrPoll):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
