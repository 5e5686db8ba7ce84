package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/shelterpaws/waggle/internal/intake"
	"github.com/shelterpaws/waggle/internal/queue"
)

// UploadRequest is the validated body for POST /uploads. Data carries the
// base64 image bytes inline.
type UploadRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	SizeBytes   int64  `json:"size_bytes" validate:"gte=0"`
	ShelterID   string `json:"shelter_id" validate:"required"`
	DogID       string `json:"dog_id" validate:"required"`
	Data        string `json:"data" validate:"required"`
}

// PresignUploadRequest is the validated body for POST /uploads/presign, which
// issues a direct-upload grant instead of accepting bytes inline.
type PresignUploadRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	SizeBytes   int64  `json:"size_bytes" validate:"gte=0"`
	ShelterID   string `json:"shelter_id" validate:"required"`
	DogID       string `json:"dog_id" validate:"required"`
}

// CompleteUploadRequest is the validated body for POST /uploads/complete.
type CompleteUploadRequest struct {
	StorageKey  string `json:"storage_key" validate:"required"`
	ExpiresUnix int64  `json:"expires_unix" validate:"required"`
	Token       string `json:"token" validate:"required"`
}

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req UploadRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	grant, err := s.uploads.RequestUpload(r.Context(), intake.Request{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		ShelterID:   req.ShelterID,
		DogID:       req.DogID,
		Data:        req.Data,
	})
	if err != nil {
		s.respondUploadError(w, err)
		return
	}

	if err := s.enqueueProcess(r, grant.StorageKey); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to queue image processing")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"message":     "Upload accepted for processing",
		"storage_key": grant.StorageKey,
	})
}

func (s *Server) handleUploadPresign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req PresignUploadRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	grant, err := s.uploads.RequestUpload(r.Context(), intake.Request{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		ShelterID:   req.ShelterID,
		DogID:       req.DogID,
	})
	if err != nil {
		s.respondUploadError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"storage_key":  grant.StorageKey,
		"upload_url":   grant.UploadURL,
		"method":       grant.Method,
		"expires_unix": grant.ExpiresUnix,
		"expires_in":   grant.ExpiresIn,
		"token":        grant.CompletionToken,
	})
}

func (s *Server) respondUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, intake.ErrInvalidContentType),
		errors.Is(err, intake.ErrInvalidExtension),
		errors.Is(err, intake.ErrInvalidPayload):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, intake.ErrPayloadTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		s.log.Error("upload request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to process upload request")
	}
}

func (s *Server) handleUploadComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req CompleteUploadRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.uploads.VerifyCompletion(r.Context(), req.StorageKey, req.ExpiresUnix, req.Token); err != nil {
		if errors.Is(err, intake.ErrInvalidToken) {
			respondError(w, http.StatusForbidden, err.Error())
			return
		}
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err := s.enqueueProcess(r, req.StorageKey); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to queue image processing")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{
		"message":     "Upload accepted for processing",
		"storage_key": req.StorageKey,
	})
}

func (s *Server) enqueueProcess(r *http.Request, key string) error {
	err := s.queue.EnqueueImageProcess(r.Context(), queue.ImageProcessPayload{
		Bucket:    s.uploads.Bucket(),
		ObjectKey: key,
	})
	if err != nil {
		s.log.Error("enqueue image process failed", zap.String("key", key), zap.Error(err))
	}
	return err
}
