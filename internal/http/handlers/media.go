package handlers

import (
	"errors"
	"io"
	"net/http"

	"blockfund/internal/storage"
)

// multipartOverhead covers the form fields and boundaries around the file.
const (
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)

// UploadMedia stores one campaign image, document or video and returns its
// public URL. The form carries a "kind" field and a "file" part.
func (a *App) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if a.currentUserID(r) == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if a.Store == nil {
		a.error(w, http.StatusServiceUnavailable, "storage_unavailable", "file storage not configured")
		return
	}
	limit := max(a.MediaLimits.Default, a.MediaLimits.Video)
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "file exceeds the upload limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart form required")
		return
	}
	kind, err := storage.ParseKind(r.FormValue("kind"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "kind must be image, document or video")
		return
	}
	limit = a.MediaLimits.For(kind)
	file, _, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		a.internal(w, r, err, "failed to read upload")
		return
	}
	obj, err := a.Store.SaveMedia(r.Context(), kind, data, a.MediaLimits)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrTooLarge):
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "file exceeds the upload limit")
		return
	case errors.Is(err, storage.ErrUnsupportedType):
		a.error(w, http.StatusUnsupportedMediaType, "unsupported_type", err.Error())
		return
	case errors.Is(err, storage.ErrEmpty):
		a.error(w, http.StatusBadRequest, "bad_request", "file is empty")
		return
	default:
		a.internal(w, r, err, "failed to store upload")
		return
	}
	a.Logger.Info().Str("kind", string(obj.Kind)).Str("key", obj.Key).Int64("size", obj.Size).Msg("media stored")
	a.json(w, http.StatusCreated, obj)
}
