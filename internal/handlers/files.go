package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/imageforms/internal/services"
	"github.com/jjudge-oj/imageforms/internal/storage"
)

// FileRouter serves stored images under /*.
func FileRouter(r chi.Router, recordService *services.RecordService) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		if key == "" || strings.Contains(key, "..") {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}

		obj, err := recordService.OpenImage(r.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				writeError(w, http.StatusNotFound, "file not found")
				return
			}
			log.WithFields(log.Fields{"module": "handlers", "component": "files", "key": key}).WithError(err).Error("failed to open file")
			writeError(w, http.StatusInternalServerError, "failed to open file")
			return
		}
		defer obj.Body.Close()

		if obj.ContentType != "" {
			w.Header().Set("Content-Type", obj.ContentType)
		}
		if obj.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, obj.Body)
	})
}
