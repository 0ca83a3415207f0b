package httpserver

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"indekost/internal/storage"
)

// serveObject streams a blob from the object store. Keys never contain
// path traversal; anything that cleans to a different path is rejected
// before the store is consulted.
func (s *Server) serveObject(w http.ResponseWriter, r *http.Request, key string, download bool) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	body, contentType, err := s.objects.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.logger.Error("fetch stored object", "key", key, "error", err)
		s.countError("storage")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	if download {
		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	}
	if _, err := io.Copy(w, body); err != nil {
		s.logger.Warn("stream stored object", "key", key, "error", err)
	}
}
