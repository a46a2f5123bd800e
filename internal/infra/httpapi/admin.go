package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/heenao9k/betmc-ui-generator/internal/infra/settings"
	"go.uber.org/zap"
)

func (s *Server) handlePublicConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Public())
}

// requireAdmin checks HTTP basic auth against the stored admin password.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pw, ok := r.BasicAuth()
		if !ok || !s.settings.CheckPassword(pw) {
			w.Header().Set("WWW-Authenticate", `Basic realm="betmc-admin"`)
			writeError(w, http.StatusUnauthorized, "Invalid password")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAdminConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Public())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch settings.Patch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config")
		return
	}
	pub, err := s.settings.Update(patch)
	if err != nil {
		s.logger.Error("failed to update settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not save config")
		return
	}
	writeJSON(w, http.StatusOK, pub)
}

type passwordRequest struct {
	Password string `json:"password"`
}

// handleSetPassword sets the first admin password without authentication;
// changing an existing one requires the current password.
func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	if s.settings.HasPassword() {
		_, pw, ok := r.BasicAuth()
		if !ok || !s.settings.CheckPassword(pw) {
			w.Header().Set("WWW-Authenticate", `Basic realm="betmc-admin"`)
			writeError(w, http.StatusUnauthorized, "Invalid password")
			return
		}
	}

	var body passwordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := s.settings.SetPassword(body.Password); err != nil {
		if errors.Is(err, settings.ErrPasswordTooShort) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to set admin password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not save password")
		return
	}
	s.logger.Info("admin password changed")
	w.WriteHeader(http.StatusNoContent)
}

// handleDownload serves a finished archive from the zip directory.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".zip") || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, filepath.Join(s.cfg.ZipDir, name))
}
