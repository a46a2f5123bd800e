package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"go.uber.org/zap"
)

const multipartMemory = 32 << 20

var errInvalidNumbers = errors.New("invalid fps or quality value")

type uploadResponse struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	sessionID, err := entity.NewToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not create session")
		return
	}

	req, files, err := s.parseRequest(r, sessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fps or quality value")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, entity.UserMessage(err))
		return
	}
	if msg, ok := s.originAllowed(req.Origin.Kind); !ok {
		writeError(w, http.StatusForbidden, msg)
		return
	}

	for _, f := range files {
		if err := saveUpload(f.header, f.dst); err != nil {
			s.logger.Error("failed to store upload", zap.String("field", f.field), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Could not store uploaded file")
			return
		}
	}

	s.logger.Info("generation requested",
		zap.String("session_id", sessionID),
		zap.String("origin", string(req.Origin.Kind)),
		zap.Float64("fps", req.FrameRate),
		zap.Int("quality", req.ImageQuality),
	)
	s.gen.Start(r.Context(), sessionID, req)
	writeJSON(w, http.StatusOK, uploadResponse{SessionID: sessionID})
}

type pendingFile struct {
	field  string
	header *multipart.FileHeader
	dst    string
}

// parseRequest maps the form to a request. Uploaded files are assigned their
// destination paths but not yet written.
func (s *Server) parseRequest(r *http.Request, sessionID string) (*entity.GenerationRequest, []pendingFile, error) {
	fps, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("fps")), 64)
	if err != nil {
		return nil, nil, errInvalidNumbers
	}
	quality, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quality")))
	if err != nil {
		return nil, nil, errInvalidNumbers
	}

	req := &entity.GenerationRequest{
		FrameRate:           fps,
		ImageQuality:        quality,
		DisplayName:         strings.TrimSpace(r.FormValue("textureName")),
		ManifestTemplateURL: strings.TrimSpace(r.FormValue("manifestUrl")),
		SoundBundleURL:      strings.TrimSpace(r.FormValue("soundsZipUrl")),
		NotifyEmail:         strings.TrimSpace(r.FormValue("email")),
	}

	var files []pendingFile
	file := func(field string) string {
		fh := firstFile(r, field)
		if fh == nil {
			return ""
		}
		dst := filepath.Join(s.cfg.UploadDir, fmt.Sprintf("%s_%s%s", sessionID, field, safeExt(fh.Filename)))
		files = append(files, pendingFile{field: field, header: fh, dst: dst})
		return dst
	}

	switch {
	case r.FormValue("youtubeVideoId") != "":
		req.Origin = entity.Origin{
			Kind:           entity.OriginYouTube,
			YouTubeID:      strings.TrimSpace(r.FormValue("youtubeVideoId")),
			Quality:        valueOr(r.FormValue("youtubeQuality"), "720"),
			UseSourceAudio: r.FormValue("useYoutubeAudio") == "true",
			SeparateAudio:  strings.TrimSpace(r.FormValue("youtubeAudioId")),
		}
	case r.FormValue("tiktokUrl") != "":
		req.Origin = entity.Origin{
			Kind:           entity.OriginTikTok,
			TikTokURL:      strings.TrimSpace(r.FormValue("tiktokUrl")),
			Quality:        valueOr(r.FormValue("tiktokQuality"), "best"),
			UseSourceAudio: r.FormValue("useTiktokAudio") == "true",
			SeparateAudio:  strings.TrimSpace(r.FormValue("tiktokAudioUrl")),
		}
	default:
		req.Origin = entity.Origin{Kind: entity.OriginUpload, VideoPath: file("video")}
		if req.Origin.VideoPath == "" {
			req.Origin.Kind = ""
		}
	}
	req.AudioPath = file("audio")
	req.IconPath = file("icon")
	return req, files, nil
}

func (s *Server) originAllowed(kind entity.OriginKind) (string, bool) {
	switch kind {
	case entity.OriginUpload:
		return "Video uploads are currently disabled", s.settings.UploadEnabled()
	case entity.OriginYouTube:
		return "YouTube downloads are currently disabled", s.settings.YouTubeEnabled()
	case entity.OriginTikTok:
		return "TikTok downloads are currently disabled", s.settings.TikTokEnabled()
	}
	return "Unknown source", false
}

func firstFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if fhs := r.MultipartForm.File[field]; len(fhs) > 0 {
		return fhs[0]
	}
	return nil
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write upload file: %w", err)
	}
	return out.Close()
}

// safeExt keeps a short alphanumeric extension of the client file name.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}

func valueOr(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
