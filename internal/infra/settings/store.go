// Package settings persists the operator-editable site settings: feature
// flags gating each video origin, UI theme values and the admin password.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

var ErrPasswordTooShort = errors.New("password must be at least 6 characters")

type Settings struct {
	PasswordHash   string `json:"password,omitempty"`
	GifURL         string `json:"gifUrl"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	UploadEnabled  bool   `json:"uploadEnabled"`
	YouTubeEnabled bool   `json:"youtubeEnabled"`
	TikTokEnabled  bool   `json:"tiktokEnabled"`
	Announcement   string `json:"announcement"`
}

func Defaults() Settings {
	return Settings{
		GifURL:         "https://media.tenor.com/XQu4UfesS_kAAAAC/minecraft-block.gif",
		PrimaryColor:   "#667eea",
		SecondaryColor: "#764ba2",
		AccentColor:    "#f093fb",
		UploadEnabled:  true,
		YouTubeEnabled: true,
		TikTokEnabled:  true,
	}
}

// Public is the subset served to every client.
type Public struct {
	GifURL         string `json:"gifUrl"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	UploadEnabled  bool   `json:"uploadEnabled"`
	YouTubeEnabled bool   `json:"youtubeEnabled"`
	TikTokEnabled  bool   `json:"tiktokEnabled"`
	Announcement   string `json:"announcement"`
}

// Patch carries a partial update; nil fields are left unchanged.
type Patch struct {
	GifURL         *string `json:"gifUrl"`
	PrimaryColor   *string `json:"primaryColor"`
	SecondaryColor *string `json:"secondaryColor"`
	AccentColor    *string `json:"accentColor"`
	UploadEnabled  *bool   `json:"uploadEnabled"`
	YouTubeEnabled *bool   `json:"youtubeEnabled"`
	TikTokEnabled  *bool   `json:"tiktokEnabled"`
	Announcement   *string `json:"announcement"`
}

type Store struct {
	path   string
	logger *zap.Logger

	mu sync.RWMutex
	s  Settings
}

// Open loads settings from path, falling back to Defaults when the file does
// not exist. An empty path keeps settings in memory only.
func Open(path string, logger *zap.Logger) (*Store, error) {
	st := &Store{path: path, logger: logger, s: Defaults()}
	if path == "" {
		return st, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("settings file not found, using defaults", zap.String("path", path))
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &st.s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	return st, nil
}

func (st *Store) UploadEnabled() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.UploadEnabled
}

func (st *Store) YouTubeEnabled() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.YouTubeEnabled
}

func (st *Store) TikTokEnabled() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.TikTokEnabled
}

func (st *Store) Public() Public {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.public()
}

func (s Settings) public() Public {
	return Public{
		GifURL:         s.GifURL,
		PrimaryColor:   s.PrimaryColor,
		SecondaryColor: s.SecondaryColor,
		AccentColor:    s.AccentColor,
		UploadEnabled:  s.UploadEnabled,
		YouTubeEnabled: s.YouTubeEnabled,
		TikTokEnabled:  s.TikTokEnabled,
		Announcement:   s.Announcement,
	}
}

// Update applies p and persists the result.
func (st *Store) Update(p Patch) (Public, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.s
	setString(&next.GifURL, p.GifURL)
	setString(&next.PrimaryColor, p.PrimaryColor)
	setString(&next.SecondaryColor, p.SecondaryColor)
	setString(&next.AccentColor, p.AccentColor)
	setString(&next.Announcement, p.Announcement)
	setBool(&next.UploadEnabled, p.UploadEnabled)
	setBool(&next.YouTubeEnabled, p.YouTubeEnabled)
	setBool(&next.TikTokEnabled, p.TikTokEnabled)

	if err := st.save(next); err != nil {
		return st.s.public(), err
	}
	st.s = next
	st.logger.Info("settings updated",
		zap.Bool("upload_enabled", next.UploadEnabled),
		zap.Bool("youtube_enabled", next.YouTubeEnabled),
		zap.Bool("tiktok_enabled", next.TikTokEnabled),
	)
	return next.public(), nil
}

// HasPassword reports whether an admin password was set.
func (st *Store) HasPassword() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.PasswordHash != ""
}

// CheckPassword verifies pw. Before a password is set no login succeeds.
func (st *Store) CheckPassword(pw string) bool {
	st.mu.RLock()
	hash := st.s.PasswordHash
	st.mu.RUnlock()

	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func (st *Store) SetPassword(pw string) error {
	if len(pw) < 6 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.s
	next.PasswordHash = string(hash)
	if err := st.save(next); err != nil {
		return err
	}
	st.s = next
	return nil
}

func (st *Store) save(s Settings) error {
	if st.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := renameio.WriteFile(st.path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
