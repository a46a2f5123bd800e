package entity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path/filepath"
)

const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// TokenLength is the length of session ids and namespaces.
const TokenLength = 32

// Relative locations inside a session's output directory.
const (
	FrameSubdir       = "subpacks/1080/betmc_background/betmc_background_frame"
	StaticPatchPath   = "subpacks/0/betmc_background/betmc_background_static_patch.jpg"
	LowConfigPath     = "subpacks/0/betmc_config/config.json"
	HighConfigPath    = "subpacks/1080/betmc_config/config.json"
	CommonUIDir       = "betmc_ui/betmc_common"
	TileLayoutFile    = "betmc_bg_common.json"
	UIDefsPath        = "ui/_ui_defs.json"
	ManifestFile      = "manifest.json"
	PackIconFile      = "pack_icon.png"
	SoundsDir         = "sounds"
	MenuMusicDir      = "sounds/music/menu"
	CreativeMusicPath = "sounds/music/game/creative/creative1.ogg"
)

// Session is one generation run's working state.
type Session struct {
	// SessionID addresses the client's progress channel.
	SessionID string
	// Namespace is embedded into generated asset identifiers and names the
	// output directory and archive.
	Namespace  string
	OutputDir  string
	FrameCount int
}

// NewSession allocates a fresh namespace for sessionID under outputRoot.
func NewSession(sessionID, outputRoot string) (*Session, error) {
	var ns string
	for {
		var err error
		ns, err = NewToken()
		if err != nil {
			return nil, err
		}
		if ns != sessionID {
			break
		}
	}
	return &Session{
		SessionID: sessionID,
		Namespace: ns,
		OutputDir: filepath.Join(outputRoot, ns),
	}, nil
}

func (s *Session) FrameDir() string {
	return filepath.Join(s.OutputDir, filepath.FromSlash(FrameSubdir))
}

// Path resolves a slash-separated path relative to the output directory.
func (s *Session) Path(rel string) string {
	return filepath.Join(s.OutputDir, filepath.FromSlash(rel))
}

func (s *Session) TimelinePath() string {
	return s.Path(CommonUIDir + "/" + s.Namespace + ".json")
}

// ArchiveName is the file name of the session's final archive.
func (s *Session) ArchiveName() string {
	return s.Namespace + ".zip"
}

// NewToken returns a random base36 token of TokenLength characters.
func NewToken() (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, TokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
