package entity

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type OriginKind string

const (
	OriginUpload  OriginKind = "upload"
	OriginYouTube OriginKind = "youtube"
	OriginTikTok  OriginKind = "tiktok"
)

const DefaultDisplayName = "Custom Texture"

// Origin describes where the source video comes from.
type Origin struct {
	Kind OriginKind

	// VideoPath is the uploaded file for OriginUpload.
	VideoPath string

	// YouTubeID or TikTokURL identify the remote video.
	YouTubeID string
	TikTokURL string
	Quality   string

	// UseSourceAudio fetches the audio track of the same remote video.
	UseSourceAudio bool
	// SeparateAudio is another YouTube id or TikTok url whose audio is used
	// instead of the video's own track.
	SeparateAudio string
}

func (o Origin) Validate() error {
	switch o.Kind {
	case OriginUpload:
		if strings.TrimSpace(o.VideoPath) == "" {
			return errors.New("no video file uploaded")
		}
	case OriginYouTube:
		if strings.TrimSpace(o.YouTubeID) == "" {
			return errors.New("youtube video id is required")
		}
	case OriginTikTok:
		if strings.TrimSpace(o.TikTokURL) == "" {
			return errors.New("tiktok url is required")
		}
	case "":
		return errors.New("please upload a video file or provide a YouTube/TikTok url")
	default:
		return fmt.Errorf("unknown origin %q", o.Kind)
	}
	return nil
}

// GenerationRequest is the pipeline's sole input unit.
type GenerationRequest struct {
	Origin Origin

	// AudioPath is an optional uploaded audio file. Audio resolved from a
	// remote origin takes precedence over it.
	AudioPath string
	// IconPath is an optional uploaded pack icon.
	IconPath string

	FrameRate    float64
	ImageQuality int
	DisplayName  string

	ManifestTemplateURL string
	SoundBundleURL      string

	NotifyEmail string
}

// Validate reports input errors. They are terminal for the request but are
// not pipeline faults.
func (r *GenerationRequest) Validate() error {
	if math.IsNaN(r.FrameRate) || math.IsInf(r.FrameRate, 0) || r.FrameRate <= 0 {
		return NewStageError(ErrInvalidRequest, "validate request", errors.New("frame rate must be a positive number"))
	}
	if r.ImageQuality < 1 || r.ImageQuality > 100 {
		return NewStageError(ErrInvalidRequest, "validate request", errors.New("image quality must be between 1 and 100"))
	}
	if err := r.Origin.Validate(); err != nil {
		return NewStageError(ErrInvalidRequest, "validate request", err)
	}
	return nil
}

// ApplyDefaults fills in the display name and remote template URLs.
func (r *GenerationRequest) ApplyDefaults(manifestURL, soundBundleURL string) {
	if strings.TrimSpace(r.DisplayName) == "" {
		r.DisplayName = DefaultDisplayName
	}
	if strings.TrimSpace(r.ManifestTemplateURL) == "" {
		r.ManifestTemplateURL = manifestURL
	}
	if strings.TrimSpace(r.SoundBundleURL) == "" {
		r.SoundBundleURL = soundBundleURL
	}
}
