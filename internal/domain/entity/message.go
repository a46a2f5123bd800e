package entity

import "time"

// GenerationMessage is the inbound message from the generation queue.
type GenerationMessage struct {
	SessionID      string  `json:"session_id"`
	Origin         string  `json:"origin"`
	VideoPath      string  `json:"video_path,omitempty"`
	VideoKey       string  `json:"video_key,omitempty"`
	YouTubeID      string  `json:"youtube_id,omitempty"`
	TikTokURL      string  `json:"tiktok_url,omitempty"`
	Quality        string  `json:"quality,omitempty"`
	UseSourceAudio bool    `json:"use_source_audio,omitempty"`
	SeparateAudio  string  `json:"separate_audio,omitempty"`
	AudioPath      string  `json:"audio_path,omitempty"`
	IconPath       string  `json:"icon_path,omitempty"`
	FrameRate      float64 `json:"fps"`
	ImageQuality   int     `json:"quality_jpeg"`
	TextureName    string  `json:"texture_name,omitempty"`
	ManifestURL    string  `json:"manifest_url,omitempty"`
	SoundBundleURL string  `json:"sounds_zip_url,omitempty"`
	UserEmail      string  `json:"user_email,omitempty"`
}

// Request converts the message into a pipeline request.
func (m GenerationMessage) Request() *GenerationRequest {
	return &GenerationRequest{
		Origin: Origin{
			Kind:           OriginKind(m.Origin),
			VideoPath:      m.VideoPath,
			YouTubeID:      m.YouTubeID,
			TikTokURL:      m.TikTokURL,
			Quality:        m.Quality,
			UseSourceAudio: m.UseSourceAudio,
			SeparateAudio:  m.SeparateAudio,
		},
		AudioPath:           m.AudioPath,
		IconPath:            m.IconPath,
		FrameRate:           m.FrameRate,
		ImageQuality:        m.ImageQuality,
		DisplayName:         m.TextureName,
		ManifestTemplateURL: m.ManifestURL,
		SoundBundleURL:      m.SoundBundleURL,
		NotifyEmail:         m.UserEmail,
	}
}

// StatusMessage is the outbound message published for every progress bus event.
type StatusMessage struct {
	SessionID string    `json:"session_id"`
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStatusMessage(e Event) StatusMessage {
	return StatusMessage{
		SessionID: e.SessionID,
		Type:      e.Type,
		Data:      e.Payload(),
		Timestamp: e.Time.UTC(),
	}
}
