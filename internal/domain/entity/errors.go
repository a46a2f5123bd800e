package entity

import (
	"errors"
	"strings"
)

// Error kinds. Every stage error wraps exactly one of these.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrAcquisition      = errors.New("source acquisition failed")
	ErrFeatureDisabled  = errors.New("feature disabled")
	ErrExtraction       = errors.New("frame extraction failed")
	ErrNoFrames         = errors.New("no frames extracted from video")
	ErrCompression      = errors.New("frame compression failed")
	ErrManifestFetch    = errors.New("manifest fetch failed")
	ErrSoundBundleFetch = errors.New("sound bundle fetch failed")
	ErrTranscode        = errors.New("audio transcode failed")
	ErrArchive          = errors.New("archive failed")
)

// StageError carries the failing operation, its kind and the underlying cause.
// Detail holds diagnostics such as a tool's stderr.
type StageError struct {
	Kind   error
	Op     string
	Detail string
	Err    error
}

func NewStageError(kind error, op string, err error) *StageError {
	return &StageError{Kind: kind, Op: op, Err: err}
}

func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the error kind wrapped by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrInvalidRequest, ErrFeatureDisabled, ErrAcquisition, ErrNoFrames,
		ErrExtraction, ErrCompression, ErrManifestFetch, ErrSoundBundleFetch,
		ErrTranscode, ErrArchive,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// UserMessage maps err to the text shown to the live client.
func UserMessage(err error) string {
	switch KindOf(err) {
	case ErrInvalidRequest:
		return "Invalid request: " + rootMessage(err)
	case ErrFeatureDisabled:
		return "This source is currently disabled"
	case ErrAcquisition:
		return "Could not download the source video"
	case ErrNoFrames:
		return "No video frames found, please upload a valid video file"
	case ErrExtraction:
		return "Could not extract frames from the video"
	case ErrCompression:
		return "Could not compress the extracted frames"
	case ErrManifestFetch:
		return "Could not download the manifest template"
	case ErrSoundBundleFetch:
		return "Could not download the sound bundle"
	case ErrTranscode:
		return "Could not convert the audio track"
	case ErrArchive:
		return "Could not build the pack archive"
	default:
		return "Processing failed"
	}
}

func rootMessage(err error) string {
	var se *StageError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}
