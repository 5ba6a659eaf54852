// Package recording keeps a copy of encounter audio in object storage before
// it is handed to the remote service. An Archive backed by minio is used in
// production; the in-memory one serves tests and local development.
package recording

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRecordingNotFound = errors.New("recording not found")
	ErrFileTooLarge      = errors.New("recording exceeds maximum allowed size")
	ErrUnsupportedType   = errors.New("content type is not a supported audio format")
	ErrMissingFileName   = errors.New("file name is required")
	ErrEmptyRecording    = errors.New("recording is empty")
)

// MaxFileSize is the maximum allowed recording size in bytes (100 MB).
const MaxFileSize = 100 * 1024 * 1024

// AllowedContentTypes lists the audio formats browsers record in.
var AllowedContentTypes = map[string]bool{
	"audio/webm":  true,
	"audio/ogg":   true,
	"audio/mpeg":  true,
	"audio/mp4":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/x-m4a": true,
	"video/webm":  true,
}

var audioExtensions = map[string]string{
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/x-m4a",
	".mp4":  "audio/mp4",
	".wav":  "audio/wav",
}

// ContentTypeFor guesses the content type of a recording from its file
// extension. Unknown extensions give "".
func ContentTypeFor(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ct, ok := audioExtensions[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

// Metadata describes an archived recording.
type Metadata struct {
	Key         string    `json:"key"`
	EncounterID string    `json:"encounter_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Archive stores recordings.
type Archive interface {
	Store(ctx context.Context, meta Metadata, content []byte) (*Metadata, error)
	Get(ctx context.Context, key string) ([]byte, *Metadata, error)
}

// ReadAudio reads a recording into memory, rejecting empty and oversized
// input.
func ReadAudio(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyRecording
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// MediaType strips parameters such as codecs from a content type.
// "audio/webm;codecs=opus" becomes "audio/webm".
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// CheckAudio validates the file name and content type of a recording.
func CheckAudio(fileName, contentType string) error {
	if strings.TrimSpace(fileName) == "" {
		return ErrMissingFileName
	}
	if !AllowedContentTypes[MediaType(contentType)] {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return nil
}

// prepare fills in the derived fields of meta.
func prepare(meta Metadata, content []byte) (Metadata, error) {
	if err := CheckAudio(meta.FileName, meta.ContentType); err != nil {
		return meta, err
	}
	if len(content) == 0 {
		return meta, ErrEmptyRecording
	}
	if int64(len(content)) > MaxFileSize {
		return meta, ErrFileTooLarge
	}
	meta.Size = int64(len(content))
	meta.Hash = fmt.Sprintf("%x", sha256.Sum256(content))
	meta.CreatedAt = time.Now().UTC()
	meta.Key = objectKey(meta.EncounterID, meta.FileName, meta.CreatedAt)
	return meta, nil
}

// objectKey is encounters/<encounter>/<yyyymmddThhmmss>-<uuid>-<base name>.
func objectKey(encounterID, fileName string, at time.Time) string {
	if encounterID == "" {
		encounterID = "unassigned"
	}
	return path.Join("encounters", encounterID,
		at.Format("20060102T150405")+"-"+uuid.New().String()+"-"+path.Base(strings.ReplaceAll(fileName, "\\", "/")))
}
