package recording

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCheckAudio(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		want        error
	}{
		{"webm with codecs", "visit.webm", "audio/webm;codecs=opus", nil},
		{"mpeg", "visit.mp3", "audio/mpeg", nil},
		{"upper case", "visit.wav", "Audio/WAV", nil},
		{"missing name", " ", "audio/webm", ErrMissingFileName},
		{"pdf", "notes.pdf", "application/pdf", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAudio(tt.fileName, tt.contentType)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReadAudio(t *testing.T) {
	if _, err := ReadAudio(strings.NewReader("")); !errors.Is(err, ErrEmptyRecording) {
		t.Errorf("expected ErrEmptyRecording, got %v", err)
	}
	data, err := ReadAudio(strings.NewReader("OggS"))
	if err != nil || string(data) != "OggS" {
		t.Errorf("unexpected result %q %v", data, err)
	}
}

func TestReadAudio_TooLarge(t *testing.T) {
	big := bytes.NewReader(make([]byte, MaxFileSize+1))
	if _, err := ReadAudio(big); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestMemoryArchive_StoreAndGet(t *testing.T) {
	a := NewMemoryArchive()
	ctx := context.Background()

	meta, err := a.Store(ctx, Metadata{EncounterID: "enc-1", FileName: "dir/visit.webm", ContentType: "audio/webm"}, []byte("abc"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(meta.Key, "encounters/enc-1/") || !strings.HasSuffix(meta.Key, "-visit.webm") {
		t.Errorf("unexpected key %q", meta.Key)
	}
	if meta.Size != 3 {
		t.Errorf("expected size 3, got %d", meta.Size)
	}
	// sha256("abc")
	if meta.Hash != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("unexpected hash %s", meta.Hash)
	}

	data, got, err := a.Get(ctx, meta.Key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "abc" || got.EncounterID != "enc-1" {
		t.Errorf("unexpected recording %q %+v", data, got)
	}
	if a.Len() != 1 {
		t.Errorf("expected 1 recording, got %d", a.Len())
	}
}

func TestMemoryArchive_Errors(t *testing.T) {
	a := NewMemoryArchive()
	ctx := context.Background()

	if _, _, err := a.Get(ctx, "missing"); !errors.Is(err, ErrRecordingNotFound) {
		t.Errorf("expected ErrRecordingNotFound, got %v", err)
	}
	if _, err := a.Store(ctx, Metadata{FileName: "x.txt", ContentType: "text/plain"}, []byte("x")); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := a.Store(ctx, Metadata{FileName: "x.webm", ContentType: "audio/webm"}, nil); !errors.Is(err, ErrEmptyRecording) {
		t.Errorf("expected ErrEmptyRecording, got %v", err)
	}

	meta, err := a.Store(ctx, Metadata{FileName: "x.webm", ContentType: "audio/webm"}, []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(meta.Key, "encounters/unassigned/") {
		t.Errorf("unexpected key %q", meta.Key)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"visit.webm": "audio/webm",
		"VISIT.MP3":  "audio/mpeg",
		"a/b/c.wav":  "audio/wav",
		"noext":      "",
	}
	for name, want := range tests {
		if got := ContentTypeFor(name); got != want {
			t.Errorf("%s: expected %q, got %q", name, want, got)
		}
	}
}
