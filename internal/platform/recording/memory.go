package recording

import (
	"context"
	"sync"
)

type storedRecording struct {
	meta    Metadata
	content []byte
}

// MemoryArchive is a thread-safe in-memory Archive.
type MemoryArchive struct {
	mu         sync.RWMutex
	recordings map[string]*storedRecording
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{recordings: make(map[string]*storedRecording)}
}

func (a *MemoryArchive) Store(_ context.Context, meta Metadata, content []byte) (*Metadata, error) {
	meta, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(content))
	copy(data, content)

	a.mu.Lock()
	a.recordings[meta.Key] = &storedRecording{meta: meta, content: data}
	a.mu.Unlock()

	out := meta
	return &out, nil
}

func (a *MemoryArchive) Get(_ context.Context, key string) ([]byte, *Metadata, error) {
	a.mu.RLock()
	rec, ok := a.recordings[key]
	a.mu.RUnlock()
	if !ok {
		return nil, nil, ErrRecordingNotFound
	}
	meta := rec.meta
	return rec.content, &meta, nil
}

// Len reports how many recordings are held.
func (a *MemoryArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.recordings)
}
