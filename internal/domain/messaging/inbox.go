package messaging

import (
	"sync"
)

// Inbox is the conversation list as last loaded, plus the selection.
// Reloads may finish out of order; a reload is applied only when it was
// started after the one currently shown.
type Inbox struct {
	mu            sync.RWMutex
	conversations []Conversation
	issued        uint64
	applied       uint64
	selectedID    string
	selected      Conversation
	present       bool
}

func NewInbox() *Inbox {
	return &Inbox{}
}

// Begin reserves the sequence number for a reload about to start.
func (in *Inbox) Begin() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.issued++
	return in.issued
}

// Replace applies a reload started with seq. It returns false when a newer
// reload has already been applied.
func (in *Inbox) Replace(list []Conversation, seq uint64) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if seq <= in.applied {
		return false
	}
	in.applied = seq
	in.conversations = list
	in.resync()
	return true
}

// resync points the selection at the reloaded copy of the selected
// conversation. When it is gone the stale copy is kept and present is false.
func (in *Inbox) resync() {
	if in.selectedID == "" {
		return
	}
	for _, c := range in.conversations {
		if c.PublicID == in.selectedID {
			in.selected = c
			in.present = true
			return
		}
	}
	in.present = false
}

// Select marks publicID as the open conversation. It reports whether the
// conversation is in the current list.
func (in *Inbox) Select(publicID string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.selectedID = publicID
	in.selected = Conversation{PublicID: publicID}
	in.present = false
	in.resync()
	return in.present
}

// Selected returns the open conversation and whether the last reload still
// contained it.
func (in *Inbox) Selected() (Conversation, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.selected, in.present
}

func (in *Inbox) Find(publicID string) (Conversation, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	for _, c := range in.conversations {
		if c.PublicID == publicID {
			return c, true
		}
	}
	return Conversation{}, false
}

func (in *Inbox) Conversations() []Conversation {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]Conversation, len(in.conversations))
	copy(out, in.conversations)
	return out
}
