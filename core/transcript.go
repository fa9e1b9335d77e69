package orchestration

import "strings"

// Entry is one line of the interview conversation. Entries are append-only
// and never mutated in place.
type Entry struct {
	Role Role
	Text string
}

// TranscriptStore is the ordered log of the active session's conversation.
// It is mutated only by the orchestrator; everything else reads snapshots.
type TranscriptStore struct {
	entries []Entry

	// generation increments on Clear so that utterance-signature dedup keyed
	// to (generation, index, text) cannot suppress a future assistant line
	// that happens to repeat text at the same index.
	generation uint64
}

func newTranscriptStore() *TranscriptStore {
	return &TranscriptStore{}
}

// Append adds an entry and returns its index.
func (t *TranscriptStore) Append(entry Entry) int {
	t.entries = append(t.entries, entry)
	return len(t.entries) - 1
}

// RollbackLast removes the most recently appended entry, but only if it is a
// candidate entry: rollback exists solely to undo an optimistically appended
// answer whose submission failed. It returns the removed entry, or nil if
// nothing was removed.
func (t *TranscriptStore) RollbackLast() *Entry {
	if len(t.entries) == 0 {
		return nil
	}
	last := t.entries[len(t.entries)-1]
	if last.Role != RoleCandidate {
		return nil
	}
	t.entries = t.entries[:len(t.entries)-1]
	return &last
}

// Snapshot returns a copy of the entries in insertion order.
func (t *TranscriptStore) Snapshot() []Entry {
	entries := make([]Entry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// Flatten renders the transcript as one "<Role label>: <text>" line per
// entry. Repeated calls without intervening mutation return identical
// strings.
func (t *TranscriptStore) Flatten() string {
	var b strings.Builder
	for i, entry := range t.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(entry.Role.Label())
		b.WriteString(": ")
		b.WriteString(entry.Text)
	}
	return b.String()
}

// Clear removes all entries and advances the store generation.
func (t *TranscriptStore) Clear() {
	t.entries = nil
	t.generation++
}

func (t *TranscriptStore) Len() int { return len(t.entries) }

func (t *TranscriptStore) Generation() uint64 { return t.generation }

// utteranceSignature deduplicates assistant playback across redundant
// re-triggers. The store generation keys the signature to one session's
// transcript.
type utteranceSignature struct {
	generation uint64
	index      int
	text       string
}
