package orchestration

import "testing"

func TestTranscriptFlattenUsesRoleLabels(t *testing.T) {
	store := newTranscriptStore()
	store.Append(Entry{Role: RoleAssistant, Text: "Tell me about yourself."})
	store.Append(Entry{Role: RoleCandidate, Text: "I am a backend engineer."})

	want := "Interviewer: Tell me about yourself.\nCandidate: I am a backend engineer."
	if got := store.Flatten(); got != want {
		t.Fatalf("expected flatten %q, got %q", want, got)
	}

	if again := store.Flatten(); again != want {
		t.Fatalf("expected flatten to be stable, got %q", again)
	}
}

func TestTranscriptRollbackRemovesOnlyCandidateEntries(t *testing.T) {
	store := newTranscriptStore()
	store.Append(Entry{Role: RoleAssistant, Text: "Question?"})

	if removed := store.RollbackLast(); removed != nil {
		t.Fatalf("expected rollback to refuse assistant entries, removed %+v", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected assistant entry to survive rollback, len %d", store.Len())
	}

	store.Append(Entry{Role: RoleCandidate, Text: "Answer."})
	removed := store.RollbackLast()
	if removed == nil || removed.Text != "Answer." {
		t.Fatalf("expected rollback to remove the candidate entry, got %+v", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected exactly the assistant entry to remain, len %d", store.Len())
	}
}

func TestTranscriptSnapshotIsACopy(t *testing.T) {
	store := newTranscriptStore()
	store.Append(Entry{Role: RoleAssistant, Text: "Question?"})

	snapshot := store.Snapshot()
	snapshot[0].Text = "mutated"

	if got := store.Snapshot()[0].Text; got != "Question?" {
		t.Fatalf("expected store to be unaffected by snapshot mutation, got %q", got)
	}
}

func TestTranscriptClearAdvancesGeneration(t *testing.T) {
	store := newTranscriptStore()
	store.Append(Entry{Role: RoleAssistant, Text: "Question?"})

	before := store.Generation()
	store.Clear()

	if store.Len() != 0 {
		t.Fatalf("expected clear to empty the store, len %d", store.Len())
	}
	if store.Generation() != before+1 {
		t.Fatalf("expected generation to advance from %d, got %d", before, store.Generation())
	}
}
