package orchestration

import "testing"

func TestMicGateHappyPath(t *testing.T) {
	observed := []MicState{}
	gate := newMicGate(func(state MicState) { observed = append(observed, state) })

	if gate.State() != MicDisabled {
		t.Fatalf("expected gate to start disabled, got %v", gate.State())
	}
	if !gate.Arm() {
		t.Fatalf("expected arm to succeed from disabled")
	}
	if !gate.BeginListening() {
		t.Fatalf("expected listening to start from ready")
	}
	if !gate.Received() {
		t.Fatalf("expected received to follow listening")
	}
	gate.Disarm()

	want := []MicState{MicReady, MicListening, MicReceived, MicDisabled}
	if len(observed) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, observed)
	}
	for i := range want {
		if observed[i] != want[i] {
			t.Fatalf("expected transitions %v, got %v", want, observed)
		}
	}
}

func TestMicGateListeningAndReceivedRequireReady(t *testing.T) {
	gate := newMicGate(nil)

	if gate.BeginListening() {
		t.Fatalf("expected listening to be unreachable from disabled")
	}
	if gate.Received() {
		t.Fatalf("expected received to be unreachable from disabled")
	}

	gate.Arm()
	if gate.Received() {
		t.Fatalf("expected received to be unreachable from ready")
	}
}

func TestMicGateRetryReturnsToReady(t *testing.T) {
	gate := newMicGate(nil)
	gate.Arm()
	gate.BeginListening()

	if !gate.Retry() {
		t.Fatalf("expected retry to succeed from listening")
	}
	if gate.State() != MicReady {
		t.Fatalf("expected gate back at ready, got %v", gate.State())
	}
}

func TestMicGatePermissionDeniedLatches(t *testing.T) {
	gate := newMicGate(nil)
	gate.Arm()
	gate.BeginListening()
	gate.DenyPermission()

	if gate.State() != MicDisabled {
		t.Fatalf("expected gate disabled after permission denial, got %v", gate.State())
	}
	if gate.Arm() {
		t.Fatalf("expected arm to be refused while the permission latch is set")
	}

	gate.Reset()
	if !gate.Arm() {
		t.Fatalf("expected arm to succeed after a hard reset")
	}
}
