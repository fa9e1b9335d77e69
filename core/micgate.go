package orchestration

// micGate is the small state machine deciding when voice capture may run.
// All methods are called while the orchestrator holds its lock, so the gate
// itself needs no synchronization.
//
//	disabled -> ready -> listening -> received -> disabled
//	                        |
//	                        +-> ready (no input, transient error)
//	                        +-> disabled (permission denied, phase exit, submission)
type micGate struct {
	state MicState

	// permissionDenied latches after the platform refuses microphone access.
	// The gate refuses to re-arm until the latch is cleared by a hard reset;
	// typed input remains available throughout.
	permissionDenied bool

	onChange func(MicState)
}

func newMicGate(onChange func(MicState)) *micGate {
	if onChange == nil {
		onChange = func(MicState) {}
	}
	return &micGate{state: MicDisabled, onChange: onChange}
}

func (g *micGate) State() MicState { return g.state }

func (g *micGate) PermissionDenied() bool { return g.permissionDenied }

// Arm moves disabled -> ready. It reports whether the gate armed; it refuses
// while the permission latch is set or from any state but disabled.
func (g *micGate) Arm() bool {
	if g.permissionDenied || g.state != MicDisabled {
		return false
	}
	g.setState(MicReady)
	return true
}

// BeginListening moves ready -> listening.
func (g *micGate) BeginListening() bool {
	if g.state != MicReady {
		return false
	}
	g.setState(MicListening)
	return true
}

// Received moves listening -> received when capture reports a non-empty
// transcript.
func (g *micGate) Received() bool {
	if g.state != MicListening {
		return false
	}
	g.setState(MicReceived)
	return true
}

// Retry moves listening -> ready after no-input or a transient capture
// error, leaving the gate armed for another attempt.
func (g *micGate) Retry() bool {
	if g.state != MicListening {
		return false
	}
	g.setState(MicReady)
	return true
}

// Disarm forces the gate to disabled from any state: the transcript was
// handed off, a submission began, synthesis is about to speak, or the phase
// left active.
func (g *micGate) Disarm() {
	if g.state != MicDisabled {
		g.setState(MicDisabled)
	}
}

// DenyPermission disables the gate and sets the permission latch.
func (g *micGate) DenyPermission() {
	g.permissionDenied = true
	g.Disarm()
}

// Reset disarms and clears the permission latch. Used only on hard resets,
// where a fresh session re-acquires permission lazily.
func (g *micGate) Reset() {
	g.permissionDenied = false
	g.Disarm()
}

func (g *micGate) setState(state MicState) {
	if g.state == state {
		return
	}
	g.state = state
	g.onChange(state)
}
