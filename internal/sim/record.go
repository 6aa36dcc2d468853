package sim

// Recorder receives one telemetry record per scheduling decision or
// physical action. Implementations must not block; the engine's recorder
// buffers rows and persists them after the run.
type Recorder interface {
	Record(tick int, evtType, entityKind, entityID string, payload map[string]any)
}

// NopRecorder discards telemetry.
type NopRecorder struct{}

func (NopRecorder) Record(int, string, string, string, map[string]any) {}
