package runtime

import "github.com/jmylchreest/swfplayer/internal/backend"

// ExecutionReason distinguishes why the VM is running a method; special
// executions suppress user-visible error reporting.
type ExecutionReason int

const (
	// ExecutionReasonNormal is ordinary script-initiated execution.
	ExecutionReasonNormal ExecutionReason = iota
	// ExecutionReasonSpecial marks runtime-initiated callbacks such as
	// onData and onHTTPStatus.
	ExecutionReasonSpecial
)

// Avm1Object is an opaque handle to a legacy-dialect script object. All
// interaction goes through an Avm1Activation.
type Avm1Object interface{}

// DisplayObjectCarrier is implemented by script objects that front a display
// node (a movie clip's script object). The loader uses it to reach the clip
// behind a form-load target.
type DisplayObjectCarrier interface {
	AsDisplayObject() (DisplayObject, bool)
}

// SoundObject is the legacy-dialect sound target of an audio load.
type SoundObject interface {
	// SetSound installs the registered sound handle on the object.
	SetSound(h backend.SoundHandle)

	// SetDuration stores the sound duration in whole milliseconds. known is
	// false when the backend could not determine one.
	SetDuration(ms uint32, known bool)
}

// Avm1 is the legacy script VM.
type Avm1 interface {
	// NewActivation creates a stub activation for runtime-initiated calls.
	// id names the activation in stack traces (e.g. "[Form Loader]").
	NewActivation(id string) Avm1Activation

	// RunMethodFrame synchronously runs obj.name(args...) on a fresh stack
	// frame, reporting errors through the VM's own channels. clip provides
	// the target context for the frame.
	RunMethodFrame(clip DisplayObject, obj Avm1Object, name string, args []Value)
}

// Avm1Activation is one legacy-VM execution scope.
type Avm1Activation interface {
	// SetProperty sets a property on obj as a script string/value.
	SetProperty(obj Avm1Object, name string, v Value) error

	// CallMethod invokes obj.name(args...) and returns its result.
	CallMethod(obj Avm1Object, name string, args []Value, reason ExecutionReason) (Value, error)

	// StartSound begins playback of the sound attached to obj.
	StartSound(obj SoundObject) error
}
