package runtime

import "github.com/jmylchreest/swfplayer/internal/backend"

// Avm2Object is an opaque handle to an info-object-dialect script object.
type Avm2Object interface{}

// Avm2Domain is an opaque application domain.
type Avm2Domain interface{}

// Event is a constructed script event ready for dispatch.
type Event interface{}

// Avm2 is the info-object-dialect script VM.
type Avm2 interface {
	// NewActivation creates an activation with no particular scope.
	NewActivation() Avm2Activation

	// NewActivationInDomain creates an activation scoped to a domain.
	NewActivationInDomain(d Avm2Domain) Avm2Activation
}

// Avm2Activation is one info-object-VM execution scope. Event construction
// can run user code (event class constructors), so the fallible constructors
// return errors; the loader surfaces those as script errors.
type Avm2Activation interface {
	// NewBareEvent constructs a plain event with the given type name.
	NewBareEvent(name string) Event

	// NewProgressEvent constructs a progress event carrying byte counters.
	NewProgressEvent(name string, loaded, total int) (Event, error)

	// NewIOErrorEvent constructs an ioError event with message text and code.
	NewIOErrorEvent(text string, code int) (Event, error)

	// Dispatch delivers an event to a target object.
	Dispatch(evt Event, target Avm2Object)

	// GetPublicProperty reads a public property from obj.
	GetPublicProperty(obj Avm2Object, name string) (Value, error)

	// SetPublicProperty writes a public property on obj.
	SetPublicProperty(obj Avm2Object, name string, v Value) error

	// NewByteArray allocates a byte-array object holding data.
	NewByteArray(data []byte) (Avm2Object, error)

	// NewString allocates a script string from raw bytes, replacing invalid
	// UTF-8 sequences.
	NewString(data []byte) Value

	// ApplicationDomainOf coerces a value to an application domain, if it
	// is one.
	ApplicationDomainOf(v Value) (Avm2Domain, bool)

	// MovieDomain creates a fresh domain for a loaded movie under parent.
	MovieDomain(parent Avm2Domain) Avm2Domain

	// SetSoundOn installs a registered sound on an info-object-dialect sound
	// target. Errors come from user-visible setters and are logged, not
	// fatal.
	SetSoundOn(obj Avm2Object, h backend.SoundHandle) error
}
