package loader

import (
	"github.com/jmylchreest/swfplayer/internal/runtime"
)

// Script-visible event names and arguments. These are wire-visible contracts;
// existing content keys off the exact strings and argument lists.
const (
	legacyLoadStart    = "onLoadStart"
	legacyLoadProgress = "onLoadProgress"
	legacyLoadComplete = "onLoadComplete"
	legacyLoadError    = "onLoadError"
	legacyLoadInit     = "onLoadInit"
	legacyErrorReason  = "LoadNeverCompleted"

	infoEventOpen     = "open"
	infoEventProgress = "progress"
	infoEventComplete = "complete"
	infoEventIOError  = "ioError"

	streamErrorMessage = "Error #2032: Stream Error"
	streamErrorCode    = 2032

	movieErrorMessage = "Movie loader error"
)

// emitter translates one movie load's state transitions into the event
// protocol its sink speaks. The sink is fixed at record creation; all dialect
// branching lives here so the state machine stays dialect-free.
type emitter struct {
	clip runtime.DisplayObject
	sink EventSink
}

func emitterFor(rec *MovieRecord) emitter {
	return emitter{clip: rec.TargetClip, sink: rec.Sink}
}

// start announces that fetching has begun: onLoadStart or a bare open event.
func (e emitter) start(uc *UpdateContext) error {
	switch sink := e.sink.(type) {
	case LegacyBroadcaster:
		uc.Avm1.RunMethodFrame(e.clip, sink.Broadcaster, "broadcastMessage",
			[]runtime.Value{legacyLoadStart, e.clip.ScriptObject()})
	case InfoObject:
		act := uc.Avm2.NewActivation()
		act.Dispatch(act.NewBareEvent(infoEventOpen), sink.Object)
	}
	return nil
}

// progress reports byte counters. Both values are compressed lengths.
func (e emitter) progress(uc *UpdateContext, loaded, total int) error {
	switch sink := e.sink.(type) {
	case LegacyBroadcaster:
		uc.Avm1.RunMethodFrame(e.clip, sink.Broadcaster, "broadcastMessage",
			[]runtime.Value{legacyLoadProgress, e.clip.ScriptObject(), loaded, total})
	case InfoObject:
		act := uc.Avm2.NewActivation()
		evt, err := act.NewProgressEvent(infoEventProgress, loaded, total)
		if err != nil {
			return &ScriptError{VM: "avm2", Msg: err.Error()}
		}
		act.Dispatch(evt, sink.Object)
	}
	return nil
}

// complete reports the terminal success transition. The legacy dialect
// broadcasts onLoadComplete immediately; the info-object dialect instead
// installs the fully-live stream snapshot, and the clip's first-frame exit
// handler fires the script-visible complete event from there.
func (e emitter) complete(uc *UpdateContext) error {
	switch sink := e.sink.(type) {
	case LegacyBroadcaster:
		// httpStatus is reported as 0 unconditionally; real status
		// propagation is not implemented.
		uc.Avm1.RunMethodFrame(e.clip, sink.Broadcaster, "broadcastMessage",
			[]runtime.Value{legacyLoadComplete, e.clip.ScriptObject(), 0})
	case InfoObject:
		mc, ok := e.clip.AsMovieClip()
		if !ok {
			return nil
		}
		sink.Object.SetLoaderStream(runtime.SwfStream(mc.Movie(), e.clip))
	}
	return nil
}

// loadError reports the terminal failure transition.
func (e emitter) loadError(uc *UpdateContext) error {
	switch sink := e.sink.(type) {
	case LegacyBroadcaster:
		uc.Avm1.RunMethodFrame(e.clip, sink.Broadcaster, "broadcastMessage",
			[]runtime.Value{legacyLoadError, e.clip.ScriptObject(), legacyErrorReason})
	case InfoObject:
		act := uc.Avm2.NewActivation()
		evt, err := act.NewIOErrorEvent(movieErrorMessage, 0)
		if err != nil {
			return &ScriptError{VM: "avm2", Msg: err.Error()}
		}
		act.Dispatch(evt, sink.Object)
	}
	return nil
}

// queueInit defers the post-first-frame init broadcast onto the action
// queue. Only the legacy dialect uses this path; the info-object dialect
// handles init through the clip's frame lifecycle.
func (e emitter) queueInit(queue *runtime.ActionQueue) {
	if sink, ok := e.sink.(LegacyBroadcaster); ok {
		queue.QueueMethod(e.clip, sink.Broadcaster, "broadcastMessage",
			[]runtime.Value{legacyLoadInit, e.clip.ScriptObject()})
	}
}

// dispatchIOError delivers the canonical stream-error event to a non-movie
// info-object target (URL loader or sound).
func dispatchIOError(uc *UpdateContext, target runtime.Avm2Object) error {
	act := uc.Avm2.NewActivation()
	evt, err := act.NewIOErrorEvent(streamErrorMessage, streamErrorCode)
	if err != nil {
		return &ScriptError{VM: "avm2", Msg: err.Error()}
	}
	act.Dispatch(evt, target)
	return nil
}

// dispatchBare delivers a bare named event to a non-movie info-object target.
func dispatchBare(uc *UpdateContext, name string, target runtime.Avm2Object) {
	act := uc.Avm2.NewActivation()
	act.Dispatch(act.NewBareEvent(name), target)
}
