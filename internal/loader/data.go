package loader

import (
	"context"
	"log/slog"
	"math"
	"net/url"
	"strings"

	"github.com/jmylchreest/swfplayer/internal/backend"
	"github.com/jmylchreest/swfplayer/internal/runtime"
	"golang.org/x/text/encoding/unicode"
)

// LoadFormIntoObject registers a form-urlencoded load whose decoded pairs
// become properties on a legacy object.
func (m *Manager) LoadFormIntoObject(ref PlayerRef, target runtime.Avm1Object, req backend.Request) Future {
	rec := &FormRecord{recordBase: recordBase{loadID: newLoadID()}, Target: target}
	h := m.Add(rec)

	return func(ctx context.Context) error {
		p, ok := ref.TryUpgrade()
		if !ok {
			return nil
		}
		resp, err := p.Navigator().Fetch(ctx, req)
		if err != nil {
			return &FetchError{Err: err}
		}

		p, ok = ref.TryUpgrade()
		if !ok {
			return nil
		}
		return p.Update(func(uc *UpdateContext) error {
			r, ok := uc.Loads.Get(h)
			if !ok {
				return ErrCancelled
			}
			rec, ok := r.(*FormRecord)
			if !ok {
				wrongKind("form", r)
			}
			defer uc.Loads.finish(h, true)

			act := uc.Avm1.NewActivation("[Form Loader]")
			for _, pair := range parseFormURLEncoded(resp.Body) {
				if err := act.SetProperty(rec.Target, pair.key, pair.value); err != nil {
					return &ScriptError{VM: "avm1", Msg: err.Error()}
				}
			}

			// When the target is a movie clip, fire its data callbacks: the
			// method call is queued, the clip event dispatches inline.
			if carrier, ok := rec.Target.(runtime.DisplayObjectCarrier); ok {
				if obj, ok := carrier.AsDisplayObject(); ok {
					if mc, ok := obj.AsMovieClip(); ok {
						uc.Actions.QueueMethod(obj, rec.Target, "onData", nil)
						mc.DispatchClipEvent(runtime.ClipEventData)
					}
				}
			}
			return nil
		})
	}
}

// LoadFormIntoLoadVars registers a text load with the LoadVars callback
// protocol: byte-counter properties, onHTTPStatus, then onData.
func (m *Manager) LoadFormIntoLoadVars(ref PlayerRef, target runtime.Avm1Object, req backend.Request) Future {
	rec := &LoadVarsRecord{recordBase: recordBase{loadID: newLoadID()}, Target: target}
	h := m.Add(rec)

	return func(ctx context.Context) error {
		p, ok := ref.TryUpgrade()
		if !ok {
			return nil
		}
		resp, ferr := p.Navigator().Fetch(ctx, req)

		p, ok = ref.TryUpgrade()
		if !ok {
			return nil
		}
		return p.Update(func(uc *UpdateContext) error {
			r, ok := uc.Loads.Get(h)
			if !ok {
				return ErrCancelled
			}
			rec, ok := r.(*LoadVarsRecord)
			if !ok {
				wrongKind("load vars", r)
			}
			defer uc.Loads.finish(h, ferr == nil)

			act := uc.Avm1.NewActivation("[Loader]")

			if ferr != nil {
				// Simulated 404; real HTTP status propagation is
				// unimplemented, and a failed load reports no data.
				act.CallMethod(rec.Target, "onHTTPStatus", []runtime.Value{404}, runtime.ExecutionReasonSpecial)
				act.CallMethod(rec.Target, "onData", []runtime.Value{runtime.Undef}, runtime.ExecutionReasonSpecial)
				return nil
			}

			length := len(resp.Body)
			if err := act.SetProperty(rec.Target, "_bytesTotal", length); err != nil {
				return &ScriptError{VM: "avm1", Msg: err.Error()}
			}
			if length > 0 {
				if err := act.SetProperty(rec.Target, "_bytesLoaded", length); err != nil {
					return &ScriptError{VM: "avm1", Msg: err.Error()}
				}
			}

			act.CallMethod(rec.Target, "onHTTPStatus", []runtime.Value{200}, runtime.ExecutionReasonSpecial)

			// An empty body counts as an unsuccessful load: onData gets
			// undefined rather than an empty string.
			var data runtime.Value = runtime.Undef
			if length > 0 {
				data = decodeTextLossy(resp.Body)
			}
			act.CallMethod(rec.Target, "onData", []runtime.Value{data}, runtime.ExecutionReasonSpecial)
			return nil
		})
	}
}

// LoadDataIntoURLLoader registers a data load that materializes the body per
// format into the target's data property, then dispatches open and complete.
func (m *Manager) LoadDataIntoURLLoader(ref PlayerRef, target runtime.Avm2Object, req backend.Request, format DataFormat) Future {
	rec := &URLLoaderRecord{recordBase: recordBase{loadID: newLoadID()}, Target: target}
	h := m.Add(rec)

	return func(ctx context.Context) error {
		p, ok := ref.TryUpgrade()
		if !ok {
			return nil
		}
		resp, ferr := p.Navigator().Fetch(ctx, req)

		p, ok = ref.TryUpgrade()
		if !ok {
			return nil
		}
		return p.Update(func(uc *UpdateContext) error {
			r, ok := uc.Loads.Get(h)
			if !ok {
				return ErrCancelled
			}
			rec, ok := r.(*URLLoaderRecord)
			if !ok {
				wrongKind("url loader", r)
			}
			defer uc.Loads.finish(h, ferr == nil)

			if ferr != nil {
				// The data property is cleared on error by applying the
				// format to an empty buffer.
				if err := setURLLoaderData(uc, rec.Target, nil, format); err != nil {
					return err
				}
				return dispatchIOError(uc, rec.Target)
			}

			// open should fire just before the fetch starts, but must not
			// fire at all when opening the connection fails. Fetch failure
			// is only observable after the fact here, so open fires late;
			// what matters for compatibility is fired-vs-not-fired.
			dispatchBare(uc, infoEventOpen, rec.Target)
			if err := setURLLoaderData(uc, rec.Target, resp.Body, format); err != nil {
				return err
			}
			dispatchBare(uc, infoEventComplete, rec.Target)
			return nil
		})
	}
}

// setURLLoaderData materializes body per format and stores it on the
// target's data property.
func setURLLoaderData(uc *UpdateContext, target runtime.Avm2Object, body []byte, format DataFormat) error {
	act := uc.Avm2.NewActivation()

	var data runtime.Value
	switch format {
	case FormatBinary:
		obj, err := act.NewByteArray(body)
		if err != nil {
			return &ScriptError{VM: "avm2", Msg: err.Error()}
		}
		data = obj
	case FormatText:
		data = act.NewString(body)
	case FormatVariables:
		uc.Logger().Warn("support for URLLoaderDataFormat.VARIABLES not yet implemented")
		data = runtime.Undef
	}

	if err := act.SetPublicProperty(target, "data", data); err != nil {
		return &ScriptError{VM: "avm2", Msg: err.Error()}
	}
	return nil
}

// LoadSoundAvm1 registers an MP3 load into a legacy sound object. The
// target's onLoad callback reports success; for streaming sounds, playback
// is requested once the load finishes, whether or not registration succeeded.
func (m *Manager) LoadSoundAvm1(ref PlayerRef, target runtime.SoundObject, req backend.Request, isStreaming bool) Future {
	rec := &SoundAvm1Record{recordBase: recordBase{loadID: newLoadID()}, Target: target}
	h := m.Add(rec)

	return func(ctx context.Context) error {
		p, ok := ref.TryUpgrade()
		if !ok {
			return nil
		}
		resp, ferr := p.Navigator().Fetch(ctx, req)

		p, ok = ref.TryUpgrade()
		if !ok {
			return nil
		}
		return p.Update(func(uc *UpdateContext) error {
			r, ok := uc.Loads.Get(h)
			if !ok {
				return ErrCancelled
			}
			rec, ok := r.(*SoundAvm1Record)
			if !ok {
				wrongKind("sound", r)
			}

			success := false
			defer func() { uc.Loads.finish(h, success) }()
			if ferr == nil {
				if handle, err := uc.Audio.RegisterMP3(resp.Body); err == nil {
					rec.Target.SetSound(handle)
					if d, known := uc.Audio.SoundDuration(handle); known {
						rec.Target.SetDuration(uint32(math.Round(d)), true)
					} else {
						rec.Target.SetDuration(0, false)
					}
					success = true
				} else {
					uc.Logger().Warn("rejected sound data",
						slog.String("load_id", rec.LoadID().String()),
						slog.String("error", err.Error()),
					)
				}
			}

			act := uc.Avm1.NewActivation("[Loader]")
			act.CallMethod(rec.Target, "onLoad", []runtime.Value{success}, runtime.ExecutionReasonSpecial)

			// Streaming sounds auto-play. Only the onLoad argument is gated
			// on registration success; playback is requested either way and
			// is a no-op on a sound object with nothing attached.
			if isStreaming {
				if err := act.StartSound(rec.Target); err != nil {
					return &ScriptError{VM: "avm1", Msg: err.Error()}
				}
			}
			return nil
		})
	}
}

// LoadSoundAvm2 registers an MP3 load into an info-object-dialect sound
// target, dispatching open and complete on success, ioError on failure.
func (m *Manager) LoadSoundAvm2(ref PlayerRef, target runtime.Avm2Object, req backend.Request) Future {
	rec := &SoundAvm2Record{recordBase: recordBase{loadID: newLoadID()}, Target: target}
	h := m.Add(rec)

	return func(ctx context.Context) error {
		p, ok := ref.TryUpgrade()
		if !ok {
			return nil
		}
		resp, ferr := p.Navigator().Fetch(ctx, req)

		p, ok = ref.TryUpgrade()
		if !ok {
			return nil
		}
		return p.Update(func(uc *UpdateContext) error {
			r, ok := uc.Loads.Get(h)
			if !ok {
				return ErrCancelled
			}
			rec, ok := r.(*SoundAvm2Record)
			if !ok {
				wrongKind("sound", r)
			}
			defer uc.Loads.finish(h, ferr == nil)

			if ferr != nil {
				return dispatchIOError(uc, rec.Target)
			}

			handle, err := uc.Audio.RegisterMP3(resp.Body)
			if err != nil {
				return &InvalidSoundError{Err: err}
			}
			act := uc.Avm2.NewActivation()
			if err := act.SetSoundOn(rec.Target, handle); err != nil {
				uc.Logger().Error("error when setting sound",
					slog.String("load_id", rec.LoadID().String()),
					slog.String("error", err.Error()),
				)
			}

			// open should precede the fetch; it fires after instead so an
			// IO error never emits a spurious open. Same tradeoff as the
			// URL loader path.
			dispatchBare(uc, infoEventOpen, rec.Target)
			dispatchBare(uc, infoEventComplete, rec.Target)
			return nil
		})
	}
}

// LoadNetStream registers a media load that buffers into a net stream.
func (m *Manager) LoadNetStream(ref PlayerRef, target runtime.NetStream, req backend.Request) Future {
	rec := &NetStreamRecord{recordBase: recordBase{loadID: newLoadID()}, Target: target}
	h := m.Add(rec)

	return func(ctx context.Context) error {
		p, ok := ref.TryUpgrade()
		if !ok {
			return nil
		}
		resp, ferr := p.Navigator().Fetch(ctx, req)

		p, ok = ref.TryUpgrade()
		if !ok {
			return nil
		}
		return p.Update(func(uc *UpdateContext) error {
			r, ok := uc.Loads.Get(h)
			if !ok {
				return ErrCancelled
			}
			rec, ok := r.(*NetStreamRecord)
			if !ok {
				wrongKind("netstream", r)
			}
			defer uc.Loads.finish(h, ferr == nil)

			if ferr != nil {
				rec.Target.ReportError(ferr)
				return nil
			}
			rec.Target.LoadBuffer(resp.Body)
			return nil
		})
	}
}

// finish removes a non-movie record after its terminal callback and counts
// the outcome. Movie records never come through here; their removal belongs
// to the per-frame sweep.
func (m *Manager) finish(h Handle, success bool) {
	r, ok := m.Remove(h)
	if !ok {
		return
	}
	if success {
		loadsCompletedTotal.WithLabelValues(kindLabel(r)).Inc()
	} else {
		loadsFailedTotal.WithLabelValues(kindLabel(r)).Inc()
	}
}

// formPair is one decoded form field. Order of appearance is preserved.
type formPair struct {
	key   string
	value string
}

// parseFormURLEncoded decodes an application/x-www-form-urlencoded body,
// preserving pair order and duplicates. Fields that fail percent-decoding
// keep their raw text rather than being dropped.
func parseFormURLEncoded(body []byte) []formPair {
	var pairs []formPair
	for _, segment := range strings.Split(string(body), "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		pairs = append(pairs, formPair{key: key, value: value})
	}
	return pairs
}

// decodeTextLossy decodes bytes as UTF-8, replacing invalid sequences with
// the replacement character instead of failing.
func decodeTextLossy(body []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
