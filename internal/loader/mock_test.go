package loader

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/jmylchreest/swfplayer/internal/backend"
	"github.com/jmylchreest/swfplayer/internal/runtime"
	"github.com/jmylchreest/swfplayer/internal/stage"
	"github.com/jmylchreest/swfplayer/internal/swf"
)

// --- fetchers ---

func fetchOK(url string, body []byte) backend.FetcherFunc {
	return func(context.Context, backend.Request) (*backend.Response, error) {
		return &backend.Response{URL: url, Body: body, Status: 200}, nil
	}
}

func fetchErr(err error) backend.FetcherFunc {
	return func(context.Context, backend.Request) (*backend.Response, error) {
		return nil, err
	}
}

// --- legacy VM ---

type broadcastCall struct {
	Name string
	Args []runtime.Value
}

type fakeAvm1 struct {
	frames []broadcastCall
}

func (a *fakeAvm1) NewActivation(string) runtime.Avm1Activation {
	return &fakeAvm1Act{vm: a}
}

func (a *fakeAvm1) RunMethodFrame(_ runtime.DisplayObject, _ runtime.Avm1Object, name string, args []runtime.Value) {
	a.frames = append(a.frames, broadcastCall{Name: name, Args: args})
}

// broadcastEvents returns the first argument of every broadcastMessage
// frame, i.e. the legacy event names in emission order.
func (a *fakeAvm1) broadcastEvents() []string {
	var names []string
	for _, f := range a.frames {
		if f.Name == "broadcastMessage" && len(f.Args) > 0 {
			if s, ok := f.Args[0].(string); ok {
				names = append(names, s)
			}
		}
	}
	return names
}

type fakeAvm1Act struct {
	vm *fakeAvm1
}

func (act *fakeAvm1Act) SetProperty(obj runtime.Avm1Object, name string, v runtime.Value) error {
	target := avm1PropsOf(obj)
	if target == nil {
		return fmt.Errorf("object %T has no properties", obj)
	}
	target.setProp(name, v)
	return nil
}

func (act *fakeAvm1Act) CallMethod(obj runtime.Avm1Object, name string, args []runtime.Value, _ runtime.ExecutionReason) (runtime.Value, error) {
	target := avm1PropsOf(obj)
	if target == nil {
		return runtime.Undef, fmt.Errorf("object %T has no methods", obj)
	}
	target.calls = append(target.calls, broadcastCall{Name: name, Args: args})
	return runtime.Undef, nil
}

func (act *fakeAvm1Act) StartSound(obj runtime.SoundObject) error {
	obj.(*fakeSound).started = true
	return nil
}

// avm1Props is the recording half shared by every fake legacy object.
type avm1Props struct {
	propOrder []string
	props     map[string]runtime.Value
	calls     []broadcastCall
}

func (p *avm1Props) setProp(name string, v runtime.Value) {
	if p.props == nil {
		p.props = make(map[string]runtime.Value)
	}
	if _, seen := p.props[name]; !seen {
		p.propOrder = append(p.propOrder, name)
	}
	p.props[name] = v
}

func (p *avm1Props) callNames() []string {
	var names []string
	for _, c := range p.calls {
		names = append(names, c.Name)
	}
	return names
}

func avm1PropsOf(obj runtime.Avm1Object) *avm1Props {
	switch o := obj.(type) {
	case *fakeAvm1Object:
		return &o.avm1Props
	case *clipBackedObject:
		return &o.avm1Props
	case *fakeSound:
		return &o.avm1Props
	default:
		return nil
	}
}

type fakeAvm1Object struct {
	avm1Props
}

// clipBackedObject is a legacy object fronting a movie clip.
type clipBackedObject struct {
	avm1Props
	clip runtime.DisplayObject
}

func (o *clipBackedObject) AsDisplayObject() (runtime.DisplayObject, bool) {
	return o.clip, true
}

type fakeSound struct {
	avm1Props
	sound         backend.SoundHandle
	soundSet      bool
	durationMS    uint32
	durationKnown bool
	started       bool
}

func (s *fakeSound) SetSound(h backend.SoundHandle) {
	s.sound = h
	s.soundSet = true
}

func (s *fakeSound) SetDuration(ms uint32, known bool) {
	s.durationMS = ms
	s.durationKnown = known
}

// --- info-object VM ---

type avm2Event struct {
	Name   string
	Loaded int
	Total  int
	Text   string
	Code   int
}

type dispatchRecord struct {
	Event  avm2Event
	Target any
}

type fakeAvm2 struct {
	dispatched []dispatchRecord
}

func (a *fakeAvm2) NewActivation() runtime.Avm2Activation {
	return &fakeAvm2Act{vm: a}
}

func (a *fakeAvm2) NewActivationInDomain(d runtime.Avm2Domain) runtime.Avm2Activation {
	return &fakeAvm2Act{vm: a, domain: d}
}

// eventsFor summarizes the events dispatched to the given target, in order.
func (a *fakeAvm2) eventsFor(target any) []string {
	var out []string
	for _, d := range a.dispatched {
		if d.Target != target {
			continue
		}
		switch d.Event.Name {
		case "progress":
			out = append(out, fmt.Sprintf("progress(%d,%d)", d.Event.Loaded, d.Event.Total))
		case "ioError":
			out = append(out, fmt.Sprintf("ioError(%s,%d)", d.Event.Text, d.Event.Code))
		default:
			out = append(out, d.Event.Name)
		}
	}
	return out
}

type fakeAvm2Act struct {
	vm     *fakeAvm2
	domain runtime.Avm2Domain
}

func (act *fakeAvm2Act) NewBareEvent(name string) runtime.Event {
	return avm2Event{Name: name}
}

func (act *fakeAvm2Act) NewProgressEvent(name string, loaded, total int) (runtime.Event, error) {
	return avm2Event{Name: name, Loaded: loaded, Total: total}, nil
}

func (act *fakeAvm2Act) NewIOErrorEvent(text string, code int) (runtime.Event, error) {
	return avm2Event{Name: "ioError", Text: text, Code: code}, nil
}

func (act *fakeAvm2Act) Dispatch(evt runtime.Event, target runtime.Avm2Object) {
	act.vm.dispatched = append(act.vm.dispatched, dispatchRecord{Event: evt.(avm2Event), Target: target})
}

func (act *fakeAvm2Act) GetPublicProperty(obj runtime.Avm2Object, name string) (runtime.Value, error) {
	o := obj.(*fakeAvm2Object)
	if v, ok := o.props[name]; ok {
		return v, nil
	}
	return runtime.Undef, nil
}

func (act *fakeAvm2Act) SetPublicProperty(obj runtime.Avm2Object, name string, v runtime.Value) error {
	o := obj.(*fakeAvm2Object)
	if o.props == nil {
		o.props = make(map[string]runtime.Value)
	}
	o.props[name] = v
	return nil
}

func (act *fakeAvm2Act) NewByteArray(data []byte) (runtime.Avm2Object, error) {
	return &fakeByteArray{data: append([]byte(nil), data...)}, nil
}

func (act *fakeAvm2Act) NewString(data []byte) runtime.Value {
	return string(data)
}

func (act *fakeAvm2Act) ApplicationDomainOf(v runtime.Value) (runtime.Avm2Domain, bool) {
	d, ok := v.(*fakeDomain)
	return d, ok
}

func (act *fakeAvm2Act) MovieDomain(parent runtime.Avm2Domain) runtime.Avm2Domain {
	return &fakeDomain{parent: parent}
}

func (act *fakeAvm2Act) SetSoundOn(obj runtime.Avm2Object, h backend.SoundHandle) error {
	o := obj.(*fakeAvm2Object)
	o.sound = h
	o.soundSet = true
	return nil
}

type fakeAvm2Object struct {
	props    map[string]runtime.Value
	sound    backend.SoundHandle
	soundSet bool
}

type fakeDomain struct {
	parent runtime.Avm2Domain
}

type fakeByteArray struct {
	data []byte
}

// --- loader info ---

type fakeLoaderInfo struct {
	streams   []runtime.LoaderStream
	container *stage.MovieClip
}

func (li *fakeLoaderInfo) SetLoaderStream(s runtime.LoaderStream) {
	li.streams = append(li.streams, s)
}

func (li *fakeLoaderInfo) LoaderContainer(runtime.Avm2Activation) (runtime.Container, error) {
	if li.container == nil {
		return nil, nil
	}
	return li.container, nil
}

// --- net stream ---

type fakeNetStream struct {
	buffered [][]byte
	errors   []error
}

func (ns *fakeNetStream) LoadBuffer(data []byte) {
	ns.buffered = append(ns.buffered, data)
}

func (ns *fakeNetStream) ReportError(err error) {
	ns.errors = append(ns.errors, err)
}

// --- backends ---

type fakeAudio struct {
	registered   [][]byte
	failRegister bool
	duration     float64
	hasDuration  bool
}

func (a *fakeAudio) RegisterMP3(data []byte) (backend.SoundHandle, error) {
	if a.failRegister {
		return 0, fmt.Errorf("bad mp3")
	}
	a.registered = append(a.registered, data)
	return backend.SoundHandle(len(a.registered) - 1), nil
}

func (a *fakeAudio) SoundDuration(backend.SoundHandle) (float64, bool) {
	return a.duration, a.hasDuration
}

type fakeImaging struct {
	decoded int
	fail    bool
}

func (i *fakeImaging) DecodeDefineBitsJPEG(data []byte) (*backend.Bitmap, error) {
	if i.fail {
		return nil, fmt.Errorf("bad image")
	}
	i.decoded++
	return &backend.Bitmap{Width: 2, Height: 2, Pixels: image.NewRGBA(image.Rect(0, 0, 2, 2))}, nil
}

// --- player ---

// fakePlayer implements Player over the same manager the test drives. Every
// Update call is one synchronous update section.
type fakePlayer struct {
	mu sync.Mutex

	loads   *Manager
	avm1    *fakeAvm1
	avm2    *fakeAvm2
	stage   *stage.Stage
	library runtime.Library
	actions runtime.ActionQueue
	audio   *fakeAudio
	imaging *fakeImaging

	navigator backend.Fetcher

	spoofedURL string
	rewriteFn  func(string) string

	rootMovie  *swf.Movie
	rootFailed bool
	as3        bool
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		loads:   NewManager(slog.New(slog.DiscardHandler)),
		avm1:    &fakeAvm1{},
		avm2:    &fakeAvm2{},
		stage:   stage.NewStage(),
		library: stage.NewLibrary(),
		audio:   &fakeAudio{},
		imaging: &fakeImaging{},
	}
}

func (p *fakePlayer) Update(f func(uc *UpdateContext) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	uc := &UpdateContext{
		Loads:         p.loads,
		Avm1:          p.avm1,
		Avm2:          p.avm2,
		Stage:         p.stage,
		Library:       p.library,
		Actions:       &p.actions,
		Audio:         p.audio,
		Imaging:       p.imaging,
		Bitmaps:       stage.BitmapFactory{},
		ActionScript3: p.as3,
		Log:           slog.New(slog.DiscardHandler),
	}
	return f(uc)
}

func (p *fakePlayer) Navigator() backend.Fetcher {
	return p.navigator
}

func (p *fakePlayer) SetRootMovie(m *swf.Movie) {
	p.rootMovie = m
}

func (p *fakePlayer) RewriteSwfURL(url string) string {
	if p.rewriteFn != nil {
		return p.rewriteFn(url)
	}
	return url
}

func (p *fakePlayer) SpoofedURL() (string, bool) {
	if p.spoofedURL == "" {
		return "", false
	}
	return p.spoofedURL, true
}

func (p *fakePlayer) DisplayRootMovieDownloadFailedMessage() {
	p.rootFailed = true
}

// ref returns a live weak reference to the player.
func (p *fakePlayer) ref() PlayerRef {
	return fakeRef{p: p}
}

type fakeRef struct {
	p *fakePlayer
}

func (r fakeRef) TryUpgrade() (Player, bool) {
	if r.p == nil {
		return nil, false
	}
	return r.p, true
}
