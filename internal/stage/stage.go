package stage

import (
	"fmt"

	"github.com/jmylchreest/swfplayer/internal/backend"
	"github.com/jmylchreest/swfplayer/internal/runtime"
	"github.com/jmylchreest/swfplayer/internal/swf"
)

// Stage is the display tree root. It implements runtime.Stage.
type Stage struct {
	root runtime.DisplayObject
}

// NewStage creates an empty stage.
func NewStage() *Stage {
	return &Stage{}
}

// RootClip implements runtime.Stage.
func (s *Stage) RootClip() (runtime.DisplayObject, bool) {
	if s.root == nil {
		return nil, false
	}
	return s.root, true
}

// SetRoot installs the root display object.
func (s *Stage) SetRoot(root runtime.DisplayObject) {
	s.root = root
}

// Bitmap is a leaf display node carrying a decoded image.
type Bitmap struct {
	bitmap *backend.Bitmap
}

// AsMovieClip implements runtime.DisplayObject.
func (b *Bitmap) AsMovieClip() (runtime.MovieClip, bool) {
	return nil, false
}

// ScriptObject implements runtime.DisplayObject.
func (b *Bitmap) ScriptObject() runtime.Value {
	return runtime.Undef
}

// Bitmap returns the decoded image.
func (b *Bitmap) Bitmap() *backend.Bitmap {
	return b.bitmap
}

// BitmapFactory implements runtime.BitmapFactory.
type BitmapFactory struct{}

// NewBitmap implements runtime.BitmapFactory.
func (BitmapFactory) NewBitmap(bmp *backend.Bitmap) (runtime.DisplayObject, error) {
	if bmp == nil || bmp.Pixels == nil {
		return nil, fmt.Errorf("bitmap has no pixel data")
	}
	return &Bitmap{bitmap: bmp}, nil
}

// Library implements runtime.Library with one entry per movie.
type Library struct {
	movies map[*swf.Movie]*MovieLibrary
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{movies: make(map[*swf.Movie]*MovieLibrary)}
}

// LibraryForMovie implements runtime.Library, creating on first use.
func (l *Library) LibraryForMovie(m *swf.Movie) runtime.MovieLibrary {
	if lib, ok := l.movies[m]; ok {
		return lib
	}
	lib := &MovieLibrary{}
	l.movies[m] = lib
	return lib
}

// MovieLibrary is one movie's symbol library.
type MovieLibrary struct {
	domain runtime.Avm2Domain
}

// SetAvm2Domain implements runtime.MovieLibrary.
func (l *MovieLibrary) SetAvm2Domain(d runtime.Avm2Domain) {
	l.domain = d
}

// Avm2Domain implements runtime.MovieLibrary.
func (l *MovieLibrary) Avm2Domain() runtime.Avm2Domain {
	return l.domain
}
