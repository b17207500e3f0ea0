// Package stage provides a minimal display-tree implementation: a stage
// root, movie clips with budgeted tag preloading, bitmap leaves, and
// per-movie libraries. It backs the standalone player binary; the full
// rendering display tree lives outside this subsystem.
package stage

import (
	"encoding/binary"

	"github.com/jmylchreest/swfplayer/internal/limits"
	"github.com/jmylchreest/swfplayer/internal/runtime"
	"github.com/jmylchreest/swfplayer/internal/swf"
)

// MovieClip is a display node that carries a movie. It implements
// runtime.MovieClip and runtime.Container.
type MovieClip struct {
	movie      *swf.Movie
	loaderInfo runtime.LoaderInfoObject

	preloadPos  int
	preloadDone bool

	children []runtime.DisplayObject
	depths   map[int]runtime.DisplayObject

	skipNextEnterFrame bool
	instantiated       bool
	currentFrame       uint16

	// OnClipEvent, when set, observes legacy clip events.
	OnClipEvent func(e runtime.ClipEvent)
}

// NewMovieClip creates an empty clip.
func NewMovieClip() *MovieClip {
	return &MovieClip{depths: make(map[int]runtime.DisplayObject)}
}

// AsMovieClip implements runtime.DisplayObject.
func (c *MovieClip) AsMovieClip() (runtime.MovieClip, bool) {
	return c, true
}

// ScriptObject implements runtime.DisplayObject. The clip stands in for its
// own script object in this minimal tree.
func (c *MovieClip) ScriptObject() runtime.Value {
	return c
}

// Movie implements runtime.MovieClip.
func (c *MovieClip) Movie() *swf.Movie {
	return c.movie
}

// ReplaceWithMovie implements runtime.MovieClip. A nil movie resets the clip
// to empty content.
func (c *MovieClip) ReplaceWithMovie(movie *swf.Movie, loaderInfo runtime.LoaderInfoObject) {
	c.movie = movie
	c.loaderInfo = loaderInfo
	c.preloadPos = 0
	c.preloadDone = movie == nil || movie.IsImageStub() || len(movie.Data()) == 0
	c.children = nil
	c.depths = make(map[int]runtime.DisplayObject)
	c.instantiated = false
	c.currentFrame = 0
}

// Preload implements runtime.MovieClip. One operation is one tag scanned
// from the movie's tag stream.
func (c *MovieClip) Preload(limit *limits.ExecutionLimit) bool {
	if c.preloadDone || c.movie == nil {
		c.preloadDone = true
		return true
	}
	data := c.movie.Data()
	if c.preloadPos == 0 && len(data) > 0 {
		// The tag stream follows the stage rectangle, frame rate and frame
		// count at the head of the body.
		rectBits := 5 + 4*int(data[0]>>3)
		c.preloadPos = min((rectBits+7)/8+4, len(data))
	}
	for c.preloadPos < len(data) {
		if limit.DidOpsBreachLimit(1) {
			return false
		}
		c.preloadPos += tagLen(data[c.preloadPos:])
	}
	c.preloadPos = len(data)
	c.preloadDone = true
	return true
}

// tagLen returns the total byte length of the tag at the head of data: the
// u16 code-and-length word, an optional u32 long length, and the body.
func tagLen(data []byte) int {
	if len(data) < 2 {
		return len(data)
	}
	word := binary.LittleEndian.Uint16(data)
	length := int(word & 0x3F)
	header := 2
	if length == 0x3F {
		if len(data) < 6 {
			return len(data)
		}
		length = int(binary.LittleEndian.Uint32(data[2:6]))
		header = 6
	}
	if header+length > len(data) {
		return len(data)
	}
	return header + length
}

// CompressedLoadedBytes implements runtime.MovieClip. The counter is derived
// proportionally from tag-stream progress over the on-wire length.
func (c *MovieClip) CompressedLoadedBytes() uint32 {
	if c.movie == nil {
		return 0
	}
	total := c.movie.CompressedLen()
	if c.preloadDone {
		return uint32(total)
	}
	bodyLen := len(c.movie.Data())
	if bodyLen == 0 {
		return uint32(total)
	}
	return uint32(total * c.preloadPos / bodyLen)
}

// CompressedTotalBytes implements runtime.MovieClip.
func (c *MovieClip) CompressedTotalBytes() uint32 {
	if c.movie == nil {
		return 0
	}
	return uint32(c.movie.CompressedLen())
}

// Avm1Unload implements runtime.MovieClip.
func (c *MovieClip) Avm1Unload() {
	c.DispatchClipEvent(runtime.ClipEventUnload)
}

// PostInstantiation implements runtime.MovieClip.
func (c *MovieClip) PostInstantiation() {
	c.instantiated = true
}

// CatchupToFrame implements runtime.MovieClip.
func (c *MovieClip) CatchupToFrame() {
	if c.movie != nil && c.movie.Header().NumFrames > 0 {
		c.currentFrame = 1
	}
}

// SetSkipNextEnterFrame implements runtime.MovieClip.
func (c *MovieClip) SetSkipNextEnterFrame(skip bool) {
	c.skipNextEnterFrame = skip
}

// SkipNextEnterFrame reports the pending skip flag and is consumed by the
// frame driver.
func (c *MovieClip) SkipNextEnterFrame() bool {
	return c.skipNextEnterFrame
}

// ReplaceAtDepth implements runtime.MovieClip.
func (c *MovieClip) ReplaceAtDepth(child runtime.DisplayObject, depth int) {
	c.depths[depth] = child
}

// ChildAtDepth returns the child installed at the given depth.
func (c *MovieClip) ChildAtDepth(depth int) (runtime.DisplayObject, bool) {
	child, ok := c.depths[depth]
	return child, ok
}

// InsertAtIndex implements runtime.Container.
func (c *MovieClip) InsertAtIndex(child runtime.DisplayObject, index int) {
	if index < 0 {
		index = 0
	}
	if index > len(c.children) {
		index = len(c.children)
	}
	c.children = append(c.children, nil)
	copy(c.children[index+1:], c.children[index:])
	c.children[index] = child
}

// Children returns the clip's ordered child list.
func (c *MovieClip) Children() []runtime.DisplayObject {
	return c.children
}

// DispatchClipEvent implements runtime.MovieClip.
func (c *MovieClip) DispatchClipEvent(e runtime.ClipEvent) {
	if c.OnClipEvent != nil {
		c.OnClipEvent(e)
	}
}

// CurrentFrame returns the clip's current frame number.
func (c *MovieClip) CurrentFrame() uint16 {
	return c.currentFrame
}
