package player

import (
	"weak"

	"github.com/jmylchreest/swfplayer/internal/loader"
)

// weakRef implements loader.PlayerRef over a runtime weak pointer, so that
// in-flight load futures never keep a torn-down player alive: once the last
// strong reference drops, TryUpgrade fails and the futures exit silently.
type weakRef struct {
	ptr weak.Pointer[Player]
}

// NewWeakRef creates a weak reference to p.
func NewWeakRef(p *Player) loader.PlayerRef {
	return weakRef{ptr: weak.Make(p)}
}

// TryUpgrade implements loader.PlayerRef.
func (r weakRef) TryUpgrade() (loader.Player, bool) {
	p := r.ptr.Value()
	if p == nil {
		return nil, false
	}
	return p, true
}
