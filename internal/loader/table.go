package loader

// Handle is a stable identifier for a record in a Table. Handles use
// generational indices: once the record they name is removed, they are
// permanently invalid, even if the slot is reused.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero Handle, which never names a record.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

type slot struct {
	record     Record
	generation uint32
	occupied   bool
}

// Table is the arena of in-flight load records. A slot's generation starts at
// 1 and bumps each time the slot is filled, so a stale Handle can never alias
// a newer record in the same slot.
//
// The table is owned by the player's update context and must only be touched
// inside update sections; it does no locking of its own. Records held here
// keep their target objects reachable for as long as the load is in flight.
type Table struct {
	slots []slot
	free  []uint32
	count int
}

// Insert adds a record and returns its handle.
func (t *Table) Insert(r Record) Handle {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, slot{})
		idx = uint32(len(t.slots) - 1)
	}
	s := &t.slots[idx]
	s.generation++
	s.record = r
	s.occupied = true
	t.count++
	return Handle{index: idx, generation: s.generation}
}

// Get returns the record named by h, if it is still present.
func (t *Table) Get(h Handle) (Record, bool) {
	if int(h.index) >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[h.index]
	if !s.occupied || s.generation != h.generation {
		return nil, false
	}
	return s.record, true
}

// Remove deletes the record named by h and returns it. Removing an absent
// handle is a no-op.
func (t *Table) Remove(h Handle) (Record, bool) {
	if int(h.index) >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[h.index]
	if !s.occupied || s.generation != h.generation {
		return nil, false
	}
	r := s.record
	s.record = nil
	s.occupied = false
	t.free = append(t.free, h.index)
	t.count--
	return r, true
}

// Len returns the number of live records.
func (t *Table) Len() int {
	return t.count
}

// Handles returns a snapshot of all live handles in insertion-slot order.
func (t *Table) Handles() []Handle {
	out := make([]Handle, 0, t.count)
	for i := range t.slots {
		if t.slots[i].occupied {
			out = append(out, Handle{index: uint32(i), generation: t.slots[i].generation})
		}
	}
	return out
}

// EachReverse visits all live records from the highest slot down. Reverse
// order lets the per-frame sweep remove the visited record without
// disturbing indices it has not reached yet.
func (t *Table) EachReverse(f func(h Handle, r Record)) {
	for i := len(t.slots) - 1; i >= 0; i-- {
		if t.slots[i].occupied {
			f(Handle{index: uint32(i), generation: t.slots[i].generation}, t.slots[i].record)
		}
	}
}
