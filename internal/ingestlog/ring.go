package ingestlog

// DefaultCapacity caps the retained session log.
const DefaultCapacity = 100

// RingBuffer keeps the newest entries up to a fixed capacity, evicting the
// oldest ones first.
type RingBuffer struct {
	entries []Entry
	start   int
	size    int
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RingBuffer{entries: make([]Entry, capacity)}
}

func (r *RingBuffer) Append(e Entry) {
	idx := (r.start + r.size) % len(r.entries)
	r.entries[idx] = e
	if r.size < len(r.entries) {
		r.size++
	} else {
		r.start = (r.start + 1) % len(r.entries)
	}
}

func (r *RingBuffer) Entries() []Entry {
	out := make([]Entry, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.entries[(r.start+i)%len(r.entries)]
	}
	return out
}

func (r *RingBuffer) Clear() {
	r.start = 0
	r.size = 0
}
