package core

// EntityID identifies a live entity among entities of the same kind in one room.
type EntityID int

// IDPool hands out small integer ids and recycles released ones.
// It is scoped to one entity collection of one room.
type IDPool struct {
	next     EntityID
	released map[EntityID]struct{}
}

// NewIDPool returns a pool whose first fresh id is 1.
func NewIDPool() *IDPool {
	return &IDPool{
		next:     1,
		released: make(map[EntityID]struct{}),
	}
}

// Generate returns a released id if there is one, otherwise the next counter value.
func (p *IDPool) Generate() EntityID {
	for id := range p.released {
		delete(p.released, id)
		return id
	}
	id := p.next
	p.next++
	return id
}

// Release makes id available again. Releasing an id twice is not detected.
func (p *IDPool) Release(id EntityID) {
	p.released[id] = struct{}{}
}
