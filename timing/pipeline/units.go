package pipeline

import "github.com/sarchlab/tomasim/insts"

// FunctionalUnit is one execution unit of a class.
type FunctionalUnit struct {
	ID    int
	Class insts.Class

	Busy      bool
	Station   int
	Tag       Tag
	Remaining uint64
}

// UnitPool holds a fixed set of functional units per class.
type UnitPool struct {
	units   []FunctionalUnit
	byClass [insts.NumClasses][]int
}

// NewUnitPool creates counts[class] units for each class.
func NewUnitPool(counts map[insts.Class]int) *UnitPool {
	p := &UnitPool{}
	for _, class := range insts.ExecClasses {
		for i := 0; i < counts[class]; i++ {
			id := len(p.units)
			p.units = append(p.units, FunctionalUnit{ID: id, Class: class})
			p.byClass[class] = append(p.byClass[class], id)
		}
	}
	p.Reset()
	return p
}

// FreeUnit returns a free unit of the class, or -1.
func (p *UnitPool) FreeUnit(class insts.Class) int {
	for _, id := range p.byClass[class] {
		if !p.units[id].Busy {
			return id
		}
	}
	return -1
}

// Start occupies a unit for latency cycles on behalf of a station.
func (p *UnitPool) Start(id int, station int, tag Tag, latency uint64) {
	u := &p.units[id]
	u.Busy = true
	u.Station = station
	u.Tag = tag
	u.Remaining = latency
}

// Advance counts down every busy unit by one cycle. Units that reach zero
// are freed and their stations returned.
func (p *UnitPool) Advance() []int {
	var finished []int
	for i := range p.units {
		u := &p.units[i]
		if !u.Busy {
			continue
		}
		if u.Remaining > 0 {
			u.Remaining--
		}
		if u.Remaining == 0 {
			finished = append(finished, u.Station)
			p.Release(i)
		}
	}
	return finished
}

// Release frees a unit.
func (p *UnitPool) Release(id int) {
	u := &p.units[id]
	*u = FunctionalUnit{ID: u.ID, Class: u.Class, Station: -1, Tag: NoTag}
}

// BusyCount returns the number of busy units of a class.
func (p *UnitPool) BusyCount(class insts.Class) int {
	n := 0
	for _, id := range p.byClass[class] {
		if p.units[id].Busy {
			n++
		}
	}
	return n
}

// Snapshot returns copies of every unit.
func (p *UnitPool) Snapshot() []FunctionalUnit {
	out := make([]FunctionalUnit, len(p.units))
	copy(out, p.units)
	return out
}

// Reset frees every unit.
func (p *UnitPool) Reset() {
	for i := range p.units {
		p.Release(i)
	}
}
