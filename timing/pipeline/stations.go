package pipeline

import (
	"errors"

	"github.com/sarchlab/tomasim/insts"
)

// ErrNoFreeStation is returned when every station of a class is in use.
var ErrNoFreeStation = errors.New("no free reservation station")

// StationState is the state of a reservation station slot.
type StationState uint8

// Reservation station states.
const (
	StationEmpty StationState = iota
	StationWaiting
	StationReady
	StationExecuting
	StationDone
)

var stationStateNames = [...]string{"empty", "waiting", "ready", "executing", "done"}

func (s StationState) String() string {
	if int(s) < len(stationStateNames) {
		return stationStateNames[s]
	}
	return "unknown"
}

// Station is one reservation station slot.
type Station struct {
	ID    int
	Class insts.Class
	State StationState

	Inst        *insts.Instruction
	Tag         Tag
	Seq         uint64
	Speculative bool

	// Source operands. Qj/Qk name the pending producer, or NoTag once the
	// matching V field holds the value.
	Vj, Vk int64
	Qj, Qk Tag

	// Imm is the immediate operand or memory offset.
	Imm int64

	// Results, valid once the station is done.
	Result     int64
	Taken      bool
	Address    int64
	StoreValue int64

	// Unit is the functional unit executing the entry, or -1.
	Unit int
}

// OperandsReady reports whether both sources hold values.
func (s *Station) OperandsReady() bool {
	return s.Qj == NoTag && s.Qk == NoTag
}

// StationPool is a fixed arena of reservation stations grouped by class.
type StationPool struct {
	stations []Station
	byClass  [insts.NumClasses][]int
}

// NewStationPool creates counts[class] stations for each class.
func NewStationPool(counts map[insts.Class]int) *StationPool {
	p := &StationPool{}
	for _, class := range insts.ExecClasses {
		for i := 0; i < counts[class]; i++ {
			id := len(p.stations)
			p.stations = append(p.stations, Station{ID: id, Class: class})
			p.byClass[class] = append(p.byClass[class], id)
		}
	}
	p.Reset()
	return p
}

// Len returns the total number of stations.
func (p *StationPool) Len() int {
	return len(p.stations)
}

// Get returns the station with the given id.
func (p *StationPool) Get(id int) *Station {
	return &p.stations[id]
}

// FreeCount returns the number of empty stations of a class.
func (p *StationPool) FreeCount(class insts.Class) int {
	n := 0
	for _, id := range p.byClass[class] {
		if p.stations[id].State == StationEmpty {
			n++
		}
	}
	return n
}

// Issue places an instruction into a free station of its class. j and k
// are the already renamed source operands.
func (p *StationPool) Issue(
	inst *insts.Instruction,
	tag Tag,
	seq uint64,
	speculative bool,
	j, k Operand,
) (int, error) {
	for _, id := range p.byClass[inst.Class()] {
		s := &p.stations[id]
		if s.State != StationEmpty {
			continue
		}

		*s = Station{
			ID:          s.ID,
			Class:       s.Class,
			State:       StationWaiting,
			Inst:        inst,
			Tag:         tag,
			Seq:         seq,
			Speculative: speculative,
			Vj:          j.Value,
			Qj:          j.Tag,
			Vk:          k.Value,
			Qk:          k.Tag,
			Imm:         inst.Imm,
			Unit:        -1,
		}
		if j.Ready {
			s.Qj = NoTag
		}
		if k.Ready {
			s.Qk = NoTag
		}
		return id, nil
	}
	return -1, ErrNoFreeStation
}

// Capture snoops a broadcast, resolving every source waiting on tag.
func (p *StationPool) Capture(tag Tag, value int64) {
	for i := range p.stations {
		s := &p.stations[i]
		if s.State == StationEmpty {
			continue
		}
		if s.Qj == tag {
			s.Vj, s.Qj = value, NoTag
		}
		if s.Qk == tag {
			s.Vk, s.Qk = value, NoTag
		}
	}
}

// Promote moves waiting entries whose operands are available to ready.
func (p *StationPool) Promote() {
	for i := range p.stations {
		s := &p.stations[i]
		if s.State == StationWaiting && s.OperandsReady() {
			s.State = StationReady
		}
	}
}

// InState returns the ids of stations in the given state, oldest first.
func (p *StationPool) InState(state StationState) []int {
	var ids []int
	for i := range p.stations {
		if p.stations[i].State == state {
			ids = append(ids, i)
		}
	}
	sortBySeq(ids, func(id int) uint64 { return p.stations[id].Seq })
	return ids
}

// Free empties a station.
func (p *StationPool) Free(id int) {
	s := &p.stations[id]
	*s = Station{ID: s.ID, Class: s.Class, Tag: NoTag, Qj: NoTag, Qk: NoTag, Unit: -1}
}

// FlushAfter empties every station younger than seq and returns the
// functional units they occupied.
func (p *StationPool) FlushAfter(seq uint64) []int {
	var units []int
	for i := range p.stations {
		s := &p.stations[i]
		if s.State == StationEmpty || s.Seq <= seq {
			continue
		}
		if s.State == StationExecuting {
			units = append(units, s.Unit)
		}
		p.Free(i)
	}
	return units
}

// Snapshot returns copies of every station.
func (p *StationPool) Snapshot() []Station {
	out := make([]Station, len(p.stations))
	copy(out, p.stations)
	return out
}

// Reset empties every station.
func (p *StationPool) Reset() {
	for i := range p.stations {
		p.Free(i)
	}
}
