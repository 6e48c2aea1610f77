package pipeline

import (
	"sort"

	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/timing/latency"
)

// Broadcast is one result carried on the common data bus.
type Broadcast struct {
	Tag     Tag
	Seq     uint64
	Class   insts.Class
	Station int

	Value int64

	// Branch outcome, for branches.
	Taken bool

	// Store target, for stores.
	Address    int64
	StoreValue int64
}

// CDB arbitrates completed results onto the common data bus.
type CDB struct {
	policy string
}

// NewCDB creates a bus with the given arbitration policy. An unknown
// policy falls back to a single broadcast per cycle.
func NewCDB(policy string) *CDB {
	if policy != latency.CDBPerClass {
		policy = latency.CDBSingle
	}
	return &CDB{policy: policy}
}

// Policy returns the arbitration policy.
func (c *CDB) Policy() string {
	return c.policy
}

// Arbitrate picks this cycle's winners among completed results, oldest
// sequence number first. Losers are left for the next cycle.
func (c *CDB) Arbitrate(candidates []Broadcast) []Broadcast {
	if len(candidates) == 0 {
		return nil
	}

	ordered := make([]Broadcast, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Seq < ordered[j].Seq
	})

	if c.policy == latency.CDBSingle {
		return ordered[:1]
	}

	var winners []Broadcast
	var taken [insts.NumClasses]bool
	for _, b := range ordered {
		if taken[b.Class] {
			continue
		}
		taken[b.Class] = true
		winners = append(winners, b)
	}
	return winners
}

func sortBySeq(ids []int, seq func(int) uint64) {
	sort.SliceStable(ids, func(a, b int) bool {
		return seq(ids[a]) < seq(ids[b])
	})
}
