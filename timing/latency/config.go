package latency

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/tomasim/insts"
)

// CDB arbitration policies.
const (
	// CDBSingle allows exactly one broadcast per cycle across all classes.
	CDBSingle = "single"

	// CDBPerClass allows one broadcast per functional-unit class per cycle.
	CDBPerClass = "per_class"
)

// MemoryWordGranule mirrors the granularity of the data memory capacity.
const MemoryWordGranule = 512

// TimingConfig holds latency values and structural capacities of the
// out-of-order core.
type TimingConfig struct {
	// AddLatency is the execution latency of ADD, SUB, ADDI and SUBI.
	// Default: 1 cycle.
	AddLatency uint64 `json:"add_latency" yaml:"add_latency"`

	// MulLatency is the execution latency of MUL. Default: 2 cycles.
	MulLatency uint64 `json:"mul_latency" yaml:"mul_latency"`

	// DivLatency is the execution latency of DIV, which shares the
	// multiply units. Default: 2 cycles.
	DivLatency uint64 `json:"div_latency" yaml:"div_latency"`

	// LoadLatency is the latency of a load once its address and ordering
	// constraints are satisfied. Default: 2 cycles.
	LoadLatency uint64 `json:"load_latency" yaml:"load_latency"`

	// StoreLatency is the latency for a store to produce its address and
	// value. Memory is written at commit. Default: 2 cycles.
	StoreLatency uint64 `json:"store_latency" yaml:"store_latency"`

	// BranchLatency is the latency to resolve a branch condition.
	// Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency" yaml:"branch_latency"`

	// Reservation stations per class.
	AddStations    int `json:"add_stations" yaml:"add_stations"`
	MulStations    int `json:"mul_stations" yaml:"mul_stations"`
	LoadStations   int `json:"load_stations" yaml:"load_stations"`
	StoreStations  int `json:"store_stations" yaml:"store_stations"`
	BranchStations int `json:"branch_stations" yaml:"branch_stations"`

	// Functional units per class.
	AddUnits    int `json:"add_units" yaml:"add_units"`
	MulUnits    int `json:"mul_units" yaml:"mul_units"`
	LoadUnits   int `json:"load_units" yaml:"load_units"`
	StoreUnits  int `json:"store_units" yaml:"store_units"`
	BranchUnits int `json:"branch_units" yaml:"branch_units"`

	// ROBSize is the number of reorder buffer entries. Default: 16.
	ROBSize int `json:"rob_size" yaml:"rob_size"`

	// IssueWidth is the maximum number of instructions issued per cycle.
	// Default: 1.
	IssueWidth int `json:"issue_width" yaml:"issue_width"`

	// CommitWidth is the maximum number of instructions retired per cycle.
	// Default: 1.
	CommitWidth int `json:"commit_width" yaml:"commit_width"`

	// CDBPolicy selects the broadcast arbitration policy. Default: "single".
	CDBPolicy string `json:"cdb_policy" yaml:"cdb_policy"`

	// MemoryWords is the data memory capacity in words. Default: 4096.
	MemoryWords uint64 `json:"memory_words" yaml:"memory_words"`
}

// DefaultTimingConfig returns a TimingConfig with the default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		AddLatency:    1,
		MulLatency:    2,
		DivLatency:    2,
		LoadLatency:   2,
		StoreLatency:  2,
		BranchLatency: 1,

		AddStations:    3,
		MulStations:    2,
		LoadStations:   2,
		StoreStations:  2,
		BranchStations: 1,

		AddUnits:    2,
		MulUnits:    2,
		LoadUnits:   2,
		StoreUnits:  2,
		BranchUnits: 1,

		ROBSize:     16,
		IssueWidth:  1,
		CommitWidth: 1,
		CDBPolicy:   CDBSingle,
		MemoryWords: 4096,
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads a TimingConfig from a JSON or YAML file. The format is
// chosen by extension. Fields absent from the file keep their defaults.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON or YAML file, chosen by
// extension.
func (c *TimingConfig) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that latencies and capacities are usable.
func (c *TimingConfig) Validate() error {
	latencies := []struct {
		name  string
		value uint64
	}{
		{"add_latency", c.AddLatency},
		{"mul_latency", c.MulLatency},
		{"div_latency", c.DivLatency},
		{"load_latency", c.LoadLatency},
		{"store_latency", c.StoreLatency},
		{"branch_latency", c.BranchLatency},
	}
	for _, l := range latencies {
		if l.value == 0 {
			return fmt.Errorf("%s must be > 0", l.name)
		}
	}

	for _, class := range insts.ExecClasses {
		if c.Stations(class) <= 0 {
			return fmt.Errorf("%s stations must be > 0", strings.ToLower(class.String()))
		}
		if c.Units(class) <= 0 {
			return fmt.Errorf("%s units must be > 0", strings.ToLower(class.String()))
		}
	}

	if c.ROBSize <= 0 {
		return fmt.Errorf("rob_size must be > 0")
	}
	if c.IssueWidth <= 0 {
		return fmt.Errorf("issue_width must be > 0")
	}
	if c.CommitWidth <= 0 {
		return fmt.Errorf("commit_width must be > 0")
	}
	if c.CDBPolicy != CDBSingle && c.CDBPolicy != CDBPerClass {
		return fmt.Errorf("cdb_policy must be %q or %q, got %q", CDBSingle, CDBPerClass, c.CDBPolicy)
	}
	if c.MemoryWords == 0 || c.MemoryWords%MemoryWordGranule != 0 {
		return fmt.Errorf("memory_words must be a positive multiple of %d", MemoryWordGranule)
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}

// Stations returns the number of reservation stations for a class.
func (c *TimingConfig) Stations(class insts.Class) int {
	switch class {
	case insts.ClassAdd:
		return c.AddStations
	case insts.ClassMul:
		return c.MulStations
	case insts.ClassLoad:
		return c.LoadStations
	case insts.ClassStore:
		return c.StoreStations
	case insts.ClassBranch:
		return c.BranchStations
	default:
		return 0
	}
}

// Units returns the number of functional units for a class.
func (c *TimingConfig) Units(class insts.Class) int {
	switch class {
	case insts.ClassAdd:
		return c.AddUnits
	case insts.ClassMul:
		return c.MulUnits
	case insts.ClassLoad:
		return c.LoadUnits
	case insts.ClassStore:
		return c.StoreUnits
	case insts.ClassBranch:
		return c.BranchUnits
	default:
		return 0
	}
}
