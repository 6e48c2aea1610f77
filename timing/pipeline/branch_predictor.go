package pipeline

// Saturating counter bounds and the reset value.
const (
	CounterMax     uint8 = 3
	CounterDefault uint8 = 1 // weakly not taken
)

// BranchPredictorConfig holds configuration for the branch predictor.
type BranchPredictorConfig struct {
	// Sites is the number of branch sites the table is pre-sized for.
	// The table grows on demand, so this is only a hint.
	Sites int
	// InitialCounter is the value a site starts at. Default is 1
	// (weakly not taken).
	InitialCounter uint8
}

// DefaultBranchPredictorConfig returns a default configuration.
func DefaultBranchPredictorConfig() BranchPredictorConfig {
	return BranchPredictorConfig{
		Sites:          64,
		InitialCounter: CounterDefault,
	}
}

// BranchPredictorStats holds statistics for the branch predictor.
type BranchPredictorStats struct {
	// Predictions is the number of branches resolved at commit.
	Predictions uint64
	// Correct is the number of resolved branches whose issue-time
	// prediction matched the outcome.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
}

// Accuracy returns the fraction of correct predictions in [0, 1]. With
// no resolved branches the accuracy is 1.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 1
	}
	return float64(s.Correct) / float64(s.Predictions)
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s BranchPredictorStats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

// BranchPredictor implements per-site 2-bit saturating counters. A site
// is the branch's index in the program, so distinct branches never share
// a counter.
type BranchPredictor struct {
	// States: 0=Strongly Not Taken, 1=Weakly Not Taken,
	//         2=Weakly Taken, 3=Strongly Taken
	counters map[int]uint8

	initial uint8

	stats BranchPredictorStats
}

// NewBranchPredictor creates a new branch predictor with the given configuration.
func NewBranchPredictor(config BranchPredictorConfig) *BranchPredictor {
	initial := config.InitialCounter
	if initial > CounterMax {
		initial = CounterMax
	}
	sites := config.Sites
	if sites <= 0 {
		sites = 64
	}

	return &BranchPredictor{
		counters: make(map[int]uint8, sites),
		initial:  initial,
	}
}

// Counter returns the counter of a site.
func (bp *BranchPredictor) Counter(site int) uint8 {
	if c, ok := bp.counters[site]; ok {
		return c
	}
	return bp.initial
}

// Predict returns whether the branch at site is predicted taken.
func (bp *BranchPredictor) Predict(site int) bool {
	return bp.Counter(site) >= 2
}

// Update trains the site's counter with the actual outcome.
func (bp *BranchPredictor) Update(site int, taken bool) {
	counter := bp.Counter(site)
	if taken {
		if counter < CounterMax {
			counter++
		}
	} else {
		if counter > 0 {
			counter--
		}
	}
	bp.counters[site] = counter
}

// Record scores a resolved branch against the prediction made when it
// issued.
func (bp *BranchPredictor) Record(predicted, taken bool) {
	bp.stats.Predictions++
	if predicted == taken {
		bp.stats.Correct++
	} else {
		bp.stats.Mispredictions++
	}
}

// Stats returns the branch predictor statistics.
func (bp *BranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Reset clears all predictor state and statistics.
func (bp *BranchPredictor) Reset() {
	clear(bp.counters)
	bp.stats = BranchPredictorStats{}
}
