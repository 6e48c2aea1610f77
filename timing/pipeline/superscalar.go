package pipeline

// SuperscalarConfig controls how many instructions issue and retire per
// cycle. Issue and commit stay in program order at any width.
type SuperscalarConfig struct {
	// IssueWidth is the maximum number of instructions that can be issued per cycle.
	// Default is 1 (single-issue).
	IssueWidth int
	// CommitWidth is the maximum number of instructions retired per cycle.
	// Default is 1.
	CommitWidth int
}

// DefaultSuperscalarConfig returns the default superscalar configuration (single-issue).
func DefaultSuperscalarConfig() SuperscalarConfig {
	return SuperscalarConfig{
		IssueWidth:  1,
		CommitWidth: 1,
	}
}

// DualIssueConfig returns a dual-issue, dual-commit configuration.
func DualIssueConfig() SuperscalarConfig {
	return SuperscalarConfig{
		IssueWidth:  2,
		CommitWidth: 2,
	}
}

// WithSuperscalar sets the superscalar configuration, overriding the
// widths of the timing configuration.
func WithSuperscalar(config SuperscalarConfig) EngineOption {
	return func(e *Engine) {
		e.superscalarConfig = config
	}
}

// WithDualIssue enables dual-issue superscalar execution.
func WithDualIssue() EngineOption {
	return func(e *Engine) {
		e.superscalarConfig = DualIssueConfig()
	}
}

// Superscalar returns the widths in effect.
func (e *Engine) Superscalar() SuperscalarConfig {
	return e.superscalarConfig
}
