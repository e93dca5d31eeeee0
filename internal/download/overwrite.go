package download

import "sync"

// Decision is the user's answer to an overwrite prompt.
type Decision int

const (
	// DecisionReplace overwrites the existing file.
	DecisionReplace Decision = iota

	// DecisionSkip leaves the existing file and moves on.
	DecisionSkip
)

// PromptFunc asks the user what to do about an existing file at path. It
// returns the decision and whether it applies to the rest of the batch. The
// UI bridges this onto a modal dialog; tests supply plain functions.
type PromptFunc func(path string) (Decision, bool)

// OverwritePolicy wraps a PromptFunc and remembers an apply-to-all answer so
// the user is asked at most once per batch.
type OverwritePolicy struct {
	mu       sync.Mutex
	prompt   PromptFunc
	decided  bool
	decision Decision
}

// NewOverwritePolicy creates a policy for one batch.
func NewOverwritePolicy(prompt PromptFunc) *OverwritePolicy {
	return &OverwritePolicy{prompt: prompt}
}

// Decide returns the overwrite decision for path, consulting the prompt only
// when no batch-wide answer has been given yet.
func (p *OverwritePolicy) Decide(path string) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.decided {
		return p.decision
	}
	if p.prompt == nil {
		return DecisionReplace
	}

	decision, applyToAll := p.prompt(path)
	if applyToAll {
		p.decided = true
		p.decision = decision
	}
	return decision
}
