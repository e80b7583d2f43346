package shared

// InteractionPolicy specifies how services should handle states needing a human decision.
type InteractionPolicy int

const (
	// InteractionSkip indicates ambiguous states resolve to skipping the repository.
	InteractionSkip InteractionPolicy = iota
	// InteractionPrompt indicates the service should offer the operator a choice.
	InteractionPrompt
)

// InteractionPolicyFromVerbose converts the verbosity flag into a policy.
func InteractionPolicyFromVerbose(verbose bool) InteractionPolicy {
	if verbose {
		return InteractionPrompt
	}
	return InteractionSkip
}

// ShouldPrompt reports whether the service must consult the operator.
func (policy InteractionPolicy) ShouldPrompt() bool {
	return policy == InteractionPrompt
}
