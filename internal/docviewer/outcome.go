package docviewer

// Outcome names how a resolution ended.
type Outcome string

const (
	OutcomeFound           Outcome = "found"
	OutcomeNoConfig        Outcome = "no_config"
	OutcomeAmbiguousConfig Outcome = "ambiguous_config"
	OutcomeMalformedConfig Outcome = "malformed_config"
	OutcomeInvalidSettings Outcome = "invalid_settings"
	OutcomeNoDefaultBranch Outcome = "no_default_branch"
	OutcomeError           Outcome = "error"
)

// Outcomes lists every outcome in a stable order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeFound,
		OutcomeNoConfig,
		OutcomeAmbiguousConfig,
		OutcomeMalformedConfig,
		OutcomeInvalidSettings,
		OutcomeNoDefaultBranch,
		OutcomeError,
	}
}

func (o Outcome) String() string { return string(o) }

// Describe returns a short human readable explanation of the outcome.
func (o Outcome) Describe() string {
	switch o {
	case OutcomeFound:
		return "documentation viewer is available"
	case OutcomeNoConfig:
		return "repository has no documentation.yaml or documentation.yml at its root"
	case OutcomeAmbiguousConfig:
		return "both documentation.yaml and documentation.yml exist, only one is allowed"
	case OutcomeMalformedConfig:
		return "documentation configuration could not be parsed"
	case OutcomeInvalidSettings:
		return "documentation settings are invalid"
	case OutcomeNoDefaultBranch:
		return "repository has no default branch"
	case OutcomeError:
		return "repository could not be inspected"
	default:
		return string(o)
	}
}
