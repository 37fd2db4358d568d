package core

// Environment identifies where the service is running. It steers logging
// verbosity and output format at startup.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the environment is the production one.
func (e Environment) IsProduction() bool {
	return e == Production
}

// ParseEnvironment maps an ENVIRONMENT value to a known environment.
// Unrecognized values fall back to Development so a bad value never
// blocks startup.
func ParseEnvironment(v string) Environment {
	switch Environment(v) {
	case Production, Staging, Testing:
		return Environment(v)
	default:
		return Development
	}
}
