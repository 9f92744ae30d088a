package assemble

// Strategy is the run-level packaging decision.
type Strategy int

const (
	// StrategyAIP builds the structured archival package only.
	StrategyAIP Strategy = iota
	// StrategyTar produces the compressed original-as-is tarball only.
	StrategyTar
	// StrategyBoth produces both.
	StrategyBoth
)

func (s Strategy) String() string {
	switch s {
	case StrategyTar:
		return "TAR"
	case StrategyBoth:
		return "AIP+TAR"
	default:
		return "AIP"
	}
}

// WantsAIP reports whether the structured package is built.
func (s Strategy) WantsAIP() bool {
	return s == StrategyAIP || s == StrategyBoth
}

// WantsTar reports whether the as-is tarball is built.
func (s Strategy) WantsTar() bool {
	return s == StrategyTar || s == StrategyBoth
}
