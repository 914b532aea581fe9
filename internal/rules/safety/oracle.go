package safety

// Verdict is the outcome of asking the version oracle about a declared
// provider constraint.
type Verdict int

const (
	VerdictValid Verdict = iota
	VerdictTooPermissive
	VerdictTooRestrictive
	VerdictUnresolvable
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictTooPermissive:
		return "too permissive"
	case VerdictTooRestrictive:
		return "too restrictive"
	default:
		return "unresolvable"
	}
}

// VersionOracle answers whether a declared provider version constraint is
// reasonable against the provider's actual release history. The core only
// interprets the verdict; network access, caching, and retries live with
// the implementation (see internal/oracle).
type VersionOracle interface {
	IsVersionValid(provider, declaredConstraint string) (Verdict, error)
}
