package leave

// Policy holds the per-type and overall annual day allowances. Balances are
// computed against it at read time; nothing here is persisted.
type Policy struct {
	PerType          map[string]int
	OverallAllowance int
}

func DefaultPolicy() Policy {
	return Policy{
		PerType: map[string]int{
			TypeSick:   6,
			TypeCasual: 6,
			TypeEarned: 6,
			TypeUnpaid: 0,
		},
		OverallAllowance: 18,
	}
}

func (p Policy) normalized() Policy {
	if p.PerType == nil {
		return DefaultPolicy()
	}
	return p
}
