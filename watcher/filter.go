package watcher

import "strings"

// MatchCondition evaluates one condition against one field value. A
// condition with an empty pattern never matches; comparisons are
// case-insensitive. Callers are expected to pre-filter disabled conditions.
func MatchCondition(fieldValue string, c FilterCondition) bool {
	if c.Value == "" {
		return false
	}
	switch c.MatchType {
	case MatchExact:
		return strings.EqualFold(fieldValue, c.Value)
	default:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	}
}

// FieldPasses resolves the include side of one field filter. Exclude
// conditions are ignored here: exclusion is evaluated globally across
// fields in AcceptSpot, before any include logic runs.
func FieldPasses(fieldValue string, f FieldFilter) bool {
	includes := make([]FilterCondition, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		if !c.IsEnabled() || c.Exclude {
			continue
		}
		includes = append(includes, c)
	}
	if len(includes) == 0 {
		return true
	}
	if f.Operator == OperatorOr {
		for _, c := range includes {
			if MatchCondition(fieldValue, c) {
				return true
			}
		}
		return false
	}
	for _, c := range includes {
		if !MatchCondition(fieldValue, c) {
			return false
		}
	}
	return true
}

// BaseCallsign strips the portable suffix (everything from the first '/')
// and normalizes for comparison.
func BaseCallsign(cs string) string {
	if i := strings.Index(cs, "/"); i >= 0 {
		cs = cs[:i]
	}
	return strings.ToUpper(strings.TrimSpace(cs))
}

func SameCallsign(a, b string) bool {
	return BaseCallsign(a) == BaseCallsign(b)
}

// AcceptSpot evaluates the full filter configuration against one spot.
// Order matters: the self-spot gate first, then the exclude pass (any
// enabled exclude condition on any field vetoes immediately, OR semantics
// regardless of the field operator), then the include pass (every field
// must pass independently). Exclude/include asymmetry is intentional; do
// not fold the two passes into one boolean tree.
func AcceptSpot(s Spot, cfg FilterConfig) bool {
	if cfg.IgnoreOtherReporters && !SameCallsign(s.Spotter, s.Activator) {
		return false
	}

	fields := []struct {
		value  string
		filter FieldFilter
	}{
		{s.Reference, cfg.Reference},
		{s.Comments, cfg.Comments},
		{s.Mode, cfg.Mode},
		{s.Frequency, cfg.Frequency},
	}

	for _, f := range fields {
		for _, c := range f.filter.Conditions {
			if !c.IsEnabled() || !c.Exclude {
				continue
			}
			if MatchCondition(f.value, c) {
				return false
			}
		}
	}

	for _, f := range fields {
		if !FieldPasses(f.value, f.filter) {
			return false
		}
	}
	return true
}
