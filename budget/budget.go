// Package budget derives token and iteration quotas for a task and
// advises on resource pressure.
//
// The tracker only advises; it never halts a loop or forces compaction.
// That decision belongs to the calling policy.
package budget

// TaskClass classifies a task for quota purposes.
type TaskClass string

const (
	// TaskQuick covers small, targeted edits or lookups.
	TaskQuick TaskClass = "quick"
	// TaskStandard covers typical multi-file work.
	TaskStandard TaskClass = "standard"
	// TaskDeep covers long autonomous investigations.
	TaskDeep TaskClass = "deep"
)

// ResourceBudget is the quota allotted to one task.
type ResourceBudget struct {
	Tokens     int
	Iterations int
}

// Base quotas per task class. The estimated-file-count multiplier scales
// these between 1x and 2x.
var baseQuotas = map[TaskClass]ResourceBudget{
	TaskQuick:    {Tokens: 30_000, Iterations: 10},
	TaskStandard: {Tokens: 120_000, Iterations: 25},
	TaskDeep:     {Tokens: 400_000, Iterations: 50},
}

// Calculate derives the quota for a task. Both fields scale by
// estimatedFiles/10, clamped to [1.0, 2.0] and floored to an integer:
// ten estimated files yields exactly the base quota, and scaling is
// monotonically non-decreasing up to the 2x cap.
//
// An unknown class falls back to TaskStandard.
func Calculate(class TaskClass, estimatedFiles int) ResourceBudget {
	base, ok := baseQuotas[class]
	if !ok {
		base = baseQuotas[TaskStandard]
	}

	scale := float64(estimatedFiles) / 10
	if scale < 1.0 {
		scale = 1.0
	}
	if scale > 2.0 {
		scale = 2.0
	}

	return ResourceBudget{
		Tokens:     int(float64(base.Tokens) * scale),
		Iterations: int(float64(base.Iterations) * scale),
	}
}

// Stats describes a task's consumption against its quota.
type Stats struct {
	TokensUsed     int
	TokenBudget    int
	IterationsUsed int
	MaxIterations  int
}

// TokensUsedPercent returns consumed tokens as a percentage of budget,
// or 0 when no token budget is set.
func (s Stats) TokensUsedPercent() float64 {
	if s.TokenBudget <= 0 {
		return 0
	}
	return float64(s.TokensUsed) / float64(s.TokenBudget) * 100
}

// IterationsRemaining returns how many iterations are left.
func (s Stats) IterationsRemaining() int {
	return s.MaxIterations - s.IterationsUsed
}

// Tier is the advisory pressure level for a task.
type Tier string

const (
	// TierHealthy means consumption is comfortably within quota.
	TierHealthy Tier = "healthy"

	// TierCaution means at least half the quota is gone; the caller
	// should start being economical.
	TierCaution Tier = "caution"

	// TierCompact means the task should compact its context and wrap up.
	TierCompact Tier = "compact_and_wrap_up"
)

// Recommendation maps consumption stats to an advisory tier:
// 80%+ of tokens or 2 or fewer iterations left advises TierCompact,
// 50%+ or 5 or fewer advises TierCaution, anything else is TierHealthy.
func Recommendation(s Stats) Tier {
	pct := s.TokensUsedPercent()
	remaining := s.IterationsRemaining()

	switch {
	case pct >= 80 || (s.MaxIterations > 0 && remaining <= 2):
		return TierCompact
	case pct >= 50 || (s.MaxIterations > 0 && remaining <= 5):
		return TierCaution
	default:
		return TierHealthy
	}
}
