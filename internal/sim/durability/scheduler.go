package durability

// DefaultDecayIntervalMs is the decay period in game-time milliseconds.
const DefaultDecayIntervalMs int64 = 5000

// DecayScheduler is a coarse timer: a check that finds the interval elapsed
// fires once, no matter how many intervals passed since the last firing.
type DecayScheduler struct {
	intervalMs  int64
	lastFiredAt int64
}

func NewDecayScheduler(intervalMs int64) *DecayScheduler {
	if intervalMs <= 0 {
		intervalMs = DefaultDecayIntervalMs
	}
	return &DecayScheduler{intervalMs: intervalMs}
}

// Due reports whether a decay pass should run at nowMs and, if so, records
// nowMs as the last firing time.
func (d *DecayScheduler) Due(nowMs int64) bool {
	if nowMs <= d.lastFiredAt+d.intervalMs {
		return false
	}
	d.lastFiredAt = nowMs
	return true
}

// Resume treats nowMs as the last firing, for a clock restored after restart.
func (d *DecayScheduler) Resume(nowMs int64) { d.lastFiredAt = nowMs }

func (d *DecayScheduler) LastFiredAt() int64 { return d.lastFiredAt }
func (d *DecayScheduler) IntervalMs() int64  { return d.intervalMs }
