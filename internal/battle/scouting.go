package battle

import "math"

const (
	// A computed chance at or below this can never succeed, whatever the
	// draw. Deliberate defender-favoring asymmetry; do not tune without
	// revisiting game balance.
	scoutingThreshold = 0.5

	caveGainFraction = 0.5
)

// ScoutTarget is the slice of defender state the scouting roll needs, plus
// the snapshot revealed on success.
type ScoutTarget struct {
	CaveSilver int
	Resources  map[string]int
	Units      map[string]int
	Buildings  map[string]int
	God        string
}

// ScoutIntel is the defender snapshot included in a successful scout report.
type ScoutIntel struct {
	Resources map[string]int `bson:"resources" json:"resources"`
	Units     map[string]int `bson:"units" json:"units"`
	Buildings map[string]int `bson:"buildings" json:"buildings"`
	God       string         `bson:"god" json:"god"`
}

type ScoutResult struct {
	Success bool
	Chance  float64
	// Intel is non-nil only on success.
	Intel *ScoutIntel
	// DefenderSilverGained is credited to the defender's cave on failure.
	DefenderSilverGained int
}

// ResolveScouting decides an espionage attempt. draw is the caller's uniform
// [0,1) random number, passed in so the resolver stays deterministic under
// test. Success needs both draw < chance and chance > 0.5.
func ResolveScouting(target ScoutTarget, attackingSilver int, draw float64) ScoutResult {
	chance := float64(attackingSilver+1) / float64(attackingSilver+2*target.CaveSilver+1)

	res := ScoutResult{Chance: chance}
	if draw < chance && chance > scoutingThreshold {
		res.Success = true
		res.Intel = &ScoutIntel{
			Resources: cloneRoster(target.Resources),
			Units:     cloneRoster(target.Units),
			Buildings: cloneRoster(target.Buildings),
			God:       target.God,
		}
		return res
	}

	res.DefenderSilverGained = int(math.Floor(float64(attackingSilver) * caveGainFraction))
	return res
}
