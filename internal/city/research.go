package city

import (
	"IslandWar/internal/shared/gameconfig/research"
)

func (c *City) meetsResearchRequirement(name string) bool {
	cfg, ok := research.Get(name)
	if !ok {
		// Unknown research in a stale document: leave it active rather than
		// punishing the player for a removed table entry.
		return true
	}
	if cfg.Requires.Building == "" {
		return true
	}
	return c.BuildingLevel(cfg.Requires.Building) >= cfg.Requires.Level
}

// GrantResearch marks a research completed and active immediately, used for
// conquest rewards that bypass the academy queue.
func (c *City) GrantResearch(name string) {
	if c.Research == nil {
		c.Research = map[string]ResearchState{}
	}
	c.Research[name] = ResearchState{Completed: true, Active: true}
}

func (c *City) HasActiveResearch(name string) bool {
	state, ok := c.Research[name]
	return ok && state.Completed && state.Active
}
