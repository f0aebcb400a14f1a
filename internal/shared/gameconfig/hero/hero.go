package hero

import (
	"fmt"
	"path/filepath"
	"runtime"

	"IslandWar/internal/shared/config"
)

// Passive subtypes the combat and production code understands.
const (
	PassiveLandAttack    = "land_attack"
	PassiveLandDefense   = "land_defense"
	PassiveNavalAttack   = "naval_attack"
	PassiveNavalDefense  = "naval_defense"
	PassiveProduction    = "resource_production"
	PassiveFavor         = "favor_production"
	PassiveTroopTraining = "troop_training"
)

const heroFile = "Hero.json"

type Passive struct {
	Subtype string  `json:"subtype"`
	Factor  float64 `json:"factor"` // multiplier, 1.0 = neutral
}

type Hero struct {
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	Passive Passive `json:"passive"`
}

type heroConf struct {
	List   []Hero `json:"list"`
	heroes map[string]*Hero
}

var HeroConf = &heroConf{}

func Load() {
	HeroConf.load()
}

func (c *heroConf) load() {
	if c == nil {
		panic("load Hero config failed: HeroConf is nil")
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("load Hero config failed: runtime.Caller(0) error")
	}

	config.Load(filepath.Join(filepath.Dir(file), heroFile), c)

	c.heroes = make(map[string]*Hero, len(c.List))
	for i := range c.List {
		h := &c.List[i]
		if h.Name == "" {
			panic(fmt.Sprintf("load Hero config failed: unnamed hero at index %d", i))
		}
		if _, exists := c.heroes[h.Name]; exists {
			panic(fmt.Sprintf("load Hero config failed: duplicate hero %q", h.Name))
		}
		c.heroes[h.Name] = h
	}
}

func Get(name string) (*Hero, bool) {
	h, ok := HeroConf.heroes[name]
	return h, ok
}

// PassiveFactor returns the hero's multiplier for the given subtype, or 1.0
// when the hero is unknown or the passive does not match.
func PassiveFactor(name, subtype string) float64 {
	h, ok := Get(name)
	if !ok || h.Passive.Subtype != subtype || h.Passive.Factor <= 0 {
		return 1.0
	}
	return h.Passive.Factor
}
