package building

import (
	"fmt"
	"path/filepath"
	"runtime"

	"IslandWar/internal/shared/config"
)

// Building ids referenced across the codebase.
const (
	Senate       = "senate"
	Farm         = "farm"
	Warehouse    = "warehouse"
	TimberCamp   = "timber_camp"
	Quarry       = "quarry"
	SilverMine   = "silver_mine"
	Cave         = "cave"
	Barracks     = "barracks"
	Shipyard     = "shipyard"
	DivineTemple = "divine_temple"
	Academy      = "academy"
	Hospital     = "hospital"
	Prison       = "prison"
	Wall         = "wall"
)

const buildingFile = "Building.json"

type Building struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	MaxLevel int    `json:"max_level"`
	Seeded   bool   `json:"seeded"` // level 1 on founding

	// Linear per-level values; zero when the building has no such role.
	ProductionBase     int `json:"production_base"` // resource units per hour at level 1
	ProductionPerLevel int `json:"production_per_level"`
	CapacityBase       int `json:"capacity_base"`
	CapacityPerLevel   int `json:"capacity_per_level"`

	BuildTimeBase     int  `json:"build_time_base"` // seconds for level 1
	BuildTimePerLevel int  `json:"build_time_per_level"`
	Cost              Cost `json:"cost"` // per target level, multiplied by level
}

type Cost struct {
	Wood   int `json:"wood"`
	Stone  int `json:"stone"`
	Silver int `json:"silver"`
}

type buildingConf struct {
	List      []Building `json:"list"`
	buildings map[string]*Building
}

var BuildingConf = &buildingConf{}

func Load() {
	BuildingConf.load()
}

func (c *buildingConf) load() {
	if c == nil {
		panic("load Building config failed: BuildingConf is nil")
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("load Building config failed: runtime.Caller(0) error")
	}

	config.Load(filepath.Join(filepath.Dir(file), buildingFile), c)

	c.buildings = make(map[string]*Building, len(c.List))
	for i := range c.List {
		b := &c.List[i]
		if b.Name == "" {
			panic(fmt.Sprintf("load Building config failed: unnamed building at index %d", i))
		}
		if _, exists := c.buildings[b.Name]; exists {
			panic(fmt.Sprintf("load Building config failed: duplicate building %q", b.Name))
		}
		c.buildings[b.Name] = b
	}
}

func Get(name string) (*Building, bool) {
	b, ok := BuildingConf.buildings[name]
	return b, ok
}

func All() []Building {
	return BuildingConf.List
}

// Seeded returns the building ids that start at level 1 on founding.
func SeededNames() []string {
	var names []string
	for _, b := range BuildingConf.List {
		if b.Seeded {
			names = append(names, b.Name)
		}
	}
	return names
}

// Capacity returns the building's capacity value at the given level, 0 for
// level 0 or an unknown building.
func Capacity(name string, level int) int {
	b, ok := Get(name)
	if !ok || level <= 0 {
		return 0
	}
	return b.CapacityBase + b.CapacityPerLevel*(level-1)
}

// ProductionPerHour returns the building's hourly base production at the
// given level, before worker/happiness/hero/alliance modifiers.
func ProductionPerHour(name string, level int) int {
	b, ok := Get(name)
	if !ok || level <= 0 {
		return 0
	}
	return b.ProductionBase + b.ProductionPerLevel*(level-1)
}

func BuildTime(name string, targetLevel int) int {
	b, ok := Get(name)
	if !ok || targetLevel <= 0 {
		return 0
	}
	return b.BuildTimeBase + b.BuildTimePerLevel*(targetLevel-1)
}
