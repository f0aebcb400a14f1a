package unit

import (
	"fmt"
	"path/filepath"
	"runtime"

	"IslandWar/internal/shared/config"
)

const (
	CategoryLand     = "land"
	CategoryNaval    = "naval"
	CategoryMythical = "mythical"
)

const unitFile = "Unit.json"

type Unit struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Attack     int      `json:"attack"`
	Defense    int      `json:"defense"`
	Speed      int      `json:"speed"`
	Population int      `json:"population"`
	Counters   []string `json:"counters"`
	TrainTime  int      `json:"train_time"` // seconds per unit
	Cost       Cost     `json:"cost"`
}

type Cost struct {
	Wood   int `json:"wood"`
	Stone  int `json:"stone"`
	Silver int `json:"silver"`
	Favor  int `json:"favor"`
}

type unitConf struct {
	List  []Unit `json:"list"`
	units map[string]*Unit
}

var UnitConf = &unitConf{}

func Load() {
	UnitConf.load()
}

func (c *unitConf) load() {
	if c == nil {
		panic("load Unit config failed: UnitConf is nil")
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("load Unit config failed: runtime.Caller(0) error")
	}

	config.Load(filepath.Join(filepath.Dir(file), unitFile), c)

	c.units = make(map[string]*Unit, len(c.List))
	for i := range c.List {
		u := &c.List[i]
		if u.Name == "" {
			panic(fmt.Sprintf("load Unit config failed: unnamed unit at index %d", i))
		}
		if _, exists := c.units[u.Name]; exists {
			panic(fmt.Sprintf("load Unit config failed: duplicate unit %q", u.Name))
		}
		c.units[u.Name] = u
	}
}

// Get returns nil,false for unknown ids so stale documents never crash a
// processing batch.
func Get(name string) (*Unit, bool) {
	u, ok := UnitConf.units[name]
	return u, ok
}

func All() []Unit {
	return UnitConf.List
}

// Counters reports whether a counters b.
func Counters(a, b string) bool {
	ua, ok := Get(a)
	if !ok {
		return false
	}
	for _, c := range ua.Counters {
		if c == b {
			return true
		}
	}
	return false
}

// FightsInNavalPhase reports whether the unit participates in the naval
// sub-battle; everything else fights on land (mythical included).
func FightsInNavalPhase(name string) bool {
	u, ok := Get(name)
	return ok && u.Category == CategoryNaval
}

func FightsInLandPhase(name string) bool {
	u, ok := Get(name)
	return ok && u.Category != CategoryNaval
}

// Woundable reports whether losses of this unit can divert to the hospital.
// Only plain land troops can be wounded.
func Woundable(name string) bool {
	u, ok := Get(name)
	return ok && u.Category == CategoryLand
}

func Population(name string) int {
	u, ok := Get(name)
	if !ok {
		return 0
	}
	return u.Population
}
