package village

import (
	"path/filepath"
	"runtime"
	"sort"

	"IslandWar/internal/shared/config"
)

const villageFile = "Village.json"

type LevelTroops struct {
	Level  int            `json:"level"`
	Troops map[string]int `json:"troops"`
}

type villageConf struct {
	Levels []LevelTroops `json:"levels"`
}

var VillageConf = &villageConf{}

func Load() {
	VillageConf.load()
}

func (c *villageConf) load() {
	if c == nil {
		panic("load Village config failed: VillageConf is nil")
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("load Village config failed: runtime.Caller(0) error")
	}

	config.Load(filepath.Join(filepath.Dir(file), villageFile), c)

	sort.Slice(c.Levels, func(i, j int) bool {
		return c.Levels[i].Level < c.Levels[j].Level
	})
}

// TroopsForLevel returns the default garrison for a village of the given
// level: the highest configured tier not above it. Levels below the first
// tier get the first tier.
func TroopsForLevel(level int) map[string]int {
	if len(VillageConf.Levels) == 0 {
		return map[string]int{}
	}

	chosen := VillageConf.Levels[0]
	for _, lt := range VillageConf.Levels {
		if lt.Level > level {
			break
		}
		chosen = lt
	}

	out := make(map[string]int, len(chosen.Troops))
	for k, v := range chosen.Troops {
		out[k] = v
	}
	return out
}
