package research

import (
	"fmt"
	"path/filepath"
	"runtime"

	"IslandWar/internal/shared/config"
)

const researchFile = "Research.json"

type Requirement struct {
	Building string `json:"building"`
	Level    int    `json:"level"`
}

type Research struct {
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Requires    Requirement `json:"requires"`
	TimeSeconds int         `json:"time_seconds"`
	Cost        Cost        `json:"cost"`
	// RuinReward marks the research granted for conquering a ruin.
	RuinReward bool `json:"ruin_reward"`
}

type Cost struct {
	Wood   int `json:"wood"`
	Stone  int `json:"stone"`
	Silver int `json:"silver"`
}

type researchConf struct {
	List     []Research `json:"list"`
	research map[string]*Research
}

var ResearchConf = &researchConf{}

func Load() {
	ResearchConf.load()
}

func (c *researchConf) load() {
	if c == nil {
		panic("load Research config failed: ResearchConf is nil")
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("load Research config failed: runtime.Caller(0) error")
	}

	config.Load(filepath.Join(filepath.Dir(file), researchFile), c)

	c.research = make(map[string]*Research, len(c.List))
	for i := range c.List {
		r := &c.List[i]
		if r.Name == "" {
			panic(fmt.Sprintf("load Research config failed: unnamed research at index %d", i))
		}
		if _, exists := c.research[r.Name]; exists {
			panic(fmt.Sprintf("load Research config failed: duplicate research %q", r.Name))
		}
		c.research[r.Name] = r
	}
}

func Get(name string) (*Research, bool) {
	r, ok := ResearchConf.research[name]
	return r, ok
}

func All() []Research {
	return ResearchConf.List
}

// RuinRewardName returns the research granted for conquering a ruin, or "".
func RuinRewardName() string {
	for _, r := range ResearchConf.List {
		if r.RuinReward {
			return r.Name
		}
	}
	return ""
}
