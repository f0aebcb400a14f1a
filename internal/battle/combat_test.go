package battle

import (
	"testing"

	"IslandWar/internal/shared/gameconfig/hero"
	"IslandWar/internal/shared/gameconfig/unit"
)

func TestMain(m *testing.M) {
	unit.Load()
	hero.Load()
	m.Run()
}

func TestResolveCombat_UndefendedCityFalls(t *testing.T) {
	res := ResolveCombat(
		map[string]int{"hoplite": 50},
		map[string]int{},
		map[string]int{"wood": 1000, "stone": 403, "silver": 99},
		false,
		Formation{Phalanx: "hoplite"}, Formation{},
		"", "",
	)

	if !res.AttackerWon {
		t.Fatal("attacker should walk into an empty city")
	}
	for name, lost := range res.AttackerLosses {
		if lost != 0 {
			t.Fatalf("lost %d %s against nobody", lost, name)
		}
	}
	if res.Plunder["wood"] != 250 || res.Plunder["stone"] != 100 || res.Plunder["silver"] != 24 {
		t.Fatalf("plunder should floor a quarter of stock, got %v", res.Plunder)
	}
}

func TestResolveCombat_LossesNeverExceedFielded(t *testing.T) {
	att := map[string]int{"hoplite": 40, "slinger": 25, "rider": 10}
	def := map[string]int{"swordsman": 60, "archer": 30}

	res := ResolveCombat(att, def, map[string]int{}, false,
		Formation{Phalanx: "hoplite", Support: "slinger"},
		Formation{Phalanx: "swordsman", Support: "archer"},
		"", "")

	for name, fielded := range att {
		if gone := res.AttackerLosses[name] + res.Wounded[name]; gone > fielded {
			t.Fatalf("attacker %s: %d fielded, %d gone", name, fielded, gone)
		}
	}
	for name, fielded := range def {
		if res.DefenderLosses[name] > fielded {
			t.Fatalf("defender %s: %d fielded, %d lost", name, fielded, res.DefenderLosses[name])
		}
	}
}

func TestResolveCombat_NavalGateDestroysLandingForce(t *testing.T) {
	att := map[string]int{"hoplite": 100, "transport_boat": 5}
	def := map[string]int{"bireme": 80}

	res := ResolveCombat(att, def, map[string]int{"wood": 400}, true,
		Formation{Phalanx: "hoplite"}, Formation{}, "", "")

	if res.AttackerWon {
		t.Fatal("landing force with no escort should never reach shore")
	}
	if gone := res.AttackerLosses["hoplite"] + res.Wounded["hoplite"]; gone != 100 {
		t.Fatalf("every hoplite should be gone, got %d", gone)
	}
	if res.Plunder["wood"] != 0 {
		t.Fatalf("losers do not plunder, got %v", res.Plunder)
	}
}

func TestResolveCombat_LandAttackSkipsNavalGate(t *testing.T) {
	att := map[string]int{"hoplite": 100}
	def := map[string]int{"bireme": 80, "militia": 5}

	res := ResolveCombat(att, def, map[string]int{}, false,
		Formation{Phalanx: "hoplite"}, Formation{}, "", "")

	if !res.AttackerWon {
		t.Fatal("a same-island attack should ignore the defending fleet")
	}
	if res.DefenderLosses["bireme"] != 0 {
		t.Fatalf("fleet sits out a land battle, lost %d", res.DefenderLosses["bireme"])
	}
}

func TestResolveCombat_WoundedDivertFromAttackerLosses(t *testing.T) {
	att := map[string]int{"militia": 100}
	def := map[string]int{"chariot": 200}

	res := ResolveCombat(att, def, map[string]int{}, false,
		Formation{}, Formation{Phalanx: "chariot"}, "", "")

	if res.AttackerWon {
		t.Fatal("100 militia should not break 200 chariots")
	}
	lost, wounded := res.AttackerLosses["militia"], res.Wounded["militia"]
	if lost+wounded != 100 {
		t.Fatalf("fielded 100, accounted %d", lost+wounded)
	}
	if wounded != 15 {
		t.Fatalf("want 15%% of land losses wounded, got %d of %d", wounded, lost+wounded)
	}
	if res.DefenderBattlePoints != lost*unit.Population("militia") {
		t.Fatalf("defender points count kills only, got %d", res.DefenderBattlePoints)
	}
}

func TestResolveCombat_CaptureNeedsFullAnnihilation(t *testing.T) {
	att := map[string]int{"hoplite": 300}
	def := map[string]int{"militia": 10}

	res := ResolveCombat(att, def, map[string]int{}, false,
		Formation{Phalanx: "hoplite"}, Formation{Phalanx: "militia"},
		"leonidas", "andromeda")

	if !res.AttackerWon {
		t.Fatal("300 hoplites should crush 10 militia")
	}
	if res.DefenderLosses["militia"] == 10 && res.CapturedHero != "andromeda" {
		t.Fatal("annihilated defender should surrender the hero")
	}
	if res.DefenderLosses["militia"] < 10 && res.CapturedHero != "" {
		t.Fatalf("surviving militia but hero captured: %+v", res)
	}
}

func TestResolveCombat_WoundedCountTowardAttackerAnnihilation(t *testing.T) {
	att := map[string]int{"militia": 20}
	def := map[string]int{"chariot": 500}

	res := ResolveCombat(att, def, map[string]int{}, false,
		Formation{}, Formation{Phalanx: "chariot"}, "leonidas", "")

	if res.AttackerWon {
		t.Fatal("20 militia should not break 500 chariots")
	}
	if gone := res.AttackerLosses["militia"] + res.Wounded["militia"]; gone != 20 {
		t.Fatalf("expected the whole force off the field, got %d", gone)
	}
	if res.CapturedHero != "leonidas" {
		t.Fatalf("hero of a destroyed army falls into enemy hands, got %q", res.CapturedHero)
	}
}

func TestResolveCombat_BattlePointsArePopulationWeighted(t *testing.T) {
	att := map[string]int{"chariot": 100}
	def := map[string]int{"rider": 30}

	res := ResolveCombat(att, def, map[string]int{}, false,
		Formation{Phalanx: "chariot"}, Formation{Phalanx: "rider"}, "", "")

	want := 0
	for name, lost := range res.DefenderLosses {
		want += unit.Population(name) * lost
	}
	if res.AttackerBattlePoints != want {
		t.Fatalf("attacker points %d, want %d", res.AttackerBattlePoints, want)
	}
}

func TestResolveCombat_MutualAnnihilationGoesToTheAttacker(t *testing.T) {
	// 3 militia at 4 attack exactly match 2 militia at 6 defense; both
	// sides wipe out and the field is held by the attacker.
	res := ResolveCombat(
		map[string]int{"militia": 3},
		map[string]int{"militia": 2},
		map[string]int{"wood": 400},
		false,
		Formation{}, Formation{},
		"", "",
	)

	if !res.AttackerWon {
		t.Fatal("a dead heat should fall to the attacker")
	}
	if res.AttackerLosses["militia"] != 3 {
		t.Fatalf("attacker losses = %v", res.AttackerLosses)
	}
	if res.DefenderLosses["militia"] != 2 {
		t.Fatalf("defender losses = %v", res.DefenderLosses)
	}
	if res.Plunder["wood"] != 100 {
		t.Fatalf("the held field still yields plunder, got %v", res.Plunder)
	}
}

func TestResolveCombat_NobodyOnEitherSide(t *testing.T) {
	res := ResolveCombat(nil, nil, nil, false, Formation{}, Formation{}, "", "")

	if !res.AttackerWon {
		t.Fatal("an uncontested field belongs to the attacker")
	}
	if len(res.AttackerLosses) != 0 || len(res.DefenderLosses) != 0 {
		t.Fatalf("losses from an empty field: %v / %v", res.AttackerLosses, res.DefenderLosses)
	}
	for name, got := range res.Plunder {
		if got != 0 {
			t.Fatalf("plunder from nothing: %d %s", got, name)
		}
	}
	if res.AttackerBattlePoints != 0 || res.DefenderBattlePoints != 0 {
		t.Fatalf("battle points from an empty field: %d / %d",
			res.AttackerBattlePoints, res.DefenderBattlePoints)
	}
}

func TestDistributeLosses_PhalanxAbsorbsFirst(t *testing.T) {
	roster := map[string]int{"hoplite": 100, "slinger": 100, "militia": 100}
	losses := distributeLosses(roster, Formation{Phalanx: "hoplite", Support: "slinger"}, 0.5)

	total := 0
	for _, n := range losses {
		total += n
	}
	if total != 150 {
		t.Fatalf("half of 300 should fall, got %d", total)
	}
	if losses["hoplite"] != 90 {
		t.Fatalf("phalanx takes 60%% of the total first, got %d", losses["hoplite"])
	}
	if losses["slinger"] != 18 {
		t.Fatalf("support takes 30%% of the remainder, got %d", losses["slinger"])
	}
	if losses["militia"] != 42 {
		t.Fatalf("others carry the rest, got %d", losses["militia"])
	}
}

func TestDistributeLosses_ClampedToRoster(t *testing.T) {
	roster := map[string]int{"hoplite": 10}
	losses := distributeLosses(roster, Formation{Phalanx: "hoplite"}, 1.0)
	if losses["hoplite"] != 10 {
		t.Fatalf("cannot lose more than fielded, got %d", losses["hoplite"])
	}
}

func TestResolveScouting_DefenderFavoredThreshold(t *testing.T) {
	// Even a guaranteed-draw success fails when the computed chance is at
	// or below one half.
	target := ScoutTarget{CaveSilver: 500, Resources: map[string]int{"wood": 10}}
	res := ResolveScouting(target, 500, 0.0)
	if res.Success {
		t.Fatalf("chance %.3f should never succeed", res.Chance)
	}
	if res.DefenderSilverGained != 250 {
		t.Fatalf("defender banks half the spy silver, got %d", res.DefenderSilverGained)
	}
	if res.Intel != nil {
		t.Fatal("failed scout must not leak intel")
	}
}

func TestResolveScouting_SuccessRevealsSnapshot(t *testing.T) {
	target := ScoutTarget{
		CaveSilver: 10,
		Resources:  map[string]int{"wood": 100},
		Units:      map[string]int{"hoplite": 5},
		Buildings:  map[string]int{"senate": 3},
		God:        "poseidon",
	}
	res := ResolveScouting(target, 1000, 0.9)
	if !res.Success {
		t.Fatalf("chance %.3f with draw 0.9 should succeed", res.Chance)
	}
	if res.Intel == nil || res.Intel.Units["hoplite"] != 5 || res.Intel.God != "poseidon" {
		t.Fatalf("intel snapshot wrong: %+v", res.Intel)
	}
	if res.DefenderSilverGained != 0 {
		t.Fatalf("successful scout banks nothing, got %d", res.DefenderSilverGained)
	}

	res.Intel.Units["hoplite"] = 999
	if target.Units["hoplite"] != 5 {
		t.Fatal("intel must be a copy of defender state")
	}
}

func TestResolveVillageRetaliation_Deterministic(t *testing.T) {
	army := map[string]int{"militia": 100, "rider": 10, "bireme": 50}

	first := ResolveVillageRetaliation(army)
	second := ResolveVillageRetaliation(army)

	if first["militia"] != 5 || first["rider"] != 1 {
		t.Fatalf("retaliation shares wrong: %v", first)
	}
	if first["bireme"] != 0 {
		t.Fatalf("villages cannot sink ships, got %v", first)
	}
	if len(first) != len(second) || first["militia"] != second["militia"] || first["rider"] != second["rider"] {
		t.Fatalf("retaliation must be deterministic: %v vs %v", first, second)
	}
}

func TestResolveVillageRetaliation_EmptyArmy(t *testing.T) {
	if losses := ResolveVillageRetaliation(map[string]int{}); len(losses) != 0 {
		t.Fatalf("no army, no losses: %v", losses)
	}
}
