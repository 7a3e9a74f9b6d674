package recipe

import (
	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/items"
)

func item(id items.ItemID) *items.ItemID { return &id }

// Stat order: attack, defense, speed, sp_attack, sp_defense, max_hp, max_mp.
var defaultSpecies = []creature.Template{
	// Wild species.
	{SpeciesID: "slimeling", Name: "Slimeling", Family: creature.FamilySlime, PrimaryType: "Water",
		BaseStats: creature.StatBlock{8, 8, 10, 8, 8, 20, 10}, Growth: creature.StatBlock{2, 2, 2, 2, 2, 5, 2},
		Skills: []string{"Tackle", "Bubble", "Harden", "Heal"}},
	{SpeciesID: "fangwolf", Name: "Fangwolf", Family: creature.FamilyBeast, PrimaryType: "Normal",
		BaseStats: creature.StatBlock{14, 9, 14, 6, 7, 24, 6}, Growth: creature.StatBlock{3, 2, 3, 1, 2, 5, 1},
		Skills: []string{"Bite", "Howl", "Quick Strike", "Crunch"}},
	{SpeciesID: "emberwyrm", Name: "Emberwyrm", Family: creature.FamilyDragon, PrimaryType: "Fire",
		BaseStats: creature.StatBlock{15, 12, 9, 13, 10, 28, 12}, Growth: creature.StatBlock{3, 3, 2, 3, 2, 6, 2},
		Skills: []string{"Ember", "Claw", "Roar", "Flame Breath"}},
	{SpeciesID: "skyhawk", Name: "Skyhawk", Family: creature.FamilyBird, PrimaryType: "Wind",
		BaseStats: creature.StatBlock{11, 7, 17, 9, 7, 20, 10}, Growth: creature.StatBlock{2, 1, 4, 2, 2, 4, 2},
		Skills: []string{"Peck", "Gust", "Dive", "Tailwind"}},
	{SpeciesID: "beetleknight", Name: "Beetleknight", Family: creature.FamilyBug, PrimaryType: "Earth",
		BaseStats: creature.StatBlock{12, 16, 7, 5, 10, 24, 5}, Growth: creature.StatBlock{3, 4, 1, 1, 2, 5, 1},
		Skills: []string{"Horn Jab", "Harden", "Burrow", "Rally"}},
	{SpeciesID: "mossling", Name: "Mossling", Family: creature.FamilyPlant, PrimaryType: "Earth",
		BaseStats: creature.StatBlock{7, 10, 6, 12, 13, 22, 16}, Growth: creature.StatBlock{1, 2, 1, 3, 3, 5, 3},
		Skills: []string{"Vine Lash", "Spore", "Photosynth", "Root"}},
	{SpeciesID: "golem", Name: "Golem", Family: creature.FamilyMaterial, PrimaryType: "Earth",
		BaseStats: creature.StatBlock{13, 18, 4, 4, 12, 30, 4}, Growth: creature.StatBlock{3, 4, 1, 1, 3, 6, 1},
		Skills: []string{"Slam", "Stone Wall", "Quake"}},
	{SpeciesID: "wisp", Name: "Wisp", Family: creature.FamilyUndead, PrimaryType: "Dark",
		BaseStats: creature.StatBlock{6, 7, 13, 15, 11, 18, 18}, Growth: creature.StatBlock{1, 1, 3, 4, 2, 4, 4},
		Skills: []string{"Hex", "Drain", "Fade", "Curse"}},

	// Synthesis results.
	{SpeciesID: "jellyking", Name: "Jelly King", Family: creature.FamilySlime, PrimaryType: "Water",
		BaseStats: creature.StatBlock{12, 14, 10, 12, 14, 40, 16}, Growth: creature.StatBlock{3, 3, 2, 3, 3, 8, 3},
		Skills: []string{"Body Press", "Bubble", "Heal"}},
	{SpeciesID: "alphawolf", Name: "Alphawolf", Family: creature.FamilyBeast, PrimaryType: "Normal",
		BaseStats: creature.StatBlock{20, 12, 18, 8, 10, 32, 8}, Growth: creature.StatBlock{4, 2, 4, 1, 2, 6, 1},
		Skills: []string{"Crunch", "Pack Howl"}},
	{SpeciesID: "wyvernfang", Name: "Wyvernfang", Family: creature.FamilyDragon, PrimaryType: "Fire",
		BaseStats: creature.StatBlock{20, 14, 14, 12, 11, 34, 10}, Growth: creature.StatBlock{4, 3, 3, 2, 2, 7, 2},
		Skills: []string{"Fang Fire", "Claw"}},
	{SpeciesID: "griffin", Name: "Griffin", Family: creature.FamilyBird, PrimaryType: "Wind",
		BaseStats: creature.StatBlock{18, 12, 20, 10, 10, 30, 10}, Growth: creature.StatBlock{4, 2, 4, 2, 2, 6, 2},
		Skills: []string{"Talon", "Gust"}},
	{SpeciesID: "skywyrm", Name: "Skywyrm", Family: creature.FamilyDragon, PrimaryType: "Wind", SecondaryType: "Fire",
		BaseStats: creature.StatBlock{19, 13, 19, 16, 12, 34, 14}, Growth: creature.StatBlock{4, 3, 4, 3, 2, 7, 3},
		Skills: []string{"Cyclone", "Flame Breath"}},
	{SpeciesID: "dragonslime", Name: "Dragon Slime", Family: creature.FamilySlime, PrimaryType: "Fire",
		BaseStats: creature.StatBlock{14, 13, 11, 14, 12, 36, 14}, Growth: creature.StatBlock{3, 3, 2, 3, 2, 7, 3},
		Skills: []string{"Ember", "Bounce"}},
	{SpeciesID: "thornmantis", Name: "Thornmantis", Family: creature.FamilyBug, PrimaryType: "Earth",
		BaseStats: creature.StatBlock{17, 14, 14, 10, 12, 28, 8}, Growth: creature.StatBlock{4, 3, 3, 2, 2, 5, 2},
		Skills: []string{"Scythe", "Vine Lash"}},
	{SpeciesID: "mossjelly", Name: "Moss Jelly", Family: creature.FamilyPlant, PrimaryType: "Water",
		BaseStats: creature.StatBlock{10, 14, 9, 14, 16, 34, 18}, Growth: creature.StatBlock{2, 3, 2, 3, 3, 7, 3},
		Skills: []string{"Spore", "Heal"}},
	{SpeciesID: "boneknight", Name: "Bone Knight", Family: creature.FamilyUndead, PrimaryType: "Dark",
		BaseStats: creature.StatBlock{18, 18, 9, 12, 12, 32, 10}, Growth: creature.StatBlock{4, 4, 2, 2, 2, 6, 2},
		Skills: []string{"Grave Slash", "Stone Wall"}},
	{SpeciesID: "twinwyrm", Name: "Twinwyrm", Family: creature.FamilyDragon, PrimaryType: "Fire",
		BaseStats: creature.StatBlock{21, 16, 12, 17, 13, 38, 14}, Growth: creature.StatBlock{4, 3, 2, 3, 3, 8, 3},
		Skills: []string{"Twin Flame", "Roar"}},
	{SpeciesID: "elderwyrm", Name: "Elder Wyrm", Family: creature.FamilyDragon, PrimaryType: "Fire", SecondaryType: "Dark",
		BaseStats: creature.StatBlock{26, 20, 14, 22, 18, 46, 20}, Growth: creature.StatBlock{5, 4, 3, 4, 3, 9, 4},
		Skills: []string{"Cataclysm", "Flame Breath"}},
	{SpeciesID: "bonewyrm", Name: "Bone Wyrm", Family: creature.FamilyUndead, PrimaryType: "Dark", SecondaryType: "Fire",
		BaseStats: creature.StatBlock{22, 16, 12, 20, 14, 38, 16}, Growth: creature.StatBlock{4, 3, 2, 4, 3, 8, 3},
		Skills: []string{"Necroflame", "Drain"}},
}

var defaultRecipes = []Recipe{
	{Families: [2]creature.Family{creature.FamilySlime, creature.FamilySlime}, ResultSpecies: "jellyking", MinLevel: 10, BaseRate: 0.70},
	{Families: [2]creature.Family{creature.FamilyBeast, creature.FamilyBeast}, ResultSpecies: "alphawolf", MinLevel: 10, BaseRate: 0.65},
	{Families: [2]creature.Family{creature.FamilyBeast, creature.FamilyDragon}, ResultSpecies: "wyvernfang", MinLevel: 10, BaseRate: 0.55},
	{Families: [2]creature.Family{creature.FamilyBird, creature.FamilyBeast}, ResultSpecies: "griffin", MinLevel: 12, BaseRate: 0.55},
	{Families: [2]creature.Family{creature.FamilyBird, creature.FamilyDragon}, ResultSpecies: "skywyrm", MinLevel: 15, BaseRate: 0.45,
		RequiredItem: item(items.ItemDragonScale)},
	{Families: [2]creature.Family{creature.FamilySlime, creature.FamilyDragon}, ResultSpecies: "dragonslime", MinLevel: 12, BaseRate: 0.50,
		RequiredItem: item(items.ItemSlimeJelly)},
	{Families: [2]creature.Family{creature.FamilyPlant, creature.FamilyBug}, ResultSpecies: "thornmantis", MinLevel: 10, BaseRate: 0.60},
	{Families: [2]creature.Family{creature.FamilyPlant, creature.FamilySlime}, ResultSpecies: "mossjelly", MinLevel: 10, BaseRate: 0.65},
	{Families: [2]creature.Family{creature.FamilyMaterial, creature.FamilyUndead}, ResultSpecies: "boneknight", MinLevel: 12, BaseRate: 0.50,
		RequiredItem: item(items.ItemSpiritBell)},
	{Families: [2]creature.Family{creature.FamilyDragon, creature.FamilyDragon}, ResultSpecies: "twinwyrm", MinLevel: 10, BaseRate: 0.50},
	{Families: [2]creature.Family{creature.FamilyDragon, creature.FamilyDragon}, ResultSpecies: "elderwyrm", MinLevel: 25, BaseRate: 0.35,
		RequiredItem: item(items.ItemWorldLeaf)},
	{Families: [2]creature.Family{creature.FamilyUndead, creature.FamilyDragon}, ResultSpecies: "bonewyrm", MinLevel: 18, BaseRate: 0.40,
		RequiredItem: item(items.ItemSpiritBell)},
}

// Default returns the built-in recipe table.
func Default() *Table {
	t, err := NewTable(defaultSpecies, defaultRecipes)
	if err != nil {
		panic("recipe: invalid built-in table: " + err.Error())
	}
	return t
}
