package sim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning carries every threshold and window the engine consults. One
// immutable value is built at startup and passed through the decision
// context; nothing reads package-level state.
type Tuning struct {
	HungryAfter   time.Duration
	StarvingAfter time.Duration

	IdleDuration      time.Duration
	RestDuration      time.Duration
	MealDuration      time.Duration
	WorkShiftDuration time.Duration
	LeisureDuration   time.Duration

	DepositLoadRatio float64

	FoodShopAmount float64

	MinTradeAmount  float64
	AmountDecimals  int
	GenericFetchCap float64
	FetchCooldown   time.Duration

	BusinessCheckEvery time.Duration

	ProjectBudgetMin float64
	MaxStorageOffers int
	StorageOfferRate float64

	Recipes map[string]Recipe

	ArrivalTolerance float64

	DecisionTimeout time.Duration
	TickParallelism int

	FoodResources     []string
	TavernTypes       []string
	RetailFoodTypes   []string
	LodgingTypes      []string
	TheaterTypes      []string
	ChurchTypes       []string
	FishermanHomeType string
	DockType          string
	WarehouseType     string

	Schedules map[SocialClass]Schedule
}

// Recipe maps a workshop building type to the resources one production
// shift consumes and yields.
type Recipe struct {
	Inputs []ResourceAmount
	Output ResourceAmount
}

func defaultRecipes() map[string]Recipe {
	return map[string]Recipe{
		"bakery": {
			Inputs: []ResourceAmount{{ResourceType: "grain", Amount: 2}},
			Output: ResourceAmount{ResourceType: "bread", Amount: 1},
		},
		"boat_workshop": {
			Inputs: []ResourceAmount{{ResourceType: "timber", Amount: 4}},
			Output: ResourceAmount{ResourceType: "gondola", Amount: 0.25},
		},
		"glassworks": {
			Inputs: []ResourceAmount{{ResourceType: "sand", Amount: 3}, {ResourceType: "soda_ash", Amount: 1}},
			Output: ResourceAmount{ResourceType: "glassware", Amount: 1},
		},
	}
}

func DefaultTuning() Tuning {
	return Tuning{
		HungryAfter:        12 * time.Hour,
		StarvingAfter:      24 * time.Hour,
		IdleDuration:       30 * time.Minute,
		RestDuration:       8 * time.Hour,
		MealDuration:       30 * time.Minute,
		WorkShiftDuration:  3 * time.Hour,
		LeisureDuration:    90 * time.Minute,
		DepositLoadRatio:   0.7,
		FoodShopAmount:     4,
		MinTradeAmount:     0.1,
		AmountDecimals:     2,
		GenericFetchCap:    10,
		FetchCooldown:      15 * time.Minute,
		BusinessCheckEvery: 24 * time.Hour,
		ProjectBudgetMin:   5000,
		MaxStorageOffers:   3,
		StorageOfferRate:   0.05,
		Recipes:            defaultRecipes(),
		ArrivalTolerance:   20,
		DecisionTimeout:    5 * time.Second,
		TickParallelism:    8,
		FoodResources:      []string{"bread", "fish", "grain", "wine"},
		TavernTypes:        []string{"tavern", "inn"},
		RetailFoodTypes:    []string{"bakery", "market_stall"},
		LodgingTypes:       []string{"inn"},
		TheaterTypes:       []string{"theater"},
		ChurchTypes:        []string{"church", "chapel"},
		FishermanHomeType:  "fisherman_cottage",
		DockType:           "public_dock",
		WarehouseType:      "warehouse",
		Schedules:          defaultSchedules(),
	}
}

func (t Tuning) ScheduleFor(class SocialClass) Schedule {
	if s, ok := t.Schedules[class]; ok {
		return s
	}
	return defaultSchedules()[ClassLaborer]
}

func (t Tuning) IsFood(resource string) bool {
	for _, f := range t.FoodResources {
		if f == resource {
			return true
		}
	}
	return false
}

func (t Tuning) IsLodging(b Building) bool {
	for _, v := range t.LodgingTypes {
		if v == b.Type {
			return true
		}
	}
	return false
}

// tuningFile is the yaml shape of a tuning overlay. Durations are
// time.ParseDuration strings like "12h" or "30m"; absent fields keep
// their defaults.
type tuningFile struct {
	HungryAfter   *string `yaml:"hungry_after"`
	StarvingAfter *string `yaml:"starving_after"`

	IdleDuration      *string `yaml:"idle_duration"`
	RestDuration      *string `yaml:"rest_duration"`
	MealDuration      *string `yaml:"meal_duration"`
	WorkShiftDuration *string `yaml:"work_shift_duration"`
	LeisureDuration   *string `yaml:"leisure_duration"`

	DepositLoadRatio *float64 `yaml:"deposit_load_ratio"`
	FoodShopAmount   *float64 `yaml:"food_shop_amount"`

	MinTradeAmount  *float64 `yaml:"min_trade_amount"`
	AmountDecimals  *int     `yaml:"amount_decimals"`
	GenericFetchCap *float64 `yaml:"generic_fetch_cap"`
	FetchCooldown   *string  `yaml:"fetch_cooldown"`

	BusinessCheckEvery *string `yaml:"business_check_every"`

	ProjectBudgetMin *float64 `yaml:"project_budget_min"`
	MaxStorageOffers *int     `yaml:"max_storage_offers"`
	StorageOfferRate *float64 `yaml:"storage_offer_rate"`

	Recipes map[string]recipeFile `yaml:"recipes"`

	ArrivalTolerance *float64 `yaml:"arrival_tolerance_m"`

	DecisionTimeout *string `yaml:"decision_timeout"`
	TickParallelism *int    `yaml:"tick_parallelism"`

	FoodResources     []string `yaml:"food_resources"`
	TavernTypes       []string `yaml:"tavern_types"`
	RetailFoodTypes   []string `yaml:"retail_food_types"`
	LodgingTypes      []string `yaml:"lodging_types"`
	TheaterTypes      []string `yaml:"theater_types"`
	ChurchTypes       []string `yaml:"church_types"`
	FishermanHomeType *string  `yaml:"fisherman_home_type"`
	DockType          *string  `yaml:"dock_type"`
	WarehouseType     *string  `yaml:"warehouse_type"`
}

type recipeFile struct {
	Inputs []resourceAmountFile `yaml:"inputs"`
	Output resourceAmountFile   `yaml:"output"`
}

type resourceAmountFile struct {
	ResourceType string  `yaml:"resource_type"`
	Amount       float64 `yaml:"amount"`
}

// LoadTuning overlays a yaml file onto the defaults. Missing fields keep
// their default values.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	var f tuningFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return t, fmt.Errorf("tuning yaml: %w", err)
	}
	if err := f.apply(&t); err != nil {
		return t, fmt.Errorf("tuning yaml: %w", err)
	}
	return t, nil
}

func (f tuningFile) apply(t *Tuning) error {
	durations := []struct {
		raw *string
		dst *time.Duration
		key string
	}{
		{f.HungryAfter, &t.HungryAfter, "hungry_after"},
		{f.StarvingAfter, &t.StarvingAfter, "starving_after"},
		{f.IdleDuration, &t.IdleDuration, "idle_duration"},
		{f.RestDuration, &t.RestDuration, "rest_duration"},
		{f.MealDuration, &t.MealDuration, "meal_duration"},
		{f.WorkShiftDuration, &t.WorkShiftDuration, "work_shift_duration"},
		{f.LeisureDuration, &t.LeisureDuration, "leisure_duration"},
		{f.FetchCooldown, &t.FetchCooldown, "fetch_cooldown"},
		{f.BusinessCheckEvery, &t.BusinessCheckEvery, "business_check_every"},
		{f.DecisionTimeout, &t.DecisionTimeout, "decision_timeout"},
	}
	for _, d := range durations {
		if d.raw == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	setFloat(f.DepositLoadRatio, &t.DepositLoadRatio)
	setFloat(f.FoodShopAmount, &t.FoodShopAmount)
	setFloat(f.MinTradeAmount, &t.MinTradeAmount)
	setFloat(f.GenericFetchCap, &t.GenericFetchCap)
	setFloat(f.ProjectBudgetMin, &t.ProjectBudgetMin)
	setFloat(f.StorageOfferRate, &t.StorageOfferRate)
	setFloat(f.ArrivalTolerance, &t.ArrivalTolerance)
	setInt(f.AmountDecimals, &t.AmountDecimals)
	setInt(f.MaxStorageOffers, &t.MaxStorageOffers)
	setInt(f.TickParallelism, &t.TickParallelism)
	setString(f.FishermanHomeType, &t.FishermanHomeType)
	setString(f.DockType, &t.DockType)
	setString(f.WarehouseType, &t.WarehouseType)

	if f.FoodResources != nil {
		t.FoodResources = f.FoodResources
	}
	if f.TavernTypes != nil {
		t.TavernTypes = f.TavernTypes
	}
	if f.RetailFoodTypes != nil {
		t.RetailFoodTypes = f.RetailFoodTypes
	}
	if f.LodgingTypes != nil {
		t.LodgingTypes = f.LodgingTypes
	}
	if f.TheaterTypes != nil {
		t.TheaterTypes = f.TheaterTypes
	}
	if f.ChurchTypes != nil {
		t.ChurchTypes = f.ChurchTypes
	}

	if f.Recipes != nil {
		recipes := make(map[string]Recipe, len(f.Recipes))
		for buildingType, r := range f.Recipes {
			inputs := make([]ResourceAmount, 0, len(r.Inputs))
			for _, in := range r.Inputs {
				inputs = append(inputs, ResourceAmount{ResourceType: in.ResourceType, Amount: in.Amount})
			}
			recipes[buildingType] = Recipe{
				Inputs: inputs,
				Output: ResourceAmount{ResourceType: r.Output.ResourceType, Amount: r.Output.Amount},
			}
		}
		t.Recipes = recipes
	}
	return nil
}

func setFloat(src *float64, dst *float64) {
	if src != nil {
		*dst = *src
	}
}

func setInt(src *int, dst *int) {
	if src != nil {
		*dst = *src
	}
}

func setString(src *string, dst *string) {
	if src != nil {
		*dst = *src
	}
}
