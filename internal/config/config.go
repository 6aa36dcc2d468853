package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"shelfline/internal/domain"
)

// Config models shelfline.yml: the warehouse layout, fleet parameters,
// item catalog, and the order list seeded at simulation start.
type Config struct {
	Warehouse struct {
		Width  int `yaml:"width" json:"width"`
		Height int `yaml:"height" json:"height"`
		// Blocked cells are untraversable for every robot.
		Blocked []domain.Point `yaml:"blocked" json:"blocked,omitempty"`
		// Narrow cells are traversable only for robots not carrying a shelf.
		Narrow []domain.Point `yaml:"narrow" json:"narrow,omitempty"`
	} `yaml:"warehouse" json:"warehouse"`
	Fleet struct {
		Size int `yaml:"size" json:"size"`
		// Home is the first cell of the seeding row; robot i starts at
		// (home.x + i, home.y).
		Home            domain.Point `yaml:"home" json:"home"`
		ChargeThreshold int          `yaml:"charge_threshold" json:"charge_threshold"`
	} `yaml:"fleet" json:"fleet"`
	Picker struct {
		Dropoff domain.Point `yaml:"dropoff" json:"dropoff"`
	} `yaml:"picker" json:"picker"`
	Shelves []ShelfConfig `yaml:"shelves" json:"shelves"`
	Orders  []OrderConfig `yaml:"orders" json:"orders"`
	Sim     struct {
		MaxTicks int `yaml:"max_ticks" json:"max_ticks"`
	} `yaml:"sim" json:"sim"`
}

type ShelfConfig struct {
	Location domain.Point  `yaml:"location" json:"location"`
	Items    []CatalogItem `yaml:"items" json:"items,omitempty"`
}

// OrderConfig is one order seeded during a run; At is the tick it is
// submitted to the scheduler.
type OrderConfig struct {
	SKU string `yaml:"sku" json:"sku"`
	At  int    `yaml:"at" json:"at"`
}

type CatalogItem struct {
	SKU  string `yaml:"sku" json:"sku"`
	Name string `yaml:"name" json:"name,omitempty"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create with sl layout init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config describes a runnable warehouse.
func (c *Config) Validate() error {
	if c.Warehouse.Width <= 0 || c.Warehouse.Height <= 0 {
		return fmt.Errorf("warehouse dimensions must be positive")
	}
	inBounds := func(p domain.Point) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < c.Warehouse.Width && p.Y < c.Warehouse.Height
	}
	for _, p := range c.Warehouse.Blocked {
		if !inBounds(p) {
			return fmt.Errorf("blocked cell %s outside warehouse", p)
		}
	}
	for _, p := range c.Warehouse.Narrow {
		if !inBounds(p) {
			return fmt.Errorf("narrow cell %s outside warehouse", p)
		}
	}
	if c.Fleet.Size < 1 {
		return fmt.Errorf("fleet.size must be at least 1")
	}
	if !inBounds(c.Fleet.Home) {
		return fmt.Errorf("fleet.home %s outside warehouse", c.Fleet.Home)
	}
	last := domain.Point{X: c.Fleet.Home.X + c.Fleet.Size - 1, Y: c.Fleet.Home.Y}
	if !inBounds(last) {
		return fmt.Errorf("fleet row of %d robots from %s leaves the warehouse", c.Fleet.Size, c.Fleet.Home)
	}
	if c.Fleet.ChargeThreshold <= 0 || c.Fleet.ChargeThreshold > 100 {
		return fmt.Errorf("fleet.charge_threshold must be in (0,100]")
	}
	if !inBounds(c.Picker.Dropoff) {
		return fmt.Errorf("picker.dropoff %s outside warehouse", c.Picker.Dropoff)
	}
	slots := map[domain.Point]bool{}
	skus := map[string]bool{}
	for i, s := range c.Shelves {
		if !inBounds(s.Location) {
			return fmt.Errorf("shelf %d at %s outside warehouse", i, s.Location)
		}
		if slots[s.Location] {
			return fmt.Errorf("two shelves share slot %s", s.Location)
		}
		slots[s.Location] = true
		for _, it := range s.Items {
			if it.SKU == "" {
				return fmt.Errorf("shelf %d has item with empty sku", i)
			}
			if skus[it.SKU] {
				return fmt.Errorf("sku %s stocked on more than one shelf", it.SKU)
			}
			skus[it.SKU] = true
		}
	}
	for i, o := range c.Orders {
		if o.SKU == "" {
			return fmt.Errorf("order %d has empty sku", i)
		}
		if !skus[o.SKU] {
			return fmt.Errorf("order %d references unstocked sku %s", i, o.SKU)
		}
		if o.At < 0 {
			return fmt.Errorf("order %d scheduled before tick 0", i)
		}
	}
	if c.Sim.MaxTicks < 0 {
		return fmt.Errorf("sim.max_ticks must not be negative")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "shelfline.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `warehouse:
  width: 40
  height: 30
  blocked: []
  narrow: []

fleet:
  size: 10
  home: {x: 20, y: 0}
  charge_threshold: 80

picker:
  dropoff: {x: 0, y: 15}

shelves:
  - location: {x: 10, y: 7}
    items:
      - {sku: SKU-1001, name: "widget, small"}
      - {sku: SKU-1002, name: "widget, large"}
  - location: {x: 14, y: 7}
    items:
      - {sku: SKU-2001, name: gasket}
  - location: {x: 18, y: 7}
    items:
      - {sku: SKU-3001, name: bracket}
  - location: {x: 22, y: 7}
    items:
      - {sku: SKU-4001, name: fastener pack}
  - location: {x: 26, y: 7}
    items:
      - {sku: SKU-5001, name: manual}

orders:
  - {sku: SKU-1001, at: 0}
  - {sku: SKU-3001, at: 2}

sim:
  max_ticks: 100000
`
