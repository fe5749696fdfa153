package config

import "sort"

// preset builds a named scenario on top of DefaultConfig.
func preset(name string, edit func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	edit(cfg)
	return cfg
}

var Presets = map[string]*Config{
	"baseline": preset("baseline", func(c *Config) {}),
	"saturated": preset("saturated", func(c *Config) {
		c.Initial = []float64{1, 1, 1, 1, 1}
		c.ChannelScale = 1
		c.Perturbations[0] = []float64{0, 1}
		c.Perturbations[4] = []float64{0, 1}
		for _, i := range []int{1, 2, 3, 5, 6, 7, 8, 9, 10, 11, 12, 13} {
			c.Perturbations[i] = []float64{0, -1}
		}
	}),
	"high-pressure": preset("high-pressure", func(c *Config) {
		c.Initial = []float64{0.2, 0.2, 0.2, 0.2, 0.2}
		c.Time = 0.5
		c.ChannelScale = 2
		for i := 6; i < 14; i++ {
			c.Perturbations[i] = []float64{1, 0}
		}
		c.Perturbations[0] = []float64{1, 0.5}
		c.Perturbations[3] = []float64{1, 0.5}
		c.Perturbations[4] = []float64{1, 0.5}
	}),
	"mitigation": preset("mitigation", func(c *Config) {
		c.Initial = []float64{0.6, 0.5, 0.6, 0.5, 0.4}
		c.Time = 1
		c.Perturbations[1] = []float64{1, 1}
		c.Perturbations[2] = []float64{1, 1}
		c.Perturbations[5] = []float64{1, 1}
		c.Perturbations[13] = []float64{1, 0}
		c.Bounds = []float64{0.8, 0.8, 0.8, 0.8, 0.8}
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
