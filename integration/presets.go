// Package integration assembles runnable processes: it names the supported
// network profiles, builds their genesis and binds a process to its store.
//
// Usage:
//
//	preset, _ := integration.GetPresetByName("dev")
//	p, head, err := integration.Assemble(db, preset, nil, env)
package integration

import (
	"fmt"

	"github.com/rony4d/go-ario/ario"
)

// Preset is a rules set together with the shape of the fake genesis used
// when no genesis file is given.
type Preset struct {
	Name string
	// Network selects the rules, see ario.RulesByName.
	Network  string
	Gateways int
	Records  int
	// FakeGenesis allows starting without a genesis file.
	FakeGenesis bool
}

func DefaultPreset() Preset {
	return Preset{
		Name:        "default",
		Network:     "dev",
		Gateways:    10,
		Records:     20,
		FakeGenesis: true,
	}
}

// LitePreset is the smallest useful network, for local experiments.
func LitePreset() Preset {
	cfg := DefaultPreset()
	cfg.Name = "lite"
	cfg.Gateways = 3
	cfg.Records = 4
	return cfg
}

// FullPreset runs mainnet rules over a fake genesis large enough to fill
// every observer slot of an epoch.
func FullPreset() Preset {
	cfg := DefaultPreset()
	cfg.Name = "full"
	cfg.Network = "main"
	cfg.Gateways = 60
	cfg.Records = 10
	return cfg
}

// MainNetPreset requires a genesis file.
func MainNetPreset() Preset {
	return Preset{Name: "mainnet", Network: "main"}
}

// TestNetPreset requires a genesis file.
func TestNetPreset() Preset {
	return Preset{Name: "testnet", Network: "test"}
}

// GetPresetByName looks up a preset by its identifier.
func GetPresetByName(name string) (Preset, error) {
	switch name {
	case "lite":
		return LitePreset(), nil
	case "full":
		return FullPreset(), nil
	case "mainnet":
		return MainNetPreset(), nil
	case "testnet":
		return TestNetPreset(), nil
	case "default":
		return DefaultPreset(), nil
	default:
		return Preset{}, fmt.Errorf("unknown preset: %q (valid: lite, full, mainnet, testnet, default)", name)
	}
}

// ApplyPreset copies the non-zero fields of preset onto target.
func ApplyPreset(target *Preset, preset Preset) {
	if preset.Network != "" {
		target.Network = preset.Network
	}
	if preset.Gateways > 0 {
		target.Gateways = preset.Gateways
	}
	if preset.Records > 0 {
		target.Records = preset.Records
	}
	target.FakeGenesis = preset.FakeGenesis
	if preset.Name != "" {
		target.Name = preset.Name
	}
}

// Rules resolves the rules set of the preset.
func (p Preset) Rules() (ario.Rules, error) {
	rules, ok := ario.RulesByName(p.Network)
	if !ok {
		return ario.Rules{}, fmt.Errorf("preset %s: unknown network %q", p.Name, p.Network)
	}
	return rules, nil
}
