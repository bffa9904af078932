package straindesign

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/straindesign/cost"
	"github.com/katalvlaran/straindesign/network"
	"github.com/katalvlaran/straindesign/sdmilp"
	"github.com/katalvlaran/straindesign/sdmodule"
	"github.com/katalvlaran/straindesign/translate"
)

// RegulatorySpec is the serialisable form of a regulatory intervention.
type RegulatorySpec struct {
	Constraint string  `yaml:"constraint" json:"constraint"`
	Cost       float64 `yaml:"cost" json:"cost"`
	Label      string  `yaml:"label,omitempty" json:"label,omitempty"`
}

// Setup records the parameters of a run for audit and replay. Costs holds
// the cost maps as the caller gave them, so Config replays the run; the
// Effective maps show which candidates the run actually used.
type Setup struct {
	RunID    string          `yaml:"run_id" json:"run_id"`
	Solver   string          `yaml:"solver" json:"solver"`
	BigM     float64         `yaml:"big_m" json:"big_m"`
	Compress bool            `yaml:"compress" json:"compress"`
	Genes    bool            `yaml:"genes" json:"genes"`
	Modules  []sdmodule.Spec `yaml:"modules" json:"modules"`
	Costs    cost.Set        `yaml:"costs" json:"costs"`
	// EffectiveKO and EffectiveKI are the reaction-level candidate costs
	// after defaults, screening, gene extension and regulatory extension.
	EffectiveKO cost.Costs       `yaml:"effective_ko_cost,omitempty" json:"effective_ko_cost,omitempty"`
	EffectiveKI cost.Costs       `yaml:"effective_ki_cost,omitempty" json:"effective_ki_cost,omitempty"`
	Regulatory  []RegulatorySpec `yaml:"regulatory,omitempty" json:"regulatory,omitempty"`
	Solve       *SolveOptions    `yaml:"solve,omitempty" json:"solve,omitempty"`
}

// newSetup captures cfg and mods as given by the caller. The effective
// cost maps are filled in by Prepare.
func newSetup(cfg Config, mods []sdmodule.Module) Setup {
	capa, _ := sdmilp.Capabilities(cfg.Solver)
	s := Setup{
		RunID:    uuid.NewString(),
		Solver:   cfg.Solver,
		BigM:     sdmilp.NewEmitter(capa, cfg.BigM).M(),
		Compress: cfg.Compress,
		Genes:    cfg.Genes,
		Costs:    cfg.Costs.Clone(),
	}
	for _, m := range mods {
		s.Modules = append(s.Modules, sdmodule.ToSpec(m))
	}
	for _, r := range cfg.Regulatory {
		s.Regulatory = append(s.Regulatory, RegulatorySpec{Constraint: r.Constraint.String(), Cost: r.Cost, Label: r.Label})
	}

	return s
}

// YAML encodes s.
func (s Setup) YAML() ([]byte, error) { return yaml.Marshal(s) }

// LoadSetup decodes a setup written by Setup.YAML.
func LoadSetup(data []byte) (Setup, error) {
	var s Setup
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Setup{}, fmt.Errorf("load setup: %w", err)
	}

	return s, nil
}

// Config rebuilds the run configuration and modules recorded in s. The
// effective cost maps are not part of the rebuilt Config.
// Errors: network.ErrSyntax, sdmodule.ErrUnknownKind.
func (s Setup) Config() (Config, []sdmodule.Module, error) {
	cfg := Config{
		Solver:   s.Solver,
		Compress: s.Compress,
		Genes:    s.Genes,
		Costs:    s.Costs.Clone(),
	}
	if !math.IsInf(s.BigM, 1) {
		if capa, err := sdmilp.Capabilities(s.Solver); err != nil || capa.BigM != s.BigM {
			cfg.BigM = s.BigM
		}
	}
	for _, r := range s.Regulatory {
		c, err := network.ParseConstraint(r.Constraint)
		if err != nil {
			return Config{}, nil, err
		}
		cfg.Regulatory = append(cfg.Regulatory, translate.Regulatory{Constraint: c, Cost: r.Cost, Label: r.Label})
	}
	mods := make([]sdmodule.Module, 0, len(s.Modules))
	for _, spec := range s.Modules {
		m, err := spec.Module()
		if err != nil {
			return Config{}, nil, err
		}
		mods = append(mods, m)
	}

	return cfg, mods, nil
}
