// Package pipeline sequences the stages that turn a prompt into an exported
// assembly: classify, decompose, generate, validate, assign materials,
// export.
//
// Every stage except validation is an external collaborator (usually an LLM
// call) behind an interface. The package ships deterministic fixture
// implementations so the whole pipeline runs offline from a component file.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/chazu/trestle/pkg/assembly"
	"github.com/chazu/trestle/pkg/errors"
	"github.com/chazu/trestle/pkg/export"
	"github.com/chazu/trestle/pkg/scene"
)

// Classification is the gatekeeper's verdict on a prompt.
type Classification struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// Classifier decides whether a prompt describes something buildable.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (Classification, error)
}

// Decomposer breaks a prompt into named parts.
type Decomposer interface {
	Decompose(ctx context.Context, prompt string) (*Decomposition, error)
}

// Generator emits primitive components for a decomposition.
type Generator interface {
	Generate(ctx context.Context, d *Decomposition) ([]scene.Component, error)
}

// MaterialsAgent assigns materials to validated components.
type MaterialsAgent interface {
	AssignMaterials(ctx context.Context, comps []scene.Component) ([]scene.Component, error)
}

// Exporter writes the final assembly.
type Exporter interface {
	Export(ctx context.Context, comps []scene.Component) (export.Artifact, error)
}

// Outcome is everything a run produced. Fields are filled in stage order, so
// a failed run still carries the stages that completed.
type Outcome struct {
	Classification Classification         `json:"classification"`
	Decomposition  *Decomposition         `json:"decomposition,omitempty"`
	Components     []scene.Component      `json:"components,omitempty"`
	Report         *assembly.Report       `json:"report,omitempty"`
	Graph          *assembly.Graph        `json:"-"`
	Artifact       *export.Artifact       `json:"artifact,omitempty"`
	Patterns       []assembly.PatternSpec `json:"-"`
}

// Runner wires the stages together. Materials and Exporter are optional.
type Runner struct {
	Classifier  Classifier
	Decomposer  Decomposer
	Generator   Generator
	Validator   *assembly.Validator
	Materials   MaterialsAgent
	Exporter    Exporter
	Connections assembly.Connections // nil derives them per run
	Logger      *log.Logger
}

// Run executes the pipeline for prompt. A rejected prompt returns a
// REJECTED error together with the outcome so far.
func (r *Runner) Run(ctx context.Context, prompt string) (*Outcome, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	out := &Outcome{}

	c, err := r.Classifier.Classify(ctx, prompt)
	if err != nil {
		return out, stageErr("classify", err)
	}
	out.Classification = c
	if !c.Accepted {
		logger.Warn("prompt rejected", "reason", c.Reason)
		return out, errors.New(errors.ErrCodeRejected, "%s", c.Reason)
	}

	d, err := r.Decomposer.Decompose(ctx, prompt)
	if err != nil {
		return out, stageErr("decompose", err)
	}
	out.Decomposition = d
	logger.Debug("decomposed", "parts", len(d.Components))

	comps, err := r.Generator.Generate(ctx, d)
	if err != nil {
		return out, stageErr("generate", err)
	}
	logger.Debug("generated", "components", len(comps))

	v := r.Validator
	if v == nil {
		v = assembly.New(assembly.Options{Logger: logger})
	}
	out.Patterns = d.PatternsFor(comps)
	res := v.Validate(comps, r.Connections, out.Patterns)
	out.Components, out.Graph, out.Report = res.Components, res.Graph, &res.Report
	logger.Info("validated",
		"adjustments", len(res.Report.Adjustments),
		"errors", len(res.Report.Errors()),
		"warnings", len(res.Report.Warnings()))

	if r.Materials != nil {
		withMaterials, err := r.Materials.AssignMaterials(ctx, out.Components)
		if err != nil {
			return out, stageErr("assign materials", err)
		}
		out.Components = withMaterials
	}

	if r.Exporter != nil {
		art, err := r.Exporter.Export(ctx, out.Components)
		if err != nil {
			return out, stageErr("export", err)
		}
		out.Artifact = &art
		logger.Info("exported", "dir", art.Dir)
	}
	return out, nil
}

// stageErr prefixes err with the stage name, coding uncoded errors as
// internal.
func stageErr(stage string, err error) error {
	if errors.GetCode(err) != "" {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "%s", stage)
}
