package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderset"
	"github.com/gogpu/shaderset/shaderpack"
)

// Manifest describes one shader set on disk.
//
//	label: sprite
//	instance: [offset, tint]
//	stages:
//	  - stage: vertex
//	    path: sprite.vert.spv
//	    entry: main
//	    specialization: {1: 4, 2: true}
//	  - stage: fragment
//	    wgsl: |
//	      @fragment fn fs_main() -> @location(0) vec4<f32> { ... }
//	    entry: fs_main
type Manifest struct {
	Label    string          `yaml:"label"`
	Instance []string        `yaml:"instance,omitempty"`
	Stages   []ManifestStage `yaml:"stages"`

	dir string
}

// ManifestStage is one stage of a Manifest. Exactly one of Path and WGSL
// is set.
type ManifestStage struct {
	Stage          shaderset.Stage `yaml:"stage"`
	Path           string          `yaml:"path,omitempty"`
	WGSL           string          `yaml:"wgsl,omitempty"`
	Entry          string          `yaml:"entry"`
	Specialization map[uint32]any  `yaml:"specialization,omitempty"`
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Stages) == 0 {
		return nil, fmt.Errorf("manifest %s: no stages", path)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Entries compiles or loads every stage.
func (m *Manifest) Entries() ([]shaderpack.Entry, error) {
	entries := make([]shaderpack.Entry, 0, len(m.Stages))
	for i, st := range m.Stages {
		sh, err := st.shader(m.dir)
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, st.Stage, err)
		}
		spec, err := st.specialization()
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, st.Stage, err)
		}
		entries = append(entries, shaderpack.Entry{Shader: sh, Specialization: spec})
	}
	return entries, nil
}

func (s ManifestStage) shader(dir string) (shaderset.StageShader, error) {
	switch {
	case s.Path != "" && s.WGSL != "":
		return shaderset.StageShader{}, fmt.Errorf("both path and wgsl set")
	case s.WGSL != "":
		return shaderset.NewWGSLShader(s.WGSL, s.Stage, s.Entry).Compiled()
	case s.Path != "":
		path := s.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return shaderset.StageShader{}, err
		}
		code, err := shaderset.FromBytes(data)
		if err != nil {
			return shaderset.StageShader{}, fmt.Errorf("%s: %w", path, err)
		}
		return shaderset.NewStageShader(code, s.Stage, s.Entry)
	default:
		return shaderset.StageShader{}, fmt.Errorf("neither path nor wgsl set")
	}
}

func (s ManifestStage) specialization() (*shaderset.Specialization, error) {
	if len(s.Specialization) == 0 {
		return nil, nil
	}
	ids := make([]uint32, 0, len(s.Specialization))
	for id := range s.Specialization {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	spec := &shaderset.Specialization{}
	for _, id := range ids {
		switch v := s.Specialization[id].(type) {
		case bool:
			spec.SetBool(id, v)
		case int:
			switch {
			case v < math.MinInt32 || int64(v) > math.MaxUint32:
				return nil, fmt.Errorf("specialization %d: %d does not fit in 32 bits", id, v)
			case v < 0:
				spec.SetInt32(id, int32(v))
			default:
				spec.SetUint32(id, uint32(v))
			}
		case uint64:
			// yaml.v3 decodes integers above MaxInt64 as uint64.
			return nil, fmt.Errorf("specialization %d: %d does not fit in 32 bits", id, v)
		case float64:
			spec.SetFloat32(id, float32(v))
		default:
			return nil, fmt.Errorf("specialization %d: unsupported value %v (%T)", id, v, v)
		}
	}
	return spec, nil
}
