package prefabs

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type TransformSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Rotation float64 `yaml:"rotation"`
}

type SpriteSpec struct {
	Color  string  `yaml:"color"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type PointSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// BehaviorSpec describes the program a walker runs: either a path of
// displacements or a script.
type BehaviorSpec struct {
	Speed float64 `yaml:"speed"`
	// Path holds relative displacements, one walk per entry.
	Path []PointSpec `yaml:"path"`
	// Pause waits this many seconds after every leg.
	Pause float64 `yaml:"pause"`
	// Repeat runs the path this many times; 0 means once.
	Repeat int `yaml:"repeat"`
	// Loop runs the path until the entity is despawned.
	Loop   bool   `yaml:"loop"`
	Script string `yaml:"script"`
}

type WalkerSpec struct {
	Name      string        `yaml:"name"`
	Transform TransformSpec `yaml:"transform"`
	Sprite    SpriteSpec    `yaml:"sprite"`
	Kinematic bool          `yaml:"kinematic"`
	Behavior  BehaviorSpec  `yaml:"behavior"`
}

func LoadWalkerSpec(filename string) (*WalkerSpec, error) {
	spec, err := LoadSpec[WalkerSpec](filename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec.Name) == "" {
		spec.Name = strings.TrimSuffix(cleanPrefabPath(filename), ".yaml")
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return &spec, nil
}

func (s *WalkerSpec) Validate() error {
	b := s.Behavior
	if b.Script == "" && len(b.Path) == 0 {
		return fmt.Errorf("%w: behavior needs a path or a script", ErrInvalidSpec)
	}
	if b.Script != "" && len(b.Path) > 0 {
		return fmt.Errorf("%w: behavior has both a path and a script", ErrInvalidSpec)
	}
	if len(b.Path) > 0 && b.Speed <= 0 {
		return fmt.Errorf("%w: path speed must be positive, got %v", ErrInvalidSpec, b.Speed)
	}
	if b.Repeat < 0 || b.Pause < 0 {
		return fmt.Errorf("%w: repeat and pause must not be negative", ErrInvalidSpec)
	}
	return nil
}
