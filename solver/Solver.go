// Package solver wraps Gorgonia Solvers with JSON-serializable
// configurations so that experiment files can describe which gradient
// descent rule to run and with which hyperparameters.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// registry maps each solver Type to the concrete Config that builds it.
// UnmarshalJSON consults this map to recover the concrete type of a
// serialized Config.
var registry map[string]reflect.Type = map[string]reflect.Type{
	string(Vanilla): reflect.TypeOf(VanillaConfig{}),
	string(Adam):    reflect.TypeOf(AdamConfig{}),
	string(RMSProp): reflect.TypeOf(RMSPropConfig{}),
}

// Config describes the hyperparameters of a single Gorgonia Solver and
// can construct the Solver it describes.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool
}

// Solver pairs a Gorgonia Solver with the Config that built it. The
// Gorgonia Solver itself is never serialized. Instead, the Type and
// Config are stored, and the Solver is reconstructed from the Config
// when unmarshalling.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// newSolver returns a new Solver of type t, built from c
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}

	s := Solver{Type: t, Config: c}
	s.Solver = s.Config.Create()

	return &s, nil
}

// String implements the fmt.Stringer interface
func (s *Solver) String() string {
	return fmt.Sprintf("%v: %+v", s.Type, s.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	typeName, ok := fields["Type"].(string)
	if !ok {
		return fmt.Errorf("unmarshalJSON: no solver type given")
	}

	concrete, ok := registry[typeName]
	if !ok {
		return fmt.Errorf("unmarshalJSON: no such solver type %v", typeName)
	}
	config := reflect.New(concrete).Interface().(Config)

	configData, err := json.Marshal(fields["Config"])
	if err != nil {
		return err
	}
	if err := json.Unmarshal(configData, &config); err != nil {
		return err
	}

	s.Type = Type(typeName)
	s.Config = config
	s.Solver = s.Config.Create()

	return nil
}
