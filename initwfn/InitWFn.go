// Package initwfn wraps Gorgonia InitWFn with JSON-serializable
// configurations so that experiment files can describe how neural
// network weights should be initialized.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
	Uniform  Type = "Uniform"
	Gaussian Type = "Gaussian"
)

// registry maps each InitWFn Type to the concrete Config that builds
// it. UnmarshalJSON consults this map to recover the concrete type of
// a serialized Config.
var registry map[string]reflect.Type = map[string]reflect.Type{
	string(GlorotU):  reflect.TypeOf(GlorotUConfig{}),
	string(GlorotN):  reflect.TypeOf(GlorotNConfig{}),
	string(HeU):      reflect.TypeOf(HeUConfig{}),
	string(HeN):      reflect.TypeOf(HeNConfig{}),
	string(Zeroes):   reflect.TypeOf(ZeroesConfig{}),
	string(Ones):     reflect.TypeOf(OnesConfig{}),
	string(Constant): reflect.TypeOf(ConstantConfig{}),
	string(Uniform):  reflect.TypeOf(UniformConfig{}),
	string(Gaussian): reflect.TypeOf(GaussianConfig{}),
}

// Config describes a single weight initialization scheme and can
// construct the Gorgonia InitWFn it describes.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}

// InitWFn pairs a Gorgonia InitWFn with the Config that built it. The
// closure itself is never serialized. Instead, the Type and Config are
// stored, and the InitWFn is reconstructed from the Config when
// unmarshalling.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

// newInitWFn returns a new InitWFn built from c
func newInitWFn(c Config) (*InitWFn, error) {
	init := InitWFn{Type: c.Type(), Config: c}
	init.initWFn = init.Config.Create()

	return &init, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (w *InitWFn) InitWFn() G.InitWFn {
	return w.initWFn
}

// String implements the fmt.Stringer interface
func (w *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", w.Type, w.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (w *InitWFn) UnmarshalJSON(data []byte) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	typeName, ok := fields["Type"].(string)
	if !ok {
		return fmt.Errorf("unmarshalJSON: no InitWFn type given")
	}

	concrete, ok := registry[typeName]
	if !ok {
		return fmt.Errorf("unmarshalJSON: no such InitWFn type %v", typeName)
	}
	config := reflect.New(concrete).Interface().(Config)

	configData, err := json.Marshal(fields["Config"])
	if err != nil {
		return err
	}
	if err := json.Unmarshal(configData, &config); err != nil {
		return err
	}

	// Configs are stored by value, so strip the pointer that
	// reflect.New introduced
	w.Type = Type(typeName)
	w.Config = reflect.ValueOf(config).Elem().Interface().(Config)
	w.initWFn = w.Config.Create()

	return nil
}
