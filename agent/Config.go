package agent

import (
	"fmt"
	"reflect"

	"github.com/samuelfneumann/goddpg/environment"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument agent is valid for the
	// Config
	ValidAgent(Agent) bool

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error
}

// ConfigList represents a list of Config's of a single agent type.
//
// Instead of storing a slice of Config's, a ConfigList stores one
// slice per Config field, each holding the values that the field may
// take on. The list then describes the cross product of all its field
// values, which is far more memory efficient than a slice of Config's
// when sweeping hyperparameter settings.
type ConfigList interface {
	// Config returns an empty Config of the same concrete type as
	// those described by the ConfigList
	Config() Config

	// Type returns the type of agent which Config's in the list
	// construct
	Type() Type

	// Len returns the number of Config's in the list
	Len() int

	// NumFields returns the number of settable fields per Config
	NumFields() int
}

// ConfigAt returns the Config at index i in a ConfigList.
//
// Since a ConfigList is a struct of slices describing the cross
// product of its field values, each index i in [0, Len()) refers to
// exactly one Config. Fields are enumerated in declaration order,
// with earlier fields varying fastest.
func ConfigAt(i int, list ConfigList) Config {
	if i < 0 || i >= list.Len() {
		panic(fmt.Sprintf("configAt: index out of range \n\twant(<%v) "+
			"\n\thave(%v)", list.Len(), i))
	}

	listValue := reflect.ValueOf(list)
	listType := listValue.Type()

	// The concrete Config to fill with the values at index i
	config := reflect.New(reflect.TypeOf(list.Config())).Elem()

	for field := 0; field < listValue.NumField(); field++ {
		values := listValue.Field(field)
		if values.Kind() != reflect.Slice {
			continue
		}

		index := i % values.Len()
		i /= values.Len()

		configField := config.FieldByName(listType.Field(field).Name)
		if !configField.IsValid() || !configField.CanSet() {
			continue
		}
		configField.Set(values.Index(index))
	}

	return config.Interface().(Config)
}
