package agent

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// TypedConfigList pairs a ConfigList with its agent Type. Storing the
// Type explicitly lets a serialized ConfigList be deserialized into
// its concrete type without declaring a variable of that type
// beforehand.
type TypedConfigList struct {
	Type
	ConfigList
}

// NewTypedConfigList types the argument ConfigList and returns it
// as a TypedConfigList which explicitly holds its Type.
func NewTypedConfigList(c ConfigList) TypedConfigList {
	return TypedConfigList{Type: c.Type(), ConfigList: c}
}

// At returns the Config at index i in the TypedConfigList
func (t *TypedConfigList) At(i int) Config {
	return ConfigAt(i, t.ConfigList)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (t *TypedConfigList) UnmarshalJSON(data []byte) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	typeName, ok := fields["Type"].(string)
	if !ok {
		return fmt.Errorf("unmarshalJSON: no agent type given")
	}

	concrete, ok := registeredTypes[Type(typeName)]
	if !ok {
		return fmt.Errorf("unmarshalJSON: no ConfigList registered for "+
			"agent type %v", typeName)
	}
	configs := reflect.New(concrete).Interface().(ConfigList)

	configsData, err := json.Marshal(fields["ConfigList"])
	if err != nil {
		return err
	}
	if err := json.Unmarshal(configsData, &configs); err != nil {
		return err
	}

	// ConfigLists are stored by value, so strip the pointer that
	// reflect.New introduced
	t.Type = Type(typeName)
	t.ConfigList = reflect.ValueOf(configs).Elem().Interface().(ConfigList)

	return nil
}
