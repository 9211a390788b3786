package agent

import "reflect"

// Type represents a specific type of an agent Config.
// Config's with this type can create Agents of the corresponding type.
//
// For example, if a Config has Type DDPGMLP, then the Config is used
// to construct DDPG agents whose actor and critic are MLPs.
type Type string

const (
	DDPGMLP Type = "DDPG-MLP"
)

// registeredTypes holds the concrete ConfigList type to deserialize
// into for each agent Type.
//
// The map starts empty. Each agent package registers its own Type in
// an init function, since this package cannot import agent packages
// without creating an import cycle.
var registeredTypes map[Type]reflect.Type = make(map[Type]reflect.Type)

// Register registers an agent's Type with a concrete ConfigList type
// so that upon deserialization of a TypedConfigList, ConfigLists of
// type agentType are deserialized into the concrete type of configs.
func Register(agentType Type, configs ConfigList) {
	registeredTypes[agentType] = reflect.TypeOf(configs)
}
