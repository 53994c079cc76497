package weft

// TypeMap interns fact type names into small stable integers, assigned in
// first-seen order starting at 1. It is a persistent value: WithFactType
// returns a new map and never touches the receiver, so a compilation can
// hold a snapshot while the store loader keeps interning. A lookup miss
// means "unknown to this store", which is a first-class outcome.
type TypeMap struct {
	ids   map[string]int
	names map[int]string
}

func NewTypeMap() TypeMap {
	return TypeMap{
		ids:   map[string]int{},
		names: map[int]string{},
	}
}

func (m TypeMap) WithFactType(name string) (TypeMap, int) {
	if id, ok := m.ids[name]; ok {
		return m, id
	}
	id := len(m.ids) + 1
	ids := make(map[string]int, len(m.ids)+1)
	names := make(map[int]string, len(m.names)+1)
	for n, i := range m.ids {
		ids[n] = i
	}
	for i, n := range m.names {
		names[i] = n
	}
	ids[name] = id
	names[id] = name
	return TypeMap{ids: ids, names: names}, id
}

func (m TypeMap) FactTypeID(name string) (int, bool) {
	id, ok := m.ids[name]
	return id, ok
}

func (m TypeMap) FactTypeName(id int) (string, bool) {
	name, ok := m.names[id]
	return name, ok
}

func (m TypeMap) Size() int {
	return len(m.ids)
}

type roleKey struct {
	factTypeID int
	name       string
}

// RoleMap interns (fact type id, role name) pairs the same way TypeMap
// interns type names.
type RoleMap struct {
	ids   map[roleKey]int
	names map[int]roleKey
}

func NewRoleMap() RoleMap {
	return RoleMap{
		ids:   map[roleKey]int{},
		names: map[int]roleKey{},
	}
}

func (m RoleMap) WithRole(factTypeID int, name string) (RoleMap, int) {
	key := roleKey{factTypeID: factTypeID, name: name}
	if id, ok := m.ids[key]; ok {
		return m, id
	}
	id := len(m.ids) + 1
	ids := make(map[roleKey]int, len(m.ids)+1)
	names := make(map[int]roleKey, len(m.names)+1)
	for k, i := range m.ids {
		ids[k] = i
	}
	for i, k := range m.names {
		names[i] = k
	}
	ids[key] = id
	names[id] = key
	return RoleMap{ids: ids, names: names}, id
}

func (m RoleMap) RoleID(factTypeID int, name string) (int, bool) {
	id, ok := m.ids[roleKey{factTypeID: factTypeID, name: name}]
	return id, ok
}

func (m RoleMap) Role(id int) (factTypeID int, name string, ok bool) {
	key, ok := m.names[id]
	return key.factTypeID, key.name, ok
}

func (m RoleMap) Size() int {
	return len(m.ids)
}
