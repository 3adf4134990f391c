package anim

// ID identifies an animatable object. The first two characters of Name
// are the object's type code, e.g. "LAStar" is a light called "Star".
type ID struct {
	Name string
}

// Code returns the ID's type code.
func (id *ID) Code() string {
	if len(id.Name) < 2 {
		return ""
	}
	return id.Name[:2]
}

// DisplayName returns the name without its type code.
func (id *ID) DisplayName() string {
	if len(id.Name) < 2 {
		return id.Name
	}
	return id.Name[2:]
}

// IDType describes one kind of ID.
type IDType struct {
	Code       string
	Name       string
	Animatable bool
}

// TypeRegistry knows which ID types exist and which of them can be animated.
// Fill it once at startup before binding any outputs.
type TypeRegistry struct {
	types map[string]IDType
}

// NewTypeRegistry creates an empty TypeRegistry.
func NewTypeRegistry() *TypeRegistry {
	r := new(TypeRegistry)
	r.types = make(map[string]IDType)
	return r
}

// Register adds t, replacing any type with the same code.
func (r *TypeRegistry) Register(t IDType) {
	r.types[t.Code] = t
}

// Lookup returns the type registered for code.
func (r *TypeRegistry) Lookup(code string) (IDType, bool) {
	t, ok := r.types[code]
	return t, ok
}

// CanHaveAnimation reports whether id's type is registered as animatable.
func (r *TypeRegistry) CanHaveAnimation(id *ID) bool {
	if id == nil {
		return false
	}
	t, ok := r.types[id.Code()]
	return ok && t.Animatable
}
