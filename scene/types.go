package scene

import "github.com/matt-g-everett/ledanim/anim"

// ID type codes known to the rig.
const (
	CodeObject   = "OB"
	CodeLight    = "LA"
	CodeMaterial = "MA"
	CodeWorld    = "WO"
	CodeLibrary  = "LI"
	CodeScreen   = "SC"
)

// InitTypes registers the rig's ID types. Call it once before loading scenes.
func InitTypes(reg *anim.TypeRegistry) {
	reg.Register(anim.IDType{Code: CodeObject, Name: "Object", Animatable: true})
	reg.Register(anim.IDType{Code: CodeLight, Name: "Light", Animatable: true})
	reg.Register(anim.IDType{Code: CodeMaterial, Name: "Material", Animatable: true})
	reg.Register(anim.IDType{Code: CodeWorld, Name: "World", Animatable: true})
	reg.Register(anim.IDType{Code: CodeLibrary, Name: "Library", Animatable: false})
	reg.Register(anim.IDType{Code: CodeScreen, Name: "Screen", Animatable: false})
}
