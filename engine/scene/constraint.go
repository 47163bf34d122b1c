package scene

type ConstraintKind uint8

const (
	ConstraintAim ConstraintKind = iota + 1
	ConstraintParent
	ConstraintPosition
	ConstraintRotation
	ConstraintScale
)

// Constraint binds the object at Path to the objects at Sources.
type Constraint struct {
	Kind    ConstraintKind
	Path    string
	Sources []string
}
