package scene

type Handedness uint8

const (
	HandednessLeft Handedness = iota
	HandednessRight
)

/** @brief Scene wide settings carried by every Set message. */
type Settings struct {
	Handedness  Handedness
	ScaleFactor float32
}

/**
 * @brief The unit of transmission. Meshes are kept apart from the other
 * objects so each one can be sent in its own message.
 */
type Snapshot struct {
	Settings    Settings
	Deleted     []string
	Objects     []Object
	Meshes      []*Mesh
	Materials   []*Material
	Animations  []*AnimationClip
	Constraints []*Constraint
}

func NewSnapshot(settings Settings) *Snapshot {
	return &Snapshot{Settings: settings}
}

// AddObject routes meshes to Meshes and everything else to Objects.
func (s *Snapshot) AddObject(o Object) {
	if m, ok := o.(*Mesh); ok {
		s.Meshes = append(s.Meshes, m)
		return
	}
	s.Objects = append(s.Objects, o)
}

func (s *Snapshot) HasSceneData() bool {
	return len(s.Objects) > 0 || len(s.Materials) > 0
}

func (s *Snapshot) HasAnimationData() bool {
	return len(s.Animations) > 0 || len(s.Constraints) > 0
}

func (s *Snapshot) Empty() bool {
	return len(s.Deleted) == 0 && !s.HasSceneData() && len(s.Meshes) == 0 && !s.HasAnimationData()
}

// ObjectCount counts meshes and other objects.
func (s *Snapshot) ObjectCount() int {
	return len(s.Objects) + len(s.Meshes)
}

/**
 * @brief Moves the accumulated contents out into a new snapshot and leaves s
 * with fresh, empty buffers. The caller owns the returned snapshot.
 */
func (s *Snapshot) Take() *Snapshot {
	out := *s
	*s = Snapshot{Settings: s.Settings}
	return &out
}
