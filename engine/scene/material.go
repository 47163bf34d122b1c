package scene

import "github.com/spaghettifunk/meshsync/engine/math"

/** @brief ID is the position in the snapshot's material list. */
type Material struct {
	ID    int32
	Name  string
	Color math.Vec4
}

type materialKey struct {
	name  string
	color math.Vec4
}

// MaterialList deduplicates materials by name and color. IDs are positions in
// the list and only hold for the snapshot that carries it.
type MaterialList struct {
	items []*Material
	index map[materialKey]int32
}

func NewMaterialList() *MaterialList {
	return &MaterialList{index: make(map[materialKey]int32)}
}

// Add returns the id of an equal material, appending one if none exists.
func (l *MaterialList) Add(name string, color math.Vec4) int32 {
	key := materialKey{name, color}
	if id, ok := l.index[key]; ok {
		return id
	}
	id := int32(len(l.items))
	l.items = append(l.items, &Material{ID: id, Name: name, Color: color})
	l.index[key] = id
	return id
}

func (l *MaterialList) Len() int {
	return len(l.items)
}

func (l *MaterialList) Items() []*Material {
	return l.items
}
