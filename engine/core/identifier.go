package core

// IndexSeed hands out the integer index stamped on every exported object.
// Indices start at 1, only grow, and are never handed out twice.
type IndexSeed struct {
	last uint32
}

func NewIndexSeed() *IndexSeed {
	return &IndexSeed{}
}

// Next returns a fresh index.
func (s *IndexSeed) Next() int32 {
	s.last++
	return int32(s.last)
}

// Last returns the most recent index, 0 if none was handed out yet.
func (s *IndexSeed) Last() int32 {
	return int32(s.last)
}
