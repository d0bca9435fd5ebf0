package classpath

import "github.com/psantana5/clusterlambda/internal/catalog"

// orderedSet keeps the first occurrence of each entry key
type orderedSet struct {
	index map[catalog.EntryKey]int
	items []catalog.ArtifactEntry
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[catalog.EntryKey]int)}
}

func (s *orderedSet) add(e catalog.ArtifactEntry) bool {
	if _, ok := s.index[e.Key()]; ok {
		return false
	}
	s.index[e.Key()] = len(s.items)
	s.items = append(s.items, e)
	return true
}

func (s *orderedSet) entries() []catalog.ArtifactEntry {
	return s.items
}
