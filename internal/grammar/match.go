package grammar

// Position is a line/column location within a source buffer.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

// Match is one node of the parser kernel's output tree: a rule identity,
// the literal input span it covers, and an ordered list of children. The
// tree is immutable once parsed.
type Match struct {
	Rule     Rule
	Pos      Position
	Text     string
	Children []*Match
}

// Is reports whether m's rule identity equals rule's.
func Is(m *Match, rule Rule) bool {
	return m != nil && m.Rule == rule
}

// Unnest returns m's sole child if m has exactly one, else m itself. Used
// to peel away grouping nodes introduced by Seq/Alt wrapping before a
// dialect inspects a subtree.
func Unnest(m *Match) *Match {
	if m != nil && len(m.Children) == 1 {
		return m.Children[0]
	}
	return m
}

// SelectNested walks m's subtree (excluding m itself) and returns every
// descendant match whose rule identity equals rule, without descending
// further once a match is found (so a nested occurrence of the same rule
// inside a matched node is not also returned).
func SelectNested(m *Match, rule Rule) []*Match {
	if m == nil {
		return nil
	}
	var out []*Match
	var walk func(*Match)
	walk = func(n *Match) {
		for _, c := range n.Children {
			if c.Rule == rule {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(m)
	return out
}

// GetMatch returns the first direct or nested child of m with the given
// rule identity, or nil if none exists.
func GetMatch(m *Match, rule Rule) *Match {
	found := SelectNested(m, rule)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// DirectChildren returns m's immediate children whose rule identity
// equals rule (no recursion into other children).
func DirectChildren(m *Match, rule Rule) []*Match {
	if m == nil {
		return nil
	}
	var out []*Match
	for _, c := range m.Children {
		if c.Rule == rule {
			out = append(out, c)
		}
	}
	return out
}
