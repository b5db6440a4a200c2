package models

// MatchKind tags the evidence behind an edge. Relation and role edges use
// the upstream relation or role label as their kind.
type MatchKind string

const (
	MatchPhone   MatchKind = "Telefon"
	MatchEmail   MatchKind = "Email"
	MatchName    MatchKind = "Name"
	MatchAddress MatchKind = "Adresse"
)

// IsFieldKind reports whether k belongs to the bidirectional field-equality family
func (k MatchKind) IsFieldKind() bool {
	switch k {
	case MatchPhone, MatchEmail, MatchName, MatchAddress:
		return true
	}
	return false
}

// Edge is a candidate duplicate link between two nodes
type Edge struct {
	Source        string    `json:"source"`
	Target        string    `json:"target"`
	Kind          MatchKind `json:"match_type"`
	Bidirectional bool      `json:"bidirectional"`
}

// PairKey returns the unordered pair of the edge
func (e Edge) PairKey() [2]string {
	if e.Source <= e.Target {
		return [2]string{e.Source, e.Target}
	}
	return [2]string{e.Target, e.Source}
}
