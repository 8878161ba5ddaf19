package mode

// Mode is the search strategy. A closed set: invalid combinations of signals
// are unrepresentable as modes.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses lexical and semantic scores with configurable weights.
	Hybrid   Mode = "hybrid"
	Lexical  Mode = "lexical"
	Semantic Mode = "semantic"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Lexical || m == Semantic
}

// UsesLexical reports whether the mode consults the inverted lexical index.
func (m Mode) UsesLexical() bool { return m == Hybrid || m == Lexical }

// UsesSemantic reports whether the mode consults the ANN index.
func (m Mode) UsesSemantic() bool { return m == Hybrid || m == Semantic }
