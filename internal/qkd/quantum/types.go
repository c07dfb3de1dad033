package quantum

// Basis represents the encoding basis in BB84 protocol
type Basis int

const (
	// RectilinearBasis represents the computational basis (Z-basis): |0⟩, |1⟩
	RectilinearBasis Basis = 0
	// DiagonalBasis represents the Hadamard basis (X-basis): |+⟩, |−⟩
	DiagonalBasis Basis = 1
)

func (b Basis) String() string {
	switch b {
	case RectilinearBasis:
		return "Rectilinear(+)"
	case DiagonalBasis:
		return "Diagonal(×)"
	default:
		return "Unknown"
	}
}

// Symbol returns the single-character display form of the basis: "+" or "×"
func (b Basis) Symbol() string {
	switch b {
	case RectilinearBasis:
		return "+"
	case DiagonalBasis:
		return "×"
	default:
		return "?"
	}
}

// Matches reports whether two bases are the same variant
func (b Basis) Matches(other Basis) bool {
	return b == other
}

// Bit represents a classical bit (0 or 1)
type Bit int

const (
	Zero Bit = 0
	One  Bit = 1
)

// Char returns '0' or '1'
func (b Bit) Char() byte {
	if b == One {
		return '1'
	}
	return '0'
}

// CountMatchingBases counts positions where both sequences use the same basis.
// Only the common prefix is considered.
func CountMatchingBases(a, b []Basis) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	matches := 0
	for i := 0; i < n; i++ {
		if a[i].Matches(b[i]) {
			matches++
		}
	}
	return matches
}
