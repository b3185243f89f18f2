// basis.go --  This file is part of govhf project.
//
//	govhf is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package vhf

import "fmt"

// Atom is a point charge with coordinates in bohr.
type Atom struct {
	Z     int
	Coord [3]float64
}

// Shell is one contracted Gaussian shell centered on an atom.
// Coeffs holds NPrim*NCtr contraction coefficients of normalized
// primitives, primitive index fastest. Kappa selects the spinor
// structure in the relativistic AO convention: kappa < 0 selects
// j = l+1/2, kappa > 0 selects j = l-1/2, kappa == 0 keeps both.
type Shell struct {
	Atom   int
	L      int
	Kappa  int
	NPrim  int
	NCtr   int
	Exps   []float64
	Coeffs []float64
}

// InvalidBasisError reports a malformed atom/shell table. It is
// returned by NewBasis before any integral work begins.
type InvalidBasisError struct {
	Shell  int
	Reason string
}

func (e *InvalidBasisError) Error() string {
	if e.Shell < 0 {
		return "vhf: invalid basis: " + e.Reason
	}
	return fmt.Sprintf("vhf: invalid basis: shell %d: %s", e.Shell, e.Reason)
}

// Basis is the immutable shell/basis descriptor shared by every other
// component. The offset tables returned by AOLoc, AOLocSpinor and
// TimeRevMap alias internal storage and must not be modified.
type Basis struct {
	Atoms  []Atom
	Shells []Shell

	aoLoc       []int
	aoLocSpinor []int
	tao         []int
}

// NewBasis validates the atom and shell tables and builds the AO
// offset tables by prefix-summing shell sizes.
func NewBasis(atoms []Atom, shells []Shell) (*Basis, error) {
	if len(shells) == 0 {
		return nil, &InvalidBasisError{Shell: -1, Reason: "no shells"}
	}
	for s, sh := range shells {
		switch {
		case sh.Atom < 0 || sh.Atom >= len(atoms):
			return nil, &InvalidBasisError{Shell: s, Reason: fmt.Sprintf("atom index %d out of range", sh.Atom)}
		case sh.L < 0:
			return nil, &InvalidBasisError{Shell: s, Reason: fmt.Sprintf("negative angular momentum %d", sh.L)}
		case sh.NCtr <= 0:
			return nil, &InvalidBasisError{Shell: s, Reason: fmt.Sprintf("non-positive contraction count %d", sh.NCtr)}
		case sh.NPrim <= 0:
			return nil, &InvalidBasisError{Shell: s, Reason: fmt.Sprintf("non-positive primitive count %d", sh.NPrim)}
		case len(sh.Exps) != sh.NPrim:
			return nil, &InvalidBasisError{Shell: s, Reason: fmt.Sprintf("%d exponents for %d primitives", len(sh.Exps), sh.NPrim)}
		case len(sh.Coeffs) != sh.NPrim*sh.NCtr:
			return nil, &InvalidBasisError{Shell: s, Reason: fmt.Sprintf("%d coefficients, want %d", len(sh.Coeffs), sh.NPrim*sh.NCtr)}
		}
	}

	b := &Basis{Atoms: atoms, Shells: shells}
	b.aoLoc = make([]int, len(shells)+1)
	b.aoLocSpinor = make([]int, len(shells)+1)
	for s, sh := range shells {
		b.aoLoc[s+1] = b.aoLoc[s] + (2*sh.L+1)*sh.NCtr
		b.aoLocSpinor[s+1] = b.aoLocSpinor[s] + spinorDim(sh)*sh.NCtr
	}
	b.buildTimeRevMap()
	return b, nil
}

func spinorDim(sh Shell) int {
	switch {
	case sh.Kappa < 0:
		return 2*sh.L + 2
	case sh.Kappa > 0:
		return 2 * sh.L
	default:
		return 4*sh.L + 2
	}
}

func (b *Basis) NShells() int { return len(b.Shells) }

// NAO is the total spherical AO count.
func (b *Basis) NAO() int { return b.aoLoc[len(b.aoLoc)-1] }

// AOLoc maps shell index to starting spherical AO index; size
// NShells()+1, last entry NAO().
func (b *Basis) AOLoc() []int { return b.aoLoc }

// ShellDim is the number of spherical AOs in shell s.
func (b *Basis) ShellDim(s int) int { return b.aoLoc[s+1] - b.aoLoc[s] }

func (b *Basis) NAOSpinor() int { return b.aoLocSpinor[len(b.aoLocSpinor)-1] }

func (b *Basis) AOLocSpinor() []int { return b.aoLocSpinor }

func (b *Basis) ShellDimSpinor(s int) int { return b.aoLocSpinor[s+1] - b.aoLocSpinor[s] }

// TimeRevMap returns the time-reversal pairing table for the spinor AO
// basis: entry p holds the 1-indexed partner of AO p, negated when the
// pairing carries a minus sign. Applying the map twice returns the
// original AO with an overall sign of -1 (T^2 = -1).
func (b *Basis) TimeRevMap() []int { return b.tao }

// Spinor functions come in blocks of degeneracy 2j+1 ordered by m; time
// reversal pairs m with -m inside the block, sign (-1)^(j-m). For a
// kappa==0 shell the j=l-1/2 block precedes the j=l+1/2 block within
// each contraction.
func (b *Basis) buildTimeRevMap() {
	b.tao = make([]int, b.NAOSpinor())
	p := 0
	for _, sh := range b.Shells {
		var blocks []int
		switch {
		case sh.Kappa < 0:
			blocks = []int{2*sh.L + 2}
		case sh.Kappa > 0:
			blocks = []int{2 * sh.L}
		default:
			if sh.L == 0 {
				blocks = []int{2}
			} else {
				blocks = []int{2 * sh.L, 2*sh.L + 2}
			}
		}
		for c := 0; c < sh.NCtr; c++ {
			for _, d := range blocks {
				for i := 0; i < d; i++ {
					partner := p + (d - 1 - i) + 1
					if (d-1-i)%2 != 0 {
						partner = -partner
					}
					b.tao[p+i] = partner
				}
				p += d
			}
		}
	}
}
