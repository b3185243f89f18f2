// jkop.go --  This file is part of govhf project.
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

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// SymMode selects which index permutations of the integral tensor the
// driver exploits. Only canonical shell quadruplets are evaluated; the
// contraction kernel scatters each block into all of its images.
type SymMode int

const (
	S1   SymMode = iota // no symmetry
	S2ij                // (ij| = (ji|
	S2kl                // |kl) = |lk)
	S4                  // both pair symmetries
	S8                  // S4 plus bra-ket exchange
)

var symNames = map[SymMode]string{
	S1: "s1", S2ij: "s2ij", S2kl: "s2kl", S4: "s4", S8: "s8",
}

func (m SymMode) String() string {
	if s, ok := symNames[m]; ok {
		return s
	}
	return fmt.Sprintf("SymMode(%d)", int(m))
}

// ParseSymMode maps the conventional mode names to SymMode values.
func ParseSymMode(s string) (SymMode, error) {
	for m, name := range symNames {
		if name == s {
			return m, nil
		}
	}
	return S1, fmt.Errorf("vhf: unknown symmetry mode %q", s)
}

func (m SymMode) hasBra() bool { return m == S2ij || m == S4 || m == S8 }
func (m SymMode) hasKet() bool { return m == S2kl || m == S4 || m == S8 }

// Canonical reports whether a shell quadruplet is the representative
// of its permutation orbit under the mode.
func (m SymMode) Canonical(i, j, k, l int) bool {
	if m.hasBra() && i < j {
		return false
	}
	if m.hasKet() && k < l {
		return false
	}
	if m == S8 && i*(i+1)/2+j < k*(k+1)/2+l {
		return false
	}
	return true
}

// images lists the tensor-axis permutations generated by the mode.
// Entry p means output roles (x,y,z,w) read block axes (p0,p1,p2,p3).
func (m SymMode) images() [][4]int {
	base := [][4]int{{0, 1, 2, 3}}
	if m.hasBra() {
		var out [][4]int
		for _, p := range base {
			out = append(out, p, [4]int{p[1], p[0], p[2], p[3]})
		}
		base = out
	}
	if m.hasKet() {
		var out [][4]int
		for _, p := range base {
			out = append(out, p, [4]int{p[0], p[1], p[3], p[2]})
		}
		base = out
	}
	if m == S8 {
		var out [][4]int
		for _, p := range base {
			out = append(out, p, [4]int{p[2], p[3], p[0], p[1]})
		}
		base = out
	}
	return base
}

// JKKind tags which two-electron matrix a kernel accumulates.
type JKKind int

const (
	CoulombJ  JKKind = iota // vj[i,j] = sum_kl (ij|kl) dm[l,k]
	ExchangeK               // vk[i,l] = sum_jk (ij|kl) dm[j,k]
)

func (k JKKind) String() string {
	switch k {
	case CoulombJ:
		return "j"
	case ExchangeK:
		return "k"
	}
	return fmt.Sprintf("JKKind(%d)", int(k))
}

// JKOperator pairs a contraction kind with a symmetry mode. Resolve
// turns the pair into a concrete block contractor; unknown tags fail
// at resolution, not mid-sweep.
type JKOperator struct {
	Kind JKKind
	Sym  SymMode
}

// ContractFunc scatters one integral block into the output matrix.
// eri holds the di*dj*dk*dl block for shls in row-major axis order.
type ContractFunc func(eri []float64, shls [4]int, dm, out []float64)

// Resolve validates the operator and binds it to a basis. The returned
// function keeps internal scratch and is not safe for concurrent use;
// each worker resolves its own copy.
func (op JKOperator) Resolve(b *Basis) (ContractFunc, error) {
	if op.Kind != CoulombJ && op.Kind != ExchangeK {
		return nil, fmt.Errorf("vhf: unknown contraction kind %v", op.Kind)
	}
	if _, ok := symNames[op.Sym]; !ok {
		return nil, fmt.Errorf("vhf: unknown symmetry mode %v", op.Sym)
	}
	perms := op.Sym.images()
	nao := b.NAO()
	loc := b.AOLoc()
	dmax := 0
	for i := 0; i < b.NShells(); i++ {
		if d := b.ShellDim(i); d > dmax {
			dmax = d
		}
	}
	// holds one gathered density block and one gemv result
	scratch := make([]float64, 2*dmax*dmax)

	return func(eri []float64, shls [4]int, dm, out []float64) {
		if !op.Sym.Canonical(shls[0], shls[1], shls[2], shls[3]) {
			panic(fmt.Sprintf("vhf: non-canonical quadruplet %v for %v", shls, op.Sym))
		}
		var dim, off [4]int
		for a, s := range shls {
			dim[a] = b.ShellDim(s)
			off[a] = loc[s]
		}
		str := [4]int{dim[1] * dim[2] * dim[3], dim[2] * dim[3], dim[3], 1}

		f := 1.0
		if op.Sym.hasBra() && shls[0] == shls[1] {
			f *= 0.5
		}
		if op.Sym.hasKet() && shls[2] == shls[3] {
			f *= 0.5
		}
		if op.Sym == S8 && shls[0] == shls[2] && shls[1] == shls[3] {
			f *= 0.5
		}

		for _, p := range perms {
			dx, dy, dz, dw := dim[p[0]], dim[p[1]], dim[p[2]], dim[p[3]]
			ox, oy, oz, ow := off[p[0]], off[p[1]], off[p[2]], off[p[3]]
			sx, sy, sz, sw := str[p[0]], str[p[1]], str[p[2]], str[p[3]]

			if op.Kind == CoulombJ {
				// vj[x,y] += f * e[xyzw] dm[w,z]
				if p == [4]int{0, 1, 2, 3} {
					// identity image is contiguous: one gemv
					xv := scratch[:dz*dw]
					for z := 0; z < dz; z++ {
						for w := 0; w < dw; w++ {
							xv[z*dw+w] = dm[(ow+w)*nao+oz+z]
						}
					}
					yv := scratch[dz*dw : dz*dw+dx*dy]
					blas64.Gemv(blas.NoTrans, f,
						blas64.General{Rows: dx * dy, Cols: dz * dw, Stride: dz * dw, Data: eri},
						blas64.Vector{N: dz * dw, Inc: 1, Data: xv},
						0, blas64.Vector{N: dx * dy, Inc: 1, Data: yv})
					for x := 0; x < dx; x++ {
						orow := out[(ox+x)*nao+oy:]
						yrow := yv[x*dy:]
						for y := 0; y < dy; y++ {
							orow[y] += yrow[y]
						}
					}
					continue
				}
				for x := 0; x < dx; x++ {
					for y := 0; y < dy; y++ {
						acc := 0.0
						for z := 0; z < dz; z++ {
							for w := 0; w < dw; w++ {
								acc += eri[x*sx+y*sy+z*sz+w*sw] * dm[(ow+w)*nao+oz+z]
							}
						}
						out[(ox+x)*nao+oy+y] += f * acc
					}
				}
				continue
			}

			// vk[x,w] += f * e[xyzw] dm[y,z]
			for x := 0; x < dx; x++ {
				for w := 0; w < dw; w++ {
					acc := 0.0
					for y := 0; y < dy; y++ {
						for z := 0; z < dz; z++ {
							acc += eri[x*sx+y*sy+z*sz+w*sw] * dm[(oy+y)*nao+oz+z]
						}
					}
					out[(ox+x)*nao+ow+w] += f * acc
				}
			}
		}
	}, nil
}
