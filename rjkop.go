// rjkop.go --  This file is part of govhf project.
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
	"gonum.org/v1/gonum/blas/cblas128"
)

// SpinorSymmetry tags the hermiticity pattern of the two vertex
// factors of a spinor integral: whether the bra pair and the ket pair
// transform as Hermitian (+) or anti-Hermitian (-) operators under
// time reversal. The tag decides every phase in the fold and
// back-distribution steps, so an unknown tag is rejected at
// resolution instead of silently producing wrong signs.
type SpinorSymmetry int

const (
	SymRS  SpinorSymmetry = iota // bra +, ket +
	SymRHA                       // bra +, ket -
	SymRAH                       // bra -, ket +
	SymRAA                       // bra -, ket -
)

func (s SpinorSymmetry) String() string {
	switch s {
	case SymRS:
		return "rs"
	case SymRHA:
		return "rha"
	case SymRAH:
		return "rah"
	case SymRAA:
		return "raa"
	}
	return fmt.Sprintf("SpinorSymmetry(%d)", int(s))
}

func (s SpinorSymmetry) hermi() (h1, h2 float64, ok bool) {
	switch s {
	case SymRS:
		return 1, 1, true
	case SymRHA:
		return 1, -1, true
	case SymRAH:
		return -1, 1, true
	case SymRAA:
		return -1, -1, true
	}
	return 0, 0, false
}

// RJKOperator is the relativistic analogue of JKOperator. The
// permutation modes stop at S4: bra-ket exchange does not survive the
// complex spinor integrals, so S8 is not a valid tag here.
type RJKOperator struct {
	Kind    JKKind
	Sym     SymMode
	Variant SpinorSymmetry
}

// RContractFunc scatters one spinor integral block into the output.
type RContractFunc func(eri []complex128, shls [4]int, dm, out []complex128)

// Resolve validates the operator and binds it to a basis. As with the
// real-case kernels the returned closure owns scratch buffers and must
// not be shared between goroutines.
func (op RJKOperator) Resolve(b *Basis) (RContractFunc, error) {
	h1, h2, ok := op.Variant.hermi()
	if !ok {
		return nil, fmt.Errorf("vhf: unknown spinor symmetry %v", op.Variant)
	}
	if op.Kind != CoulombJ && op.Kind != ExchangeK {
		return nil, fmt.Errorf("vhf: unknown contraction kind %v", op.Kind)
	}
	switch op.Sym {
	case S1, S2ij, S2kl, S4:
	case S8:
		return nil, fmt.Errorf("vhf: %v does not apply to spinor integrals", op.Sym)
	default:
		return nil, fmt.Errorf("vhf: unknown symmetry mode %v", op.Sym)
	}

	nao := b.NAOSpinor()
	loc := b.AOLocSpinor()
	tao := b.TimeRevMap()
	dmax := 0
	for i := 0; i < b.NShells(); i++ {
		if d := b.ShellDimSpinor(i); d > dmax {
			dmax = d
		}
	}
	d2 := dmax * dmax
	// reordered integral copies plus gather/result vectors
	perm := make([]complex128, d2*d2)
	gath := make([]complex128, d2)
	res := make([]complex128, d2)

	if op.Kind == CoulombJ {
		return func(eri []complex128, shls [4]int, dm, out []complex128) {
			if !op.Sym.Canonical(shls[0], shls[1], shls[2], shls[3]) {
				panic(fmt.Sprintf("vhf: non-canonical quadruplet %v for %v", shls, op.Sym))
			}
			i0, j0 := loc[shls[0]], loc[shls[1]]
			k0, l0 := loc[shls[2]], loc[shls[3]]
			di, dj := b.ShellDimSpinor(shls[0]), b.ShellDimSpinor(shls[1])
			dk, dl := b.ShellDimSpinor(shls[2]), b.ShellDimSpinor(shls[3])
			braF := op.Sym.hasBra() && shls[0] != shls[1]
			ketF := op.Sym.hasKet() && shls[2] != shls[3]

			hket := 0.0
			if ketF {
				hket = h2
			}
			timerevBlockT(gath[:dk*dl], dm, nao, tao, k0, l0, dk, dl, hket)
			y := res[:di*dj]
			cblas128.Gemv(blas.NoTrans, 1,
				cblas128.General{Rows: di * dj, Cols: dk * dl, Stride: dk * dl, Data: eri},
				cblas128.Vector{N: dk * dl, Inc: 1, Data: gath[:dk*dl]},
				0, cblas128.Vector{N: di * dj, Inc: 1, Data: y})
			for i := 0; i < di; i++ {
				orow := out[(i0+i)*nao+j0:]
				yrow := y[i*dj:]
				for j := 0; j < dj; j++ {
					orow[j] += yrow[j]
				}
			}
			if braF {
				adbakBlockT(out, y, nao, tao, i0, j0, di, dj, h1)
			}
		}, nil
	}

	return func(eri []complex128, shls [4]int, dm, out []complex128) {
		if !op.Sym.Canonical(shls[0], shls[1], shls[2], shls[3]) {
			panic(fmt.Sprintf("vhf: non-canonical quadruplet %v for %v", shls, op.Sym))
		}
		i0, j0 := loc[shls[0]], loc[shls[1]]
		k0, l0 := loc[shls[2]], loc[shls[3]]
		di, dj := b.ShellDimSpinor(shls[0]), b.ShellDimSpinor(shls[1])
		dk, dl := b.ShellDimSpinor(shls[2]), b.ShellDimSpinor(shls[3])
		braF := op.Sym.hasBra() && shls[0] != shls[1]
		ketF := op.Sym.hasKet() && shls[2] != shls[3]

		// p0312: rows (i,l), cols (j,k)
		f := perm[:di*dl*dj*dk]
		for i := 0; i < di; i++ {
			for j := 0; j < dj; j++ {
				for k := 0; k < dk; k++ {
					erow := eri[((i*dj+j)*dk+k)*dl:]
					for l := 0; l < dl; l++ {
						f[(i*dl+l)*(dj*dk)+j*dk+k] = erow[l]
					}
				}
			}
		}

		// direct term: vk[i,l] += sum_jk (ij|kl) dm[j,k]
		g := gath[:dj*dk]
		for j := 0; j < dj; j++ {
			drow := dm[(j0+j)*nao+k0:]
			for k := 0; k < dk; k++ {
				g[j*dk+k] = drow[k]
			}
		}
		y := res[:di*dl]
		cblas128.Gemv(blas.NoTrans, 1,
			cblas128.General{Rows: di * dl, Cols: dj * dk, Stride: dj * dk, Data: f},
			cblas128.Vector{N: dj * dk, Inc: 1, Data: g},
			0, cblas128.Vector{N: di * dl, Inc: 1, Data: y})
		for i := 0; i < di; i++ {
			orow := out[(i0+i)*nao+l0:]
			yrow := y[i*dl:]
			for l := 0; l < dl; l++ {
				orow[l] += yrow[l]
			}
		}

		if braF && ketF {
			// both pairs folded: vk[T(j),T(k)] picks up the block with
			// both density indices time-reversed, read through f^T
			fdd := gath[:di*dl]
			timerevBlock(fdd, dm, nao, tao, i0, l0, di, dl)
			w := res[:dj*dk]
			cblas128.Gemv(blas.Trans, 1,
				cblas128.General{Rows: di * dl, Cols: dj * dk, Stride: dj * dk, Data: f},
				cblas128.Vector{N: di * dl, Inc: 1, Data: fdd},
				0, cblas128.Vector{N: dj * dk, Inc: 1, Data: w})
			adbakBlock(out, w, nao, tao, j0, k0, dj, dk, h1*h2)
		}

		if braF || ketF {
			// p0213: rows (i,k), cols (j,l)
			g2 := perm[:di*dk*dj*dl]
			for i := 0; i < di; i++ {
				for j := 0; j < dj; j++ {
					for k := 0; k < dk; k++ {
						erow := eri[((i*dj+j)*dk+k)*dl:]
						for l := 0; l < dl; l++ {
							g2[(i*dk+k)*(dj*dl)+j*dl+l] = erow[l]
						}
					}
				}
			}
			if ketF {
				sdm := gath[:dj*dl]
				timerevCols(sdm, dm, nao, tao, j0, l0, dj, dl)
				y2 := res[:di*dk]
				cblas128.Gemv(blas.NoTrans, 1,
					cblas128.General{Rows: di * dk, Cols: dj * dl, Stride: dj * dl, Data: g2},
					cblas128.Vector{N: dj * dl, Inc: 1, Data: sdm},
					0, cblas128.Vector{N: di * dk, Inc: 1, Data: y2})
				adbakCols(out, y2, nao, tao, i0, k0, di, dk, h2)
			}
			if braF {
				fd := gath[:di*dk]
				timerevRows(fd, dm, nao, tao, i0, k0, di, dk)
				z := res[:dj*dl]
				cblas128.Gemv(blas.Trans, 1,
					cblas128.General{Rows: di * dk, Cols: dj * dl, Stride: dj * dl, Data: g2},
					cblas128.Vector{N: di * dk, Inc: 1, Data: fd},
					0, cblas128.Vector{N: dj * dl, Inc: 1, Data: z})
				adbakRows(out, z, nao, tao, j0, l0, dj, dl, h1)
			}
		}
	}, nil
}
