// optimizer.go --  This file is part of govhf project.
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

import "math"

// DefaultScreenThreshold is the direct-SCF cutoff applied to the
// Schwarz bound q(i,j)*q(k,l)*max|dm|.
const DefaultScreenThreshold = 1e-13

// Optimizer caches shell-pair Schwarz bounds and density extrema for
// integral prescreening. The q table depends only on the basis and is
// built once; the dm table is refreshed each time the density changes.
type Optimizer struct {
	b         *Basis
	Threshold float64
	qCond     []float64 // nshl x nshl, sqrt(max |(ij|ij)|)
	dmCond    []float64 // nshl x nshl, max |dm| over the shell block
}

// BuildOptimizer computes the Schwarz q table from the diagonal blocks
// (ij|ij). Evaluator failures surface as IntegralEvaluationError.
func BuildOptimizer(b *Basis, eval ERIEvaluator) (*Optimizer, error) {
	n := b.NShells()
	o := &Optimizer{
		b:         b,
		Threshold: DefaultScreenThreshold,
		qCond:     make([]float64, n*n),
		dmCond:    make([]float64, n*n),
	}
	dmax := 0
	for i := 0; i < n; i++ {
		if d := b.ShellDim(i); d > dmax {
			dmax = d
		}
	}
	buf := make([]float64, dmax*dmax*dmax*dmax)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			shls := [4]int{i, j, i, j}
			nz, err := eval.Eval(buf, shls, 1)
			if err != nil {
				return nil, &IntegralEvaluationError{Shells: shls, Err: err}
			}
			q := 0.0
			if nz {
				di := b.ShellDim(i)
				dj := b.ShellDim(j)
				for p := 0; p < di*dj*di*dj; p++ {
					if a := math.Abs(buf[p]); a > q {
						q = a
					}
				}
			}
			q = math.Sqrt(q)
			o.qCond[i*n+j] = q
			o.qCond[j*n+i] = q
		}
	}
	return o, nil
}

// BuildSpinorOptimizer computes the Schwarz q table from the diagonal
// spinor blocks (ij|ij), taking the modulus of the complex integrals.
// The result pairs with RDirectJK via Options.Opt.
func BuildSpinorOptimizer(b *Basis, eval SpinorERIEvaluator) (*Optimizer, error) {
	n := b.NShells()
	o := &Optimizer{
		b:         b,
		Threshold: DefaultScreenThreshold,
		qCond:     make([]float64, n*n),
		dmCond:    make([]float64, n*n),
	}
	dmax := 0
	for i := 0; i < n; i++ {
		if d := b.ShellDimSpinor(i); d > dmax {
			dmax = d
		}
	}
	buf := make([]complex128, dmax*dmax*dmax*dmax)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			shls := [4]int{i, j, i, j}
			nz, err := eval.Eval(buf, shls, 1)
			if err != nil {
				return nil, &IntegralEvaluationError{Shells: shls, Err: err}
			}
			q := 0.0
			if nz {
				di := b.ShellDimSpinor(i)
				dj := b.ShellDimSpinor(j)
				for p := 0; p < di*dj*di*dj; p++ {
					re := real(buf[p])
					im := imag(buf[p])
					if a := math.Sqrt(re*re + im*im); a > q {
						q = a
					}
				}
			}
			q = math.Sqrt(q)
			o.qCond[i*n+j] = q
			o.qCond[j*n+i] = q
		}
	}
	return o, nil
}

// SetDM refreshes the per-shell-pair density extrema from a set of
// real nao x nao density matrices.
func (o *Optimizer) SetDM(dms [][]float64) {
	n := o.b.NShells()
	nao := o.b.NAO()
	loc := o.b.AOLoc()
	for i := 0; i < n; i++ {
		di := o.b.ShellDim(i)
		for j := 0; j < n; j++ {
			dj := o.b.ShellDim(j)
			m := 0.0
			for _, dm := range dms {
				for p := 0; p < di; p++ {
					row := dm[(loc[i]+p)*nao+loc[j]:]
					for q := 0; q < dj; q++ {
						if a := math.Abs(row[q]); a > m {
							m = a
						}
					}
				}
			}
			o.dmCond[i*n+j] = m
		}
	}
}

// SetSpinorDM refreshes the density extrema from complex spinor
// density matrices, using the modulus.
func (o *Optimizer) SetSpinorDM(dms [][]complex128) {
	n := o.b.NShells()
	nao := o.b.NAOSpinor()
	loc := o.b.AOLocSpinor()
	for i := 0; i < n; i++ {
		di := o.b.ShellDimSpinor(i)
		for j := 0; j < n; j++ {
			dj := o.b.ShellDimSpinor(j)
			m := 0.0
			for _, dm := range dms {
				for p := 0; p < di; p++ {
					row := dm[(loc[i]+p)*nao+loc[j]:]
					for q := 0; q < dj; q++ {
						re := real(row[q])
						im := imag(row[q])
						if a := math.Sqrt(re*re + im*im); a > m {
							m = a
						}
					}
				}
			}
			o.dmCond[i*n+j] = m
		}
	}
}

// Estimate returns the pair bound q(i,j) = sqrt(max |(ij|ij)|). The
// product Estimate(i,j)*Estimate(k,l) bounds every |(ij|kl)| of the
// quadruplet by the Schwarz inequality.
func (o *Optimizer) Estimate(i, j int) float64 {
	return o.qCond[i*o.b.NShells()+j]
}

// Screen reports whether the quadruplet survives the density-weighted
// Schwarz test. The density factor is the largest extremum over the
// pairs that can be contracted against the block in a J or K build.
func (o *Optimizer) Screen(i, j, k, l int) bool {
	n := o.b.NShells()
	d := o.dmCond[j*n+i]
	for _, p := range [...]float64{
		o.dmCond[l*n+k],
		o.dmCond[j*n+k],
		o.dmCond[j*n+l],
		o.dmCond[i*n+k],
		o.dmCond[i*n+l],
	} {
		if p > d {
			d = p
		}
	}
	return o.qCond[i*n+j]*o.qCond[k*n+l]*d > o.Threshold
}
