// intor.go --  This file is part of govhf project.
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
	"math"

	"gonum.org/v1/gonum/mathext"
)

// ERIEvaluator computes one electron-repulsion block per shell
// quadruplet. Eval fills buf with ncomp components, each a dense
// di*dj*dk*dl block in row-major order ((i*dj+j)*dk+k)*dl+l, component
// index slowest. It reports false when the block is identically zero
// by symmetry, in which case buf is zero-filled and the caller skips
// contraction. The direct drivers call Eval concurrently from their
// workers; implementations must be safe for concurrent use.
type ERIEvaluator interface {
	Eval(buf []float64, shls [4]int, ncomp int) (bool, error)
}

// SpinorERIEvaluator is the relativistic (4-component) counterpart of
// ERIEvaluator over the spinor AO basis.
type SpinorERIEvaluator interface {
	Eval(buf []complex128, shls [4]int, ncomp int) (bool, error)
}

// IntegralEvaluationError wraps an evaluator failure with the shell
// quadruplet that triggered it. It aborts the whole sweep: an invalid
// integral invalidates the accumulated result, so nothing is retried.
type IntegralEvaluationError struct {
	Shells [4]int
	Err    error
}

func (e *IntegralEvaluationError) Error() string {
	return fmt.Sprintf("vhf: integral evaluation failed for shells %v: %v", e.Shells, e.Err)
}

func (e *IntegralEvaluationError) Unwrap() error { return e.Err }

// boys is the Boys function F_n(x).
func boys(x float64, n int) float64 {
	nf := float64(n)
	if x == 0 {
		return 1.0 / (2.0*nf + 1)
	}
	return mathext.GammaIncReg(nf+0.5, x) * math.Gamma(nf+0.5) / (2.0 * math.Pow(x, nf+0.5))
}

func gtoNorm(alpha float64) float64 {
	return math.Pow(2*alpha/math.Pi, 0.75)
}

func dist2(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

func gaussProduct(a1, a2 float64, v1, v2 [3]float64) [3]float64 {
	p := a1 + a2
	return [3]float64{
		(a1*v1[0] + a2*v2[0]) / p,
		(a1*v1[1] + a2*v2[1]) / p,
		(a1*v1[2] + a2*v2[2]) / p,
	}
}

// GaussEvaluator is a native analytic evaluator for contracted s
// shells (L == 0, NCtr == 1). Shells of higher angular momentum are
// the business of an external integral library; asking for them here
// is an evaluation error.
type GaussEvaluator struct {
	b *Basis
}

func NewGaussEvaluator(b *Basis) *GaussEvaluator { return &GaussEvaluator{b: b} }

func (g *GaussEvaluator) shellCheck(s int) error {
	sh := &g.b.Shells[s]
	if sh.L != 0 {
		return fmt.Errorf("analytic evaluator supports s shells only, shell %d has l=%d", s, sh.L)
	}
	if sh.NCtr != 1 {
		return fmt.Errorf("analytic evaluator supports single contractions only, shell %d has nctr=%d", s, sh.NCtr)
	}
	return nil
}

func (g *GaussEvaluator) Eval(buf []float64, shls [4]int, ncomp int) (bool, error) {
	if ncomp != 1 {
		return false, fmt.Errorf("analytic evaluator supports ncomp=1, got %d", ncomp)
	}
	for _, s := range shls {
		if err := g.shellCheck(s); err != nil {
			return false, err
		}
	}
	si := &g.b.Shells[shls[0]]
	sj := &g.b.Shells[shls[1]]
	sk := &g.b.Shells[shls[2]]
	sl := &g.b.Shells[shls[3]]
	ri := g.b.Atoms[si.Atom].Coord
	rj := g.b.Atoms[sj.Atom].Coord
	rk := g.b.Atoms[sk.Atom].Coord
	rl := g.b.Atoms[sl.Atom].Coord

	v := 0.0
	for a := 0; a < si.NPrim; a++ {
		for b := 0; b < sj.NPrim; b++ {
			pij := si.Exps[a] + sj.Exps[b]
			eij := math.Exp(-si.Exps[a] * sj.Exps[b] / pij * dist2(ri, rj))
			cij := gtoNorm(si.Exps[a]) * gtoNorm(sj.Exps[b]) * si.Coeffs[a] * sj.Coeffs[b]
			pc := gaussProduct(si.Exps[a], sj.Exps[b], ri, rj)
			for c := 0; c < sk.NPrim; c++ {
				for d := 0; d < sl.NPrim; d++ {
					pkl := sk.Exps[c] + sl.Exps[d]
					ekl := math.Exp(-sk.Exps[c] * sl.Exps[d] / pkl * dist2(rk, rl))
					ckl := gtoNorm(sk.Exps[c]) * gtoNorm(sl.Exps[d]) * sk.Coeffs[c] * sl.Coeffs[d]
					qc := gaussProduct(sk.Exps[c], sl.Exps[d], rk, rl)

					pref := 2 * math.Pi * math.Pi / (pij * pkl) * math.Sqrt(math.Pi/(pij+pkl))
					x := dist2(pc, qc) * pij * pkl / (pij + pkl)
					v += cij * ckl * pref * eij * ekl * boys(x, 0)
				}
			}
		}
	}
	buf[0] = v
	return v != 0, nil
}

// ao1e runs a contracted primitive-pair sum for a one-electron
// operator over two s shells.
func (g *GaussEvaluator) ao1e(i, j int, term func(a, b float64, ri, rj [3]float64) float64) float64 {
	si := &g.b.Shells[i]
	sj := &g.b.Shells[j]
	ri := g.b.Atoms[si.Atom].Coord
	rj := g.b.Atoms[sj.Atom].Coord
	v := 0.0
	for a := 0; a < si.NPrim; a++ {
		for b := 0; b < sj.NPrim; b++ {
			c := gtoNorm(si.Exps[a]) * gtoNorm(sj.Exps[b]) * si.Coeffs[a] * sj.Coeffs[b]
			v += c * term(si.Exps[a], sj.Exps[b], ri, rj)
		}
	}
	return v
}

func (g *GaussEvaluator) mat1e(term func(a, b float64, ri, rj [3]float64) float64) ([]float64, error) {
	nao := g.b.NAO()
	out := make([]float64, nao*nao)
	loc := g.b.AOLoc()
	for i := range g.b.Shells {
		if err := g.shellCheck(i); err != nil {
			return nil, err
		}
		for j := 0; j <= i; j++ {
			v := g.ao1e(i, j, term)
			out[loc[i]*nao+loc[j]] = v
			out[loc[j]*nao+loc[i]] = v
		}
	}
	return out, nil
}

// Overlap builds the nao x nao overlap matrix.
func (g *GaussEvaluator) Overlap() ([]float64, error) {
	return g.mat1e(func(a, b float64, ri, rj [3]float64) float64 {
		p := a + b
		return math.Exp(-a*b/p*dist2(ri, rj)) * math.Pow(math.Pi/p, 1.5)
	})
}

// Kinetic builds the kinetic-energy matrix.
func (g *GaussEvaluator) Kinetic() ([]float64, error) {
	return g.mat1e(func(a, b float64, ri, rj [3]float64) float64 {
		p := a + b
		s := math.Exp(-a*b/p*dist2(ri, rj)) * math.Pow(math.Pi/p, 1.5)
		pg2 := dist2(gaussProduct(a, b, ri, rj), rj)
		return 3*b*s - 2*b*b*s*(pg2+1.5/p)
	})
}

// NucAttraction builds the electron-nucleus attraction matrix over all
// atoms of the basis.
func (g *GaussEvaluator) NucAttraction() ([]float64, error) {
	return g.mat1e(func(a, b float64, ri, rj [3]float64) float64 {
		p := a + b
		pc := gaussProduct(a, b, ri, rj)
		v := 0.0
		for _, at := range g.b.Atoms {
			v += -float64(at.Z) * math.Exp(-a*b/p*dist2(ri, rj)) *
				(2 * math.Pi / p) * boys(p*dist2(pc, at.Coord), 0)
		}
		return v
	})
}

// NucRepulsion is the classical nucleus-nucleus repulsion energy.
func NucRepulsion(b *Basis) float64 {
	v := 0.0
	for i := range b.Atoms {
		for j := 0; j < i; j++ {
			r := math.Sqrt(dist2(b.Atoms[i].Coord, b.Atoms[j].Coord))
			v += float64(b.Atoms[i].Z) * float64(b.Atoms[j].Z) / r
		}
	}
	return v
}
