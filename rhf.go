// rhf.go --  This file is part of govhf project.
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
	"context"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RHF drives a closed-shell self-consistent field over the direct J/K
// engine. The Fock matrix is never assembled from stored integrals:
// every iteration re-runs the screened shell sweep against the current
// density.
type RHF struct {
	Basis    *Basis
	Occupied int

	S, H1, S2Inv []float64
	Vnn          float64

	C, Dens, G []float64

	// Workers is passed through to the sweep; zero means GOMAXPROCS.
	Workers int
	// Logger receives per-iteration convergence lines when non-nil.
	Logger *log.Logger

	eval  ERIEvaluator
	opt   *Optimizer
	fList []*mat.Dense
	diisR []*mat.Dense
}

// NewRHF prepares the one-electron matrices, the orthogonalizer, the
// screening tables and the core-Hamiltonian starting guess.
func NewRHF(b *Basis, nelec int) (*RHF, error) {
	if nelec <= 0 || nelec%2 != 0 {
		return nil, fmt.Errorf("vhf: closed-shell SCF needs a positive even electron count, got %d", nelec)
	}
	g := NewGaussEvaluator(b)
	s, err := g.Overlap()
	if err != nil {
		return nil, err
	}
	t, err := g.Kinetic()
	if err != nil {
		return nil, err
	}
	v, err := g.NucAttraction()
	if err != nil {
		return nil, err
	}
	nao := b.NAO()
	h1 := make([]float64, nao*nao)
	for i := range h1 {
		h1[i] = t[i] + v[i]
	}
	s2inv, err := MatrixSqrtInverse(s, nao)
	if err != nil {
		return nil, err
	}
	opt, err := BuildOptimizer(b, g)
	if err != nil {
		return nil, err
	}
	r := &RHF{
		Basis:    b,
		Occupied: nelec / 2,
		S:        s,
		H1:       h1,
		S2Inv:    s2inv,
		Vnn:      NucRepulsion(b),
		eval:     g,
		opt:      opt,
	}
	if err := r.updateMOs(mat.NewDense(nao, nao, append([]float64(nil), h1...))); err != nil {
		return nil, err
	}
	r.buildDens()
	return r, nil
}

// updateMOs diagonalizes F in the orthogonal basis and stores C.
func (r *RHF) updateMOs(f *mat.Dense) error {
	nao := r.Basis.NAO()
	a := mat.NewDense(nao, nao, r.S2Inv)
	var fp mat.Dense
	fp.Mul(a, f)
	fp.Mul(&fp, a)
	fsym := mat.NewSymDense(nao, fp.RawMatrix().Data)
	var eigsym mat.EigenSym
	if ok := eigsym.Factorize(fsym, true); !ok {
		return fmt.Errorf("vhf: Fock eigendecomposition failed")
	}
	var ev mat.Dense
	eigsym.VectorsTo(&ev)
	ev.Mul(a, &ev)
	if r.C == nil {
		r.C = make([]float64, nao*nao)
	}
	copy(r.C, ev.RawMatrix().Data)
	return nil
}

func (r *RHF) buildDens() {
	nao := r.Basis.NAO()
	if r.Dens == nil {
		r.Dens = make([]float64, nao*nao)
	}
	for i := 0; i < nao; i++ {
		for j := 0; j < nao; j++ {
			d := 0.0
			for o := 0; o < r.Occupied; o++ {
				d += r.C[i*nao+o] * r.C[j*nao+o]
			}
			r.Dens[i*nao+j] = d
		}
	}
}

// BuildG runs the direct sweep and assembles G = 2J - K for the
// current density.
func (r *RHF) BuildG(ctx context.Context) error {
	ops := []JKOperator{
		{Kind: CoulombJ, Sym: S8},
		{Kind: ExchangeK, Sym: S8},
	}
	outs, err := NRDirectJK(ctx, r.Basis, r.eval, ops,
		[][]float64{r.Dens, r.Dens},
		&Options{Workers: r.Workers, Opt: r.opt})
	if err != nil {
		return err
	}
	nao := r.Basis.NAO()
	if r.G == nil {
		r.G = make([]float64, nao*nao)
	}
	for i := range r.G {
		r.G[i] = 2*outs[0][i] - outs[1][i]
	}
	return nil
}

// Energy is the total RHF energy for the current density and G.
func (r *RHF) Energy() float64 {
	res := 0.0
	for i, d := range r.Dens {
		res += d * (2*r.H1[i] + r.G[i])
	}
	return res + r.Vnn
}

func (r *RHF) buildDIISResidual(f, a *mat.Dense) {
	nao := r.Basis.NAO()
	s := mat.NewDense(nao, nao, r.S)
	dm := mat.NewDense(nao, nao, r.Dens)
	term1 := mat.NewDense(nao, nao, nil)
	term2 := mat.NewDense(nao, nao, nil)
	term1.Mul(f, dm)
	term1.Mul(term1, s)
	term2.Mul(s, dm)
	term2.Mul(term2, f)
	term1.Sub(term1, term2)
	term1.Mul(a, term1)
	term1.Mul(term1, a)
	r.diisR = append(r.diisR, term1)
}

func (r *RHF) dRMS() float64 {
	res := mat.DenseCopyOf(r.diisR[len(r.diisR)-1])
	res.MulElem(res, res)
	return math.Sqrt(stat.Mean(res.RawMatrix().Data, nil))
}

func (r *RHF) buildB() *mat.Dense {
	bdim := len(r.fList) + 1
	result := mat.NewDense(bdim, bdim, nil)
	for i := 0; i < bdim-1; i++ {
		result.Set(i, bdim-1, -1)
		result.Set(bdim-1, i, -1)
	}
	nao := r.Basis.NAO()
	for i := range r.fList {
		for j := range r.fList {
			b := mat.NewDense(nao, nao, nil)
			b.MulElem(r.diisR[i], r.diisR[j])
			result.Set(i, j, mat.Sum(b))
		}
	}
	return result
}

func (r *RHF) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

// SCF iterates Fock builds with DIIS extrapolation until the energy
// and the DIIS residual both settle, returning the total energy.
func (r *RHF) SCF(ctx context.Context) (float64, error) {
	const (
		tolE     = 1e-6
		tolD     = 1e-3
		maxSteps = 50
	)
	nao := r.Basis.NAO()
	h1 := mat.NewDense(nao, nao, r.H1)
	a := mat.NewDense(nao, nao, r.S2Inv)
	res := 0.0

	for i := 0; i < maxSteps; i++ {
		ePrev := res
		if err := r.BuildG(ctx); err != nil {
			return 0, err
		}
		res = r.Energy()

		f := mat.NewDense(nao, nao, append([]float64(nil), r.G...))
		f.Add(f, h1)
		r.fList = append(r.fList, mat.DenseCopyOf(f))
		r.buildDIISResidual(f, a)
		drms := r.dRMS()

		r.logf("iteration %d: E = %.10f, dE = %.3e, dRMS = %.3e", i+1, res, ePrev-res, drms)
		if math.Abs(ePrev-res) < tolE && drms < tolD {
			r.logf("SCF converged after step %d", i+1)
			return res, nil
		}

		if i > 0 {
			bmat := r.buildB()
			rhs := mat.NewVecDense(len(r.fList)+1, nil)
			rhs.SetVec(len(r.fList), -1)
			var lu mat.LU
			lu.Factorize(bmat)
			var coefs mat.VecDense
			if err := lu.SolveVecTo(&coefs, false, rhs); err == nil {
				f = mat.NewDense(nao, nao, nil)
				for j := range r.fList {
					var part mat.Dense
					part.Scale(coefs.AtVec(j), r.fList[j])
					f.Add(f, &part)
				}
			}
		}

		if err := r.updateMOs(f); err != nil {
			return 0, err
		}
		r.buildDens()
	}
	return res, fmt.Errorf("vhf: SCF not converged after %d steps, last E = %.10f", maxSteps, res)
}
