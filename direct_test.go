// direct_test.go --  This file is part of govhf project.
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
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func TestDirectJKSmoke(t *testing.T) {
	b := singleSBasis(t)
	dm := []float64{1}
	outs, err := NRDirectJK(context.Background(), b, NewGaussEvaluator(b),
		[]JKOperator{{Kind: CoulombJ, Sym: S8}}, [][]float64{dm}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := 2 / math.Sqrt(math.Pi)
	if math.Abs(outs[0][0]-want) > tol {
		t.Fatalf("J[0,0] = %.15f, want %.15f", outs[0][0], want)
	}
}

func TestDirectJKZeroDensityScreensAll(t *testing.T) {
	b := h2Basis(t, 1.4)
	opt, err := BuildOptimizer(b, NewGaussEvaluator(b))
	if err != nil {
		t.Fatal(err)
	}
	nao := b.NAO()
	te := &tensorEvaluator{b: b, e: make([]float64, nao*nao*nao*nao)}
	outs, err := NRDirectJK(context.Background(), b, te,
		[]JKOperator{{Kind: CoulombJ, Sym: S8}},
		[][]float64{make([]float64, nao*nao)},
		&Options{Opt: opt})
	if err != nil {
		t.Fatal(err)
	}
	if n := te.count.Load(); n != 0 {
		t.Errorf("evaluator invoked %d times for a zero density", n)
	}
	for i, v := range outs[0] {
		if v != 0 {
			t.Fatalf("output element %d = %g, want exact zero", i, v)
		}
	}
}

func TestDirectJKWorkerDeterminism(t *testing.T) {
	b := mixedBasis(t)
	nao := b.NAO()
	rng := rand.New(rand.NewSource(3))
	e := symTensor8(nao, rng)
	dm := make([]float64, nao*nao)
	for i := range dm {
		dm[i] = rng.NormFloat64()
	}
	ops := []JKOperator{
		{Kind: CoulombJ, Sym: S8},
		{Kind: ExchangeK, Sym: S8},
	}
	run := func(workers int) [][]float64 {
		outs, err := NRDirectJK(context.Background(), b, &tensorEvaluator{b: b, e: e},
			ops, [][]float64{dm, dm}, &Options{Workers: workers})
		if err != nil {
			t.Fatal(err)
		}
		return outs
	}

	one := run(1)
	three := run(3)
	threeAgain := run(3)
	for i := range ops {
		for e := range three[i] {
			if three[i][e] != threeAgain[i][e] {
				t.Fatalf("output %d element %d not bit-stable across runs", i, e)
			}
		}
		if d := maxDiff(one[i], three[i]); d > 1e-10 {
			t.Errorf("output %d: 1 vs 3 workers differ by %g", i, d)
		}
	}
}

type failingEvaluator struct {
	b    *Basis
	bad  [4]int
	errv error
}

func (fe *failingEvaluator) Eval(buf []float64, shls [4]int, ncomp int) (bool, error) {
	if shls == fe.bad {
		return false, fe.errv
	}
	for i := range buf {
		buf[i] = 0
	}
	return true, nil
}

func TestDirectJKErrorAbortsSweep(t *testing.T) {
	b := h2Basis(t, 1.4)
	cause := fmt.Errorf("contraction overflow")
	fe := &failingEvaluator{b: b, bad: [4]int{1, 0, 0, 0}, errv: cause}
	nao := b.NAO()
	outs, err := NRDirectJK(context.Background(), b, fe,
		[]JKOperator{{Kind: CoulombJ, Sym: S8}},
		[][]float64{make([]float64, nao*nao)}, &Options{Workers: 2})
	if outs != nil {
		t.Error("partial output returned after a failed sweep")
	}
	var ie *IntegralEvaluationError
	if !errors.As(err, &ie) {
		t.Fatalf("got %v, want IntegralEvaluationError", err)
	}
	if ie.Shells != fe.bad {
		t.Errorf("error reports shells %v, want %v", ie.Shells, fe.bad)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped cause lost")
	}
}

func TestDirectJKContextCancel(t *testing.T) {
	b := h2Basis(t, 1.4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	nao := b.NAO()
	_, err := NRDirectJK(ctx, b, NewGaussEvaluator(b),
		[]JKOperator{{Kind: CoulombJ, Sym: S8}},
		[][]float64{make([]float64, nao*nao)}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestDirectJKArgumentChecks(t *testing.T) {
	b := h2Basis(t, 1.4)
	g := NewGaussEvaluator(b)
	nao := b.NAO()
	dm := make([]float64, nao*nao)

	if _, err := NRDirectJK(context.Background(), b, g, nil, nil, nil); err == nil {
		t.Error("empty operator list accepted")
	}
	if _, err := NRDirectJK(context.Background(), b, g,
		[]JKOperator{{Kind: CoulombJ, Sym: S8}, {Kind: ExchangeK, Sym: S4}},
		[][]float64{dm, dm}, nil); err == nil {
		t.Error("mixed symmetry modes accepted")
	}
	if _, err := NRDirectJK(context.Background(), b, g,
		[]JKOperator{{Kind: CoulombJ, Sym: S8}},
		[][]float64{make([]float64, 3)}, nil); err == nil {
		t.Error("wrong density size accepted")
	}
}

// componentEvaluator labels each component with a constant offset so
// component routing is visible in the output.
type componentEvaluator struct {
	b *Basis
}

func (ce *componentEvaluator) Eval(buf []float64, shls [4]int, ncomp int) (bool, error) {
	di, dj := ce.b.ShellDim(shls[0]), ce.b.ShellDim(shls[1])
	dk, dl := ce.b.ShellDim(shls[2]), ce.b.ShellDim(shls[3])
	blk := di * dj * dk * dl
	for c := 0; c < ncomp; c++ {
		for p := 0; p < blk; p++ {
			buf[c*blk+p] = float64(c + 1)
		}
	}
	return true, nil
}

func TestDirectJKComponents(t *testing.T) {
	b := singleSBasis(t)
	dm := []float64{1}
	outs, err := NRDirectJK(context.Background(), b, &componentEvaluator{b: b},
		[]JKOperator{{Kind: CoulombJ, Sym: S1}}, [][]float64{dm},
		&Options{NComp: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(outs[0]) != 3 {
		t.Fatalf("output has %d elements, want 3 stacked 1x1 matrices", len(outs[0]))
	}
	for c := 0; c < 3; c++ {
		if want := float64(c + 1); outs[0][c] != want {
			t.Errorf("component %d = %g, want %g", c, outs[0][c], want)
		}
	}
}

func TestDirectJKShellSlice(t *testing.T) {
	b := mixedBasis(t)
	nao := b.NAO()
	rng := rand.New(rand.NewSource(5))
	e := symTensor8(nao, rng)
	dm := make([]float64, nao*nao)
	for i := range dm {
		dm[i] = rng.NormFloat64()
	}
	ops := []JKOperator{{Kind: CoulombJ, Sym: S1}}
	full, err := NRDirectJK(context.Background(), b, &tensorEvaluator{b: b, e: e},
		ops, [][]float64{dm}, nil)
	if err != nil {
		t.Fatal(err)
	}
	n := b.NShells()
	sum := make([]float64, nao*nao)
	for s := 0; s < n; s++ {
		part, err := NRDirectJK(context.Background(), b, &tensorEvaluator{b: b, e: e},
			ops, [][]float64{dm}, &Options{ShellSlice: [2]int{s, s + 1}})
		if err != nil {
			t.Fatal(err)
		}
		for i := range sum {
			sum[i] += part[0][i]
		}
	}
	if d := maxDiff(full[0], sum); d > 1e-10 {
		t.Errorf("shell slices do not partition the sweep, diff %g", d)
	}
}
