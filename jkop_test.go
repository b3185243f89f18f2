// jkop_test.go --  This file is part of govhf project.
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
	"math"
	"math/rand"
	"sync/atomic"
	"testing"
)

// tensorEvaluator serves blocks of a precomputed full nao^4 tensor.
// The call counter is atomic: the driver calls Eval from several
// worker goroutines.
type tensorEvaluator struct {
	b     *Basis
	e     []float64
	count atomic.Int64
}

func (te *tensorEvaluator) Eval(buf []float64, shls [4]int, ncomp int) (bool, error) {
	te.count.Add(1)
	nao := te.b.NAO()
	loc := te.b.AOLoc()
	di, dj := te.b.ShellDim(shls[0]), te.b.ShellDim(shls[1])
	dk, dl := te.b.ShellDim(shls[2]), te.b.ShellDim(shls[3])
	i0, j0, k0, l0 := loc[shls[0]], loc[shls[1]], loc[shls[2]], loc[shls[3]]
	p := 0
	for i := 0; i < di; i++ {
		for j := 0; j < dj; j++ {
			for k := 0; k < dk; k++ {
				for l := 0; l < dl; l++ {
					buf[p] = te.e[(((i0+i)*nao+j0+j)*nao+k0+k)*nao+l0+l]
					p++
				}
			}
		}
	}
	return true, nil
}

// mixedBasis has uneven shell sizes so block index arithmetic is
// actually exercised.
func mixedBasis(t *testing.T) *Basis {
	t.Helper()
	b, err := NewBasis(
		[]Atom{{Z: 6}},
		[]Shell{
			{Atom: 0, L: 0, NPrim: 1, NCtr: 1, Exps: []float64{1}, Coeffs: []float64{1}},
			{Atom: 0, L: 1, NPrim: 1, NCtr: 1, Exps: []float64{1}, Coeffs: []float64{1}},
			{Atom: 0, L: 0, NPrim: 1, NCtr: 2, Exps: []float64{1}, Coeffs: []float64{1, 1}},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// symTensor8 draws a random tensor and averages it over the 8-fold
// permutation group of a real ERI tensor.
func symTensor8(nao int, rng *rand.Rand) []float64 {
	r := make([]float64, nao*nao*nao*nao)
	for i := range r {
		r[i] = rng.NormFloat64()
	}
	at := func(i, j, k, l int) float64 {
		return r[((i*nao+j)*nao+k)*nao+l]
	}
	e := make([]float64, len(r))
	for i := 0; i < nao; i++ {
		for j := 0; j < nao; j++ {
			for k := 0; k < nao; k++ {
				for l := 0; l < nao; l++ {
					e[((i*nao+j)*nao+k)*nao+l] = (at(i, j, k, l) + at(j, i, k, l) +
						at(i, j, l, k) + at(j, i, l, k) +
						at(k, l, i, j) + at(l, k, i, j) +
						at(k, l, j, i) + at(l, k, j, i)) / 8
				}
			}
		}
	}
	return e
}

func refJK(e, dm []float64, nao int) (vj, vk []float64) {
	vj = make([]float64, nao*nao)
	vk = make([]float64, nao*nao)
	for i := 0; i < nao; i++ {
		for j := 0; j < nao; j++ {
			for k := 0; k < nao; k++ {
				for l := 0; l < nao; l++ {
					v := e[((i*nao+j)*nao+k)*nao+l]
					vj[i*nao+j] += v * dm[l*nao+k]
					vk[i*nao+l] += v * dm[j*nao+k]
				}
			}
		}
	}
	return vj, vk
}

func maxDiff(a, b []float64) float64 {
	m := 0.0
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > m {
			m = d
		}
	}
	return m
}

func TestSymmetryModesMatchS1(t *testing.T) {
	b := mixedBasis(t)
	nao := b.NAO()
	rng := rand.New(rand.NewSource(7))
	e := symTensor8(nao, rng)
	dm := make([]float64, nao*nao)
	for i := range dm {
		dm[i] = rng.NormFloat64()
	}
	wantJ, wantK := refJK(e, dm, nao)

	for _, sym := range []SymMode{S1, S2ij, S2kl, S4, S8} {
		ops := []JKOperator{
			{Kind: CoulombJ, Sym: sym},
			{Kind: ExchangeK, Sym: sym},
		}
		outs, err := NRDirectJK(context.Background(), b, &tensorEvaluator{b: b, e: e},
			ops, [][]float64{dm, dm}, &Options{Workers: 1})
		if err != nil {
			t.Fatalf("%v: %v", sym, err)
		}
		if d := maxDiff(outs[0], wantJ); d > 1e-10 {
			t.Errorf("%v: J deviates from s1 by %g", sym, d)
		}
		if d := maxDiff(outs[1], wantK); d > 1e-10 {
			t.Errorf("%v: K deviates from s1 by %g", sym, d)
		}
	}
}

func TestCanonicalPredicate(t *testing.T) {
	cases := []struct {
		sym  SymMode
		quad [4]int
		want bool
	}{
		{S1, [4]int{0, 1, 0, 1}, true},
		{S2ij, [4]int{0, 1, 0, 0}, false},
		{S2ij, [4]int{1, 0, 0, 1}, true},
		{S2kl, [4]int{0, 1, 0, 1}, false},
		{S4, [4]int{1, 0, 0, 1}, false},
		{S8, [4]int{1, 0, 1, 1}, false},
		{S8, [4]int{1, 1, 1, 0}, true},
		{S8, [4]int{1, 0, 1, 0}, true},
	}
	for _, tc := range cases {
		got := tc.sym.Canonical(tc.quad[0], tc.quad[1], tc.quad[2], tc.quad[3])
		if got != tc.want {
			t.Errorf("%v.Canonical(%v) = %v, want %v", tc.sym, tc.quad, got, tc.want)
		}
	}
}

func TestNonCanonicalDispatchPanics(t *testing.T) {
	b := mixedBasis(t)
	fn, err := JKOperator{Kind: CoulombJ, Sym: S2ij}.Resolve(b)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("out-of-order quadruplet did not panic")
		}
	}()
	eri := make([]float64, 3*3*3*3)
	dm := make([]float64, b.NAO()*b.NAO())
	out := make([]float64, b.NAO()*b.NAO())
	fn(eri, [4]int{0, 1, 0, 0}, dm, out)
}

func TestResolveRejectsBadTags(t *testing.T) {
	b := mixedBasis(t)
	if _, err := (JKOperator{Kind: JKKind(9), Sym: S1}).Resolve(b); err == nil {
		t.Error("bad kind accepted")
	}
	if _, err := (JKOperator{Kind: CoulombJ, Sym: SymMode(9)}).Resolve(b); err == nil {
		t.Error("bad mode accepted")
	}
	if _, err := ParseSymMode("s3"); err == nil {
		t.Error("bad mode name accepted")
	}
	if m, err := ParseSymMode("s2ij"); err != nil || m != S2ij {
		t.Errorf("ParseSymMode(s2ij) = %v, %v", m, err)
	}
}
