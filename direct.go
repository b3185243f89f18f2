// direct.go --  This file is part of govhf project.
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
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Options tunes a direct J/K sweep.
type Options struct {
	// Workers is the goroutine count; non-positive means GOMAXPROCS.
	Workers int
	// NComp is the number of integral components per quadruplet; zero
	// means one. Each output carries NComp stacked nao x nao matrices,
	// component index slowest.
	NComp int
	// ShellSlice restricts the first shell index to [Start, Stop). The
	// zero value covers every shell.
	ShellSlice [2]int
	// Opt enables Schwarz screening when non-nil. The driver refreshes
	// its density table from the incoming matrices before the sweep.
	Opt *Optimizer
}

func (o *Options) workers() int {
	if o != nil && o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o *Options) ncomp() int {
	if o != nil && o.NComp > 0 {
		return o.NComp
	}
	return 1
}

func (o *Options) shellRange(nshl int) (int, int) {
	if o == nil || o.ShellSlice == [2]int{} {
		return 0, nshl
	}
	start, stop := o.ShellSlice[0], o.ShellSlice[1]
	if start < 0 {
		start = 0
	}
	if stop > nshl {
		stop = nshl
	}
	return start, stop
}

// NRDirectJK runs the screened shell-quadruplet sweep for the real
// spherical basis. Each operator is contracted with the density matrix
// of the same index and yields one nao x nao output. All operators
// must share a symmetry mode; the sweep enumerates only canonical
// quadruplets and the kernels scatter the permutation images.
//
// Shells are dealt to workers round-robin on the first index and the
// partial results are reduced in ascending worker order, so the output
// is bitwise reproducible for a fixed worker count.
func NRDirectJK(ctx context.Context, b *Basis, eval ERIEvaluator, ops []JKOperator, dms [][]float64, opts *Options) ([][]float64, error) {
	if len(ops) == 0 || len(ops) != len(dms) {
		return nil, fmt.Errorf("vhf: got %d operators for %d density matrices", len(ops), len(dms))
	}
	sym := ops[0].Sym
	for _, op := range ops[1:] {
		if op.Sym != sym {
			return nil, fmt.Errorf("vhf: mixed symmetry modes %v and %v in one sweep", sym, op.Sym)
		}
	}
	nao := b.NAO()
	for i, dm := range dms {
		if len(dm) != nao*nao {
			return nil, fmt.Errorf("vhf: density %d has %d elements, want %d", i, len(dm), nao*nao)
		}
	}
	nshl := b.NShells()
	ncomp := opts.ncomp()
	start, stop := opts.shellRange(nshl)
	if opts != nil && opts.Opt != nil {
		opts.Opt.SetDM(dms)
	}
	nw := opts.workers()
	if span := stop - start; nw > span {
		nw = span
	}
	if nw < 1 {
		nw = 1
	}

	dmax := 0
	for i := 0; i < nshl; i++ {
		if d := b.ShellDim(i); d > dmax {
			dmax = d
		}
	}

	partials := make([][][]float64, nw)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < nw; w++ {
		w := w
		g.Go(func() error {
			outs := make([][]float64, len(ops))
			fns := make([]ContractFunc, len(ops))
			for i, op := range ops {
				outs[i] = make([]float64, ncomp*nao*nao)
				fn, err := op.Resolve(b)
				if err != nil {
					return err
				}
				fns[i] = fn
			}
			buf := make([]float64, ncomp*dmax*dmax*dmax*dmax)
			for ish := start + w; ish < stop; ish += nw {
				if err := ctx.Err(); err != nil {
					return err
				}
				for jsh := 0; jsh < nshl; jsh++ {
					for ksh := 0; ksh < nshl; ksh++ {
						for lsh := 0; lsh < nshl; lsh++ {
							if !sym.Canonical(ish, jsh, ksh, lsh) {
								continue
							}
							if opts != nil && opts.Opt != nil &&
								!opts.Opt.Screen(ish, jsh, ksh, lsh) {
								continue
							}
							shls := [4]int{ish, jsh, ksh, lsh}
							nz, err := eval.Eval(buf, shls, ncomp)
							if err != nil {
								return &IntegralEvaluationError{Shells: shls, Err: err}
							}
							if !nz {
								continue
							}
							blk := b.ShellDim(ish) * b.ShellDim(jsh) *
								b.ShellDim(ksh) * b.ShellDim(lsh)
							for i, fn := range fns {
								for c := 0; c < ncomp; c++ {
									fn(buf[c*blk:(c+1)*blk], shls, dms[i],
										outs[i][c*nao*nao:(c+1)*nao*nao])
								}
							}
						}
					}
				}
			}
			partials[w] = outs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outs := make([][]float64, len(ops))
	for i := range ops {
		outs[i] = make([]float64, ncomp*nao*nao)
		for w := 0; w < nw; w++ {
			p := partials[w][i]
			for e := range outs[i] {
				outs[i][e] += p[e]
			}
		}
	}
	return outs, nil
}

// RDirectJK is the spinor-basis counterpart of NRDirectJK. The density
// and output matrices are complex over the spinor AO dimension and the
// kernels restore the time-reversal partner quadruplets that the
// canonical enumeration skips.
func RDirectJK(ctx context.Context, b *Basis, eval SpinorERIEvaluator, ops []RJKOperator, dms [][]complex128, opts *Options) ([][]complex128, error) {
	if len(ops) == 0 || len(ops) != len(dms) {
		return nil, fmt.Errorf("vhf: got %d operators for %d density matrices", len(ops), len(dms))
	}
	sym := ops[0].Sym
	for _, op := range ops[1:] {
		if op.Sym != sym {
			return nil, fmt.Errorf("vhf: mixed symmetry modes %v and %v in one sweep", sym, op.Sym)
		}
	}
	nao := b.NAOSpinor()
	for i, dm := range dms {
		if len(dm) != nao*nao {
			return nil, fmt.Errorf("vhf: density %d has %d elements, want %d", i, len(dm), nao*nao)
		}
	}
	nshl := b.NShells()
	ncomp := opts.ncomp()
	start, stop := opts.shellRange(nshl)
	if opts != nil && opts.Opt != nil {
		opts.Opt.SetSpinorDM(dms)
	}
	nw := opts.workers()
	if span := stop - start; nw > span {
		nw = span
	}
	if nw < 1 {
		nw = 1
	}

	dmax := 0
	for i := 0; i < nshl; i++ {
		if d := b.ShellDimSpinor(i); d > dmax {
			dmax = d
		}
	}

	partials := make([][][]complex128, nw)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < nw; w++ {
		w := w
		g.Go(func() error {
			outs := make([][]complex128, len(ops))
			fns := make([]RContractFunc, len(ops))
			for i, op := range ops {
				outs[i] = make([]complex128, ncomp*nao*nao)
				fn, err := op.Resolve(b)
				if err != nil {
					return err
				}
				fns[i] = fn
			}
			buf := make([]complex128, ncomp*dmax*dmax*dmax*dmax)
			for ish := start + w; ish < stop; ish += nw {
				if err := ctx.Err(); err != nil {
					return err
				}
				for jsh := 0; jsh < nshl; jsh++ {
					for ksh := 0; ksh < nshl; ksh++ {
						for lsh := 0; lsh < nshl; lsh++ {
							if !sym.Canonical(ish, jsh, ksh, lsh) {
								continue
							}
							if opts != nil && opts.Opt != nil &&
								!opts.Opt.Screen(ish, jsh, ksh, lsh) {
								continue
							}
							shls := [4]int{ish, jsh, ksh, lsh}
							nz, err := eval.Eval(buf, shls, ncomp)
							if err != nil {
								return &IntegralEvaluationError{Shells: shls, Err: err}
							}
							if !nz {
								continue
							}
							blk := b.ShellDimSpinor(ish) * b.ShellDimSpinor(jsh) *
								b.ShellDimSpinor(ksh) * b.ShellDimSpinor(lsh)
							for i, fn := range fns {
								for c := 0; c < ncomp; c++ {
									fn(buf[c*blk:(c+1)*blk], shls, dms[i],
										outs[i][c*nao*nao:(c+1)*nao*nao])
								}
							}
						}
					}
				}
			}
			partials[w] = outs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outs := make([][]complex128, len(ops))
	for i := range ops {
		outs[i] = make([]complex128, ncomp*nao*nao)
		for w := 0; w < nw; w++ {
			p := partials[w][i]
			for e := range outs[i] {
				outs[i][e] += p[e]
			}
		}
	}
	return outs, nil
}
