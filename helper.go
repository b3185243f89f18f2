// helper.go --  This file is part of govhf project.
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

	"gonum.org/v1/gonum/mat"
)

// MatrixSqrtInverse returns S^(-1/2) for a symmetric positive matrix
// given in flat row-major form.
func MatrixSqrtInverse(s []float64, n int) ([]float64, error) {
	smat := mat.NewSymDense(n, s)
	var eigsym mat.EigenSym
	if ok := eigsym.Factorize(smat, true); !ok {
		return nil, fmt.Errorf("vhf: eigendecomposition failed")
	}
	vals := eigsym.Values(nil)
	inv := make([]float64, n)
	for i, v := range vals {
		if v <= 0 {
			return nil, fmt.Errorf("vhf: matrix not positive definite, eigenvalue %g", v)
		}
		inv[i] = 1 / math.Sqrt(v)
	}
	var ev mat.Dense
	eigsym.VectorsTo(&ev)
	var res mat.Dense
	res.Mul(&ev, mat.NewDiagDense(n, inv))
	res.Mul(&res, ev.T())

	out := make([]float64, n*n)
	copy(out, res.RawMatrix().Data)
	return out, nil
}

// FormatMat renders a flat row-major matrix the way the rest of the
// tooling prints matrices.
func FormatMat(m []float64, n int) string {
	d := mat.NewDense(n, n, m)
	fa := mat.Formatted(d, mat.Prefix("    "), mat.Squeeze())
	return fmt.Sprintf("    %.8f", fa)
}
