// timerev.go --  This file is part of govhf project.
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

// taoIdx decodes one entry of the time-reversal map: the 0-based
// partner of spinor index p and the phase carried by the pairing.
func taoIdx(tao []int, p int) (int, float64) {
	t := tao[p]
	if t > 0 {
		return t - 1, 1
	}
	return -t - 1, -1
}

// timerevBlockT gathers the transposed ket-pair density for one shell
// block and, when h is nonzero, folds in its time-reversed image:
//
//	dst[k,l] = dm[l0+l, k0+k] + h*s(k)*s(l)*dm[T(k), T(l)]
//
// dst is dk x dl row-major.
func timerevBlockT(dst, dm []complex128, nao int, tao []int, k0, l0, dk, dl int, h float64) {
	for k := 0; k < dk; k++ {
		tk, sk := taoIdx(tao, k0+k)
		for l := 0; l < dl; l++ {
			v := dm[(l0+l)*nao+k0+k]
			if h != 0 {
				tl, sl := taoIdx(tao, l0+l)
				v += complex(h*sk*sl, 0) * dm[tk*nao+tl]
			}
			dst[k*dl+l] = v
		}
	}
}

// timerevCols gathers a block with time-reversed columns:
//
//	dst[j,l] = s(l)*dm[j0+j, T(l)]
func timerevCols(dst, dm []complex128, nao int, tao []int, j0, l0, dj, dl int) {
	for j := 0; j < dj; j++ {
		row := dm[(j0+j)*nao:]
		for l := 0; l < dl; l++ {
			tl, sl := taoIdx(tao, l0+l)
			dst[j*dl+l] = complex(sl, 0) * row[tl]
		}
	}
}

// timerevRows gathers a block with time-reversed rows. The phase is
// the one attached to the reversed index, s(T(i)) = -s(i):
//
//	dst[i,k] = s(T(i))*dm[T(i), k0+k]
func timerevRows(dst, dm []complex128, nao int, tao []int, i0, k0, di, dk int) {
	for i := 0; i < di; i++ {
		ti, si := taoIdx(tao, i0+i)
		row := dm[ti*nao:]
		for k := 0; k < dk; k++ {
			dst[i*dk+k] = complex(-si, 0) * row[k0+k]
		}
	}
}

// timerevBlock gathers a block with both indices time-reversed:
//
//	dst[i,l] = s(T(i))*s(T(l))*dm[T(i), T(l)]
func timerevBlock(dst, dm []complex128, nao int, tao []int, i0, l0, di, dl int) {
	for i := 0; i < di; i++ {
		ti, si := taoIdx(tao, i0+i)
		row := dm[ti*nao:]
		for l := 0; l < dl; l++ {
			tl, sl := taoIdx(tao, l0+l)
			dst[i*dl+l] = complex(si*sl, 0) * row[tl]
		}
	}
}

// adbakBlockT scatters a di x dj block back into the time-reversed
// transposed position:
//
//	out[T(j), T(i)] += h*s(i)*s(j)*src[i,j]
func adbakBlockT(out, src []complex128, nao int, tao []int, i0, j0, di, dj int, h float64) {
	for i := 0; i < di; i++ {
		ti, si := taoIdx(tao, i0+i)
		for j := 0; j < dj; j++ {
			tj, sj := taoIdx(tao, j0+j)
			out[tj*nao+ti] += complex(h*si*sj, 0) * src[i*dj+j]
		}
	}
}

// adbakCols scatters with time-reversed columns:
//
//	out[i, T(k)] += h*s(k)*src[i,k]
func adbakCols(out, src []complex128, nao int, tao []int, i0, k0, di, dk int, h float64) {
	for i := 0; i < di; i++ {
		orow := out[(i0+i)*nao:]
		for k := 0; k < dk; k++ {
			tk, sk := taoIdx(tao, k0+k)
			orow[tk] += complex(h*sk, 0) * src[i*dk+k]
		}
	}
}

// adbakRows scatters with time-reversed rows, phase s(T(j)):
//
//	out[T(j), l] += h*s(T(j))*src[j,l]
func adbakRows(out, src []complex128, nao int, tao []int, j0, l0, dj, dl int, h float64) {
	for j := 0; j < dj; j++ {
		tj, sj := taoIdx(tao, j0+j)
		orow := out[tj*nao:]
		for l := 0; l < dl; l++ {
			orow[l0+l] += complex(-h*sj, 0) * src[j*dl+l]
		}
	}
}

// adbakBlock scatters with both indices time-reversed:
//
//	out[T(j), T(k)] += h*s(T(j))*s(T(k))*src[j,k]
func adbakBlock(out, src []complex128, nao int, tao []int, j0, k0, dj, dk int, h float64) {
	for j := 0; j < dj; j++ {
		tj, sj := taoIdx(tao, j0+j)
		orow := out[tj*nao:]
		for k := 0; k < dk; k++ {
			tk, sk := taoIdx(tao, k0+k)
			orow[tk] += complex(h*sj*sk, 0) * src[j*dk+k]
		}
	}
}
