// doc.go --  This file is part of govhf project.
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

// Package vhf builds Coulomb and exchange matrices directly from
// electron-repulsion integrals, without storing the integral tensor.
//
// A Basis describes the shell structure and AO numbering. An
// ERIEvaluator (or SpinorERIEvaluator for the relativistic spinor
// basis) supplies integral blocks per shell quadruplet. NRDirectJK and
// RDirectJK sweep the canonical quadruplets in parallel, screen them
// against Schwarz bounds from an Optimizer, and contract each
// surviving block with the density matrices through JKOperator or
// RJKOperator kernels. The relativistic path restores the skipped
// permutation partners through the time-reversal map instead of
// evaluating them.
package vhf
