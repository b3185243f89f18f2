// main.go --  This file is part of govhf project.
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
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/qcgo/vhf"
)

var (
	WarningLogger *log.Logger
	InfoLogger    *log.Logger
	ErrorLogger   *log.Logger
	OutputLogger  *log.Logger
)

var aB = 0.52917720859

var elemSymb = []string{"X", "H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne"}

// built-in STO-3G s shells, exponents and contraction coefficients
var sto3g = map[string][][2]float64{
	"H": {
		{3.425250914, 0.1543289673},
		{0.6239137298, 0.5353281423},
		{0.1688554040, 0.4446345422},
	},
	"He": {
		{6.362421394, 0.1543289673},
		{1.158922999, 0.5353281423},
		{0.3136497915, 0.4446345422},
	},
}

func initLog(fname string) {
	file, err := os.OpenFile(fname, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}

	InfoLogger = log.New(file, "INFO: ", log.Ldate|log.Ltime)
	WarningLogger = log.New(file, "WARNING: ", log.Ldate|log.Ltime)
	ErrorLogger = log.New(file, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	OutputLogger = log.New(file, "", 0)
}

func printOutputDelimiter() {
	OutputLogger.Println(strings.Repeat("-", 70))
}

func readFileLines(fname string) ([]string, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var result []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	return result, scanner.Err()
}

func findBlockEnd(n int, data []string, bname string) int {
	for i := n; i < len(data); i++ {
		words := strings.Fields(data[i])
		if len(words) > 0 && strings.ToLower(words[0]) == "end" {
			return i
		}
	}
	ErrorLogger.Fatal("No end of block " + bname + ".")
	return 0
}

// processInput builds the basis from an input file with an Atoms block
// (element and Angstrom coordinates per line) and an optional nprocs
// line. Every atom gets the built-in STO-3G s shell.
func processInput(data []string) (*vhf.Basis, int, int) {
	var atoms []vhf.Atom
	var shells []vhf.Shell
	nelec := 0
	workers := 0
	found := false
	for i := 0; i < len(data); i++ {
		words := strings.Fields(data[i])
		if len(words) == 0 {
			continue
		}
		switch strings.ToLower(words[0]) {
		case "atoms":
			found = true
			end := findBlockEnd(i, data, "Atoms")
			OutputLogger.Print("Parsing input. Atoms block found at lines ", i, " -- ", end, ".")
			for _, line := range data[i+1 : end] {
				w := strings.Fields(line)
				z := slices.Index(elemSymb, w[0])
				if z < 0 {
					ErrorLogger.Fatal("Unknown element: ", w[0])
				}
				prims, ok := sto3g[w[0]]
				if !ok {
					ErrorLogger.Fatal("No built-in basis for element: ", w[0])
				}
				if len(w) < 4 {
					ErrorLogger.Fatal("Incorrect format of coordinates: ", line)
				}
				x, _ := strconv.ParseFloat(w[1], 64)
				y, _ := strconv.ParseFloat(w[2], 64)
				zc, _ := strconv.ParseFloat(w[3], 64)
				atoms = append(atoms, vhf.Atom{
					Z:     z,
					Coord: [3]float64{x / aB, y / aB, zc / aB},
				})
				sh := vhf.Shell{
					Atom: len(atoms) - 1, L: 0, Kappa: 0,
					NPrim: len(prims), NCtr: 1,
				}
				for _, p := range prims {
					sh.Exps = append(sh.Exps, p[0])
					sh.Coeffs = append(sh.Coeffs, p[1])
				}
				shells = append(shells, sh)
				nelec += z
			}
			i = end
		case "nprocs":
			workers, _ = strconv.Atoi(words[1])
			OutputLogger.Print("Parsing input. Number of threads set to " + words[1] + ".")
		}
	}
	if !found {
		ErrorLogger.Fatal("Parsing input. No Atoms found.")
	}
	b, err := vhf.NewBasis(atoms, shells)
	if err != nil {
		ErrorLogger.Fatal(err)
	}
	return b, nelec, workers
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	var inpFname, outFname string
	if len(os.Args) > 1 {
		inpFname = os.Args[1]
		splitInpFname := strings.Split(inpFname, ".")
		fExt := splitInpFname[len(splitInpFname)-1]
		outFname = inpFname[0:len(inpFname)-len(fExt)] + "out"
		fmt.Println("Output file: ", outFname)
	} else {
		log.Fatal("No input file.")
	}

	initLog(outFname)

	InfoLogger.Println("Starting govhf...")
	WarningLogger.Println("This is an experimental program on an early stage of development.")

	OutputLogger.Println("Input file content:")
	printOutputDelimiter()
	inpData, err := readFileLines(inpFname)
	if err != nil {
		ErrorLogger.Fatal("Cannot read input file: ", err)
	}
	for _, line := range inpData {
		OutputLogger.Println(line)
	}
	printOutputDelimiter()

	basis, nelec, workers := processInput(inpData)

	calc, err := vhf.NewRHF(basis, nelec)
	if err != nil {
		ErrorLogger.Fatal(err)
	}
	calc.Workers = workers
	calc.Logger = OutputLogger

	energy, err := calc.SCF(context.Background())
	if err != nil {
		ErrorLogger.Fatal(err)
	}

	OutputLogger.Println("Nuclei Repulsion Energy: ", calc.Vnn, " a.u.")
	printOutputDelimiter()
	fmt.Println("Nuc energy = ", calc.Vnn, " a.u.")

	fmt.Println("Final total energy = ", energy, " a.u.")
	OutputLogger.Println("Final total energy = ", energy, " a.u.")
	printOutputDelimiter()

	InfoLogger.Println("Exiting govhf...")
	fmt.Println("govhf done.")
}
