// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package panel implements the disciplines of the supersonic panel
// aerostructural problem: a chordwise bending beam, piston-theory
// aerodynamics, displacement/load transfers, mass, geometry and the trim
// balance, each as one coupling block.
package panel

import (
	"github.com/Asthelen/mphys/mph"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
	"gonum.org/v1/gonum/mat"
)

// power of the element length in each entry of the bending stiffness, used
// by the chain rule through the nodal coordinates: ∂ke[i][j]/∂l = −p·ke[i][j]/l
var klpow = [4][4]float64{
	{3, 2, 3, 2},
	{2, 1, 2, 1},
	{3, 2, 3, 2},
	{2, 1, 2, 1},
}

// Beam is the structural discipline: an Euler-Bernoulli beam along the panel
// chord, clamped at the leading edge and bending under the nodal aerodynamic
// forces. Each element has its own thickness (the structural design
// variables); the outputs are the interleaved [w, θ] nodal degrees of
// freedom. The residual is r = K·u − F with the clamped rows replaced by
// r = u.
type Beam struct {

	// parameters
	nel   int     // number of elements
	width float64 // panel width (rectangular cross-section)

	// derived
	nn int // number of nodes == nel+1
	nd int // number of degrees of freedom == 2·nn

	// scratchpad
	K [][]float64 // assembled stiffness, without boundary rows
}

// NewBeam returns a new structural block with nel elements
func NewBeam(nel int, width float64) (o *Beam) {
	o = new(Beam)
	o.nel = nel
	o.width = width
	o.nn = nel + 1
	o.nd = 2 * o.nn
	o.K = utl.Alloc(o.nd, o.nd)
	return
}

// Name returns the block key
func (o *Beam) Name() string { return "struct" }

// Inputs returns the declared inputs
func (o *Beam) Inputs() []mph.VarSpec {
	return []mph.VarSpec{
		{Name: "x_struct", Dim: o.nn},   // nodal coordinates along the chord
		{Name: "dv_struct", Dim: o.nel}, // element thicknesses
		{Name: "modulus", Dim: 1},       // Young's modulus
		{Name: "f_struct", Dim: o.nn},   // nodal transverse forces
	}
}

// Outputs returns the declared outputs
func (o *Beam) Outputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: "u_struct", Dim: o.nd}}
}

// kelem fills the local 4x4 bending stiffness of one element
func kelem(ke *[4][4]float64, EI, l float64) {
	ll := l * l
	n := EI / (ll * l)
	ke[0][0] = 12 * n
	ke[0][1] = 6 * l * n
	ke[0][2] = -12 * n
	ke[0][3] = 6 * l * n
	ke[1][0] = 6 * l * n
	ke[1][1] = 4 * ll * n
	ke[1][2] = -6 * l * n
	ke[1][3] = 2 * ll * n
	ke[2][0] = -12 * n
	ke[2][1] = -6 * l * n
	ke[2][2] = 12 * n
	ke[2][3] = -6 * l * n
	ke[3][0] = 6 * l * n
	ke[3][1] = 2 * ll * n
	ke[3][2] = -6 * l * n
	ke[3][3] = 4 * ll * n
}

// assemble rebuilds the global stiffness (without boundary rows) at the
// given geometry, thicknesses and modulus
func (o *Beam) assemble(x, t []float64, E float64) (err error) {
	for i := 0; i < o.nd; i++ {
		utl.Fill(o.K[i], 0)
	}
	var ke [4][4]float64
	for e := 0; e < o.nel; e++ {
		l := x[e+1] - x[e]
		if l <= 0 {
			return &mph.NumericalDomainError{Block: o.Name(), Msg: io.Sf("degenerate element %d: length=%g", e, l)}
		}
		if t[e] <= 0 {
			return &mph.NumericalDomainError{Block: o.Name(), Msg: "element thickness must be positive"}
		}
		EI := E * o.width * t[e] * t[e] * t[e] / 12.0
		kelem(&ke, EI, l)
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				o.K[2*e+i][2*e+j] += ke[i][j]
			}
		}
	}
	return
}

// factorize assembles the stiffness with the clamped rows replaced by the
// identity and returns its dense factorisation
func (o *Beam) factorize(x, t []float64, E float64) (lu *mat.LU, err error) {
	err = o.assemble(x, t, E)
	if err != nil {
		return
	}
	A := mat.NewDense(o.nd, o.nd, nil)
	for i := 2; i < o.nd; i++ {
		for j := 0; j < o.nd; j++ {
			A.Set(i, j, o.K[i][j])
		}
	}
	A.Set(0, 0, 1)
	A.Set(1, 1, 1)
	lu = new(mat.LU)
	lu.Factorize(A)
	return
}

// EvalResidual computes r = K·u − F with clamped rows r = u
func (o *Beam) EvalResidual(res []float64, ins mph.Values, out []float64) (err error) {
	x, t, f := ins[0], ins[1], ins[3]
	E := ins[2][0]
	err = o.assemble(x, t, E)
	if err != nil {
		return
	}
	res[0] = out[0]
	res[1] = out[1]
	for i := 2; i < o.nd; i++ {
		s := 0.0
		for j := 0; j < o.nd; j++ {
			s += o.K[i][j] * out[j]
		}
		if i%2 == 0 {
			s -= f[i/2]
		}
		res[i] = s
	}
	return
}

// SolveResidual solves K·u = F directly
func (o *Beam) SolveResidual(out []float64, ins mph.Values) (err error) {
	f := ins[3]
	lu, err := o.factorize(ins[0], ins[1], ins[2][0])
	if err != nil {
		return
	}
	rhs := mat.NewVecDense(o.nd, nil)
	for i := 1; i < o.nn; i++ {
		rhs.SetVec(2*i, f[i])
	}
	var v mat.VecDense
	err = lu.SolveVecTo(&v, false, rhs)
	if err != nil {
		return &mph.NumericalDomainError{Block: o.Name(), Msg: "structural stiffness is singular"}
	}
	for i := 0; i < o.nd; i++ {
		out[i] = v.AtVec(i)
	}
	return
}

// ApplyLin applies the local Jacobian linearised at (ins, out)
func (o *Beam) ApplyLin(mode mph.LinMode, dres []float64, dins mph.Values, dout []float64, ins mph.Values, out []float64) (err error) {
	x, t := ins[0], ins[1]
	E := ins[2][0]
	err = o.assemble(x, t, E)
	if err != nil {
		return
	}
	dx, dt, df := dins[0], dins[1], dins[3]

	if mode == mph.Forward {

		// state and force terms
		dres[0] += dout[0]
		dres[1] += dout[1]
		for i := 2; i < o.nd; i++ {
			for j := 0; j < o.nd; j++ {
				dres[i] += o.K[i][j] * dout[j]
			}
			if i%2 == 0 {
				dres[i] -= df[i/2]
			}
		}

		// stiffness terms: thickness, modulus and geometry
		var ke [4][4]float64
		var g, h [4]float64
		for e := 0; e < o.nel; e++ {
			l := x[e+1] - x[e]
			EI := E * o.width * t[e] * t[e] * t[e] / 12.0
			kelem(&ke, EI, l)
			for i := 0; i < 4; i++ {
				g[i], h[i] = 0, 0
				for j := 0; j < 4; j++ {
					g[i] += ke[i][j] * out[2*e+j]
					h[i] -= klpow[i][j] * ke[i][j] / l * out[2*e+j]
				}
			}
			dl := dx[e+1] - dx[e]
			for i := 0; i < 4; i++ {
				I := 2*e + i
				if I < 2 {
					continue
				}
				dres[I] += 3.0/t[e]*g[i]*dt[e] + g[i]/E*dins[2][0] + h[i]*dl
			}
		}
		return
	}

	// transpose: state and force terms
	dout[0] += dres[0]
	dout[1] += dres[1]
	for i := 2; i < o.nd; i++ {
		for j := 0; j < o.nd; j++ {
			dout[j] += o.K[i][j] * dres[i]
		}
		if i%2 == 0 {
			df[i/2] -= dres[i]
		}
	}

	// stiffness terms
	var ke [4][4]float64
	var g, h [4]float64
	for e := 0; e < o.nel; e++ {
		l := x[e+1] - x[e]
		EI := E * o.width * t[e] * t[e] * t[e] / 12.0
		kelem(&ke, EI, l)
		for i := 0; i < 4; i++ {
			g[i], h[i] = 0, 0
			for j := 0; j < 4; j++ {
				g[i] += ke[i][j] * out[2*e+j]
				h[i] -= klpow[i][j] * ke[i][j] / l * out[2*e+j]
			}
		}
		gλ, hλ := 0.0, 0.0
		for i := 0; i < 4; i++ {
			I := 2*e + i
			if I < 2 {
				continue
			}
			gλ += g[i] * dres[I]
			hλ += h[i] * dres[I]
		}
		dt[e] += 3.0 / t[e] * gλ
		dins[2][0] += gλ / E
		dx[e+1] += hλ
		dx[e] -= hλ
	}
	return
}

// SolveLin applies the inverse of ∂res/∂u_struct (the clamped stiffness)
func (o *Beam) SolveLin(mode mph.LinMode, dout, dres []float64, ins mph.Values, out []float64) (err error) {
	lu, err := o.factorize(ins[0], ins[1], ins[2][0])
	if err != nil {
		return
	}
	var v mat.VecDense
	err = lu.SolveVecTo(&v, mode == mph.Transpose, mat.NewVecDense(o.nd, dres))
	if err != nil {
		return &mph.NumericalDomainError{Block: o.Name(), Msg: "structural stiffness is singular"}
	}
	for i := 0; i < o.nd; i++ {
		dout[i] = v.AtVec(i)
	}
	return
}

// TipDeflection returns the transverse deflection of the trailing-edge node
func (o *Beam) TipDeflection(u []float64) float64 {
	return u[o.nd-2]
}
