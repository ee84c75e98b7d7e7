// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package panel

import (
	"math"

	"github.com/Asthelen/mphys/mph"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
)

// Aero is the aerodynamic discipline: first-order piston theory on a panel
// of flat elements. The local pressure coefficient of each element is
//
//	cp = 2/√(M²−1) · (α − dw/dx)
//
// with the angle of attack α given in degrees and the surface slope dw/dx
// taken from the deformed shape. Outputs are the nodal lift forces and the
// panel lift coefficient; both are explicit functions of the inputs, so the
// residual is r = y − f(x_aero, u_aero, α).
type Aero struct {

	// parameters
	nel   int     // number of elements
	chord float64 // reference chord (lift-coefficient normalisation)
	width float64 // panel width
	qdyn  float64 // freestream dynamic pressure
	mach  float64 // freestream Mach number; must be supersonic

	// derived
	nn int // number of nodes == nel+1
}

// NewAero returns a new piston-theory block with nel elements
func NewAero(nel int, chord, width, qdyn, mach float64) (o *Aero) {
	o = new(Aero)
	o.nel = nel
	o.chord = chord
	o.width = width
	o.qdyn = qdyn
	o.mach = mach
	o.nn = nel + 1
	return
}

// Name returns the block key
func (o *Aero) Name() string { return "aero" }

// Inputs returns the declared inputs
func (o *Aero) Inputs() []mph.VarSpec {
	return []mph.VarSpec{
		{Name: "x_aero", Dim: o.nn}, // nodal coordinates along the chord
		{Name: "u_aero", Dim: o.nn}, // nodal transverse displacements
		{Name: "aoa", Dim: 1},       // angle of attack [deg]
	}
}

// Outputs returns the declared outputs
func (o *Aero) Outputs() []mph.VarSpec {
	return []mph.VarSpec{
		{Name: "f_aero", Dim: o.nn}, // nodal lift forces
		{Name: "c_l", Dim: 1},       // lift coefficient
	}
}

// coef returns the piston-theory pressure coefficient slope 2/√(M²−1)
func (o *Aero) coef() (float64, error) {
	if o.mach <= 1 {
		return 0, &mph.NumericalDomainError{Block: o.Name(), Msg: io.Sf("piston theory requires a supersonic Mach number: mach=%g", o.mach)}
	}
	return 2.0 / math.Sqrt(o.mach*o.mach-1.0), nil
}

// compute evaluates the nodal forces and the lift coefficient
func (o *Aero) compute(f []float64, x, u []float64, aoa float64) (cl float64, err error) {
	c, err := o.coef()
	if err != nil {
		return
	}
	αr := aoa * math.Pi / 180.0
	utl.Fill(f, 0)
	for e := 0; e < o.nel; e++ {
		dxe := x[e+1] - x[e]
		g := c * (αr*dxe - (u[e+1] - u[e])) // cp·dx
		fe := o.qdyn * o.width * g / 2.0
		f[e] += fe
		f[e+1] += fe
		cl += g / o.chord
	}
	return
}

// EvalResidual computes r = y − f(x_aero, u_aero, aoa)
func (o *Aero) EvalResidual(res []float64, ins mph.Values, out []float64) (err error) {
	f := make([]float64, o.nn)
	cl, err := o.compute(f, ins[0], ins[1], ins[2][0])
	if err != nil {
		return
	}
	for i := 0; i < o.nn; i++ {
		res[i] = out[i] - f[i]
	}
	res[o.nn] = out[o.nn] - cl
	return
}

// SolveResidual evaluates the explicit outputs directly
func (o *Aero) SolveResidual(out []float64, ins mph.Values) (err error) {
	cl, err := o.compute(out[:o.nn], ins[0], ins[1], ins[2][0])
	if err != nil {
		return
	}
	out[o.nn] = cl
	return
}

// ApplyLin applies the local Jacobian linearised at (ins, out)
func (o *Aero) ApplyLin(mode mph.LinMode, dres []float64, dins mph.Values, dout []float64, ins mph.Values, out []float64) (err error) {
	c, err := o.coef()
	if err != nil {
		return
	}
	x := ins[0]
	αr := ins[2][0] * math.Pi / 180.0
	dx, du := dins[0], dins[1]
	qw := o.qdyn * o.width

	if mode == mph.Forward {
		for i := 0; i <= o.nn; i++ {
			dres[i] += dout[i]
		}
		dαr := dins[2][0] * math.Pi / 180.0
		for e := 0; e < o.nel; e++ {
			dxe := x[e+1] - x[e]
			dg := c * (αr*(dx[e+1]-dx[e]) + dαr*dxe - (du[e+1] - du[e]))
			dres[e] -= qw * dg / 2.0
			dres[e+1] -= qw * dg / 2.0
			dres[o.nn] -= dg / o.chord
		}
		return
	}

	for i := 0; i <= o.nn; i++ {
		dout[i] += dres[i]
	}
	for e := 0; e < o.nel; e++ {
		dxe := x[e+1] - x[e]
		λg := -(qw*(dres[e]+dres[e+1])/2.0 + dres[o.nn]/o.chord)
		dx[e+1] += c * αr * λg
		dx[e] -= c * αr * λg
		du[e+1] -= c * λg
		du[e] += c * λg
		dins[2][0] += c * dxe * math.Pi / 180.0 * λg
	}
	return
}

// SolveLin applies the inverse of ∂res/∂y, which is the identity for this
// explicit block
func (o *Aero) SolveLin(mode mph.LinMode, dout, dres []float64, ins mph.Values, out []float64) (err error) {
	copy(dout, dres)
	return
}
