// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package panel

import (
	"github.com/Asthelen/mphys/mph"
	"github.com/cpmech/gosl/utl"
)

// Mesh is the geometry discipline: it produces uniform structural and
// aerodynamic nodal coordinates along the chord, scaled by a single "morph"
// design variable so geometric sensitivities flow through one scalar
type Mesh struct {

	// parameters
	chord float64

	// derived: normalised node positions
	ξs []float64
	ξa []float64
}

// NewMesh returns a new geometry block
func NewMesh(chord float64, nelStruct, nelAero int) (o *Mesh) {
	o = new(Mesh)
	o.chord = chord
	o.ξs = utl.LinSpace(0, 1, nelStruct+1)
	o.ξa = utl.LinSpace(0, 1, nelAero+1)
	return
}

// Name returns the block key
func (o *Mesh) Name() string { return "mesh" }

// Inputs returns the declared inputs
func (o *Mesh) Inputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: "morph", Dim: 1}}
}

// Outputs returns the declared outputs
func (o *Mesh) Outputs() []mph.VarSpec {
	return []mph.VarSpec{
		{Name: "x_struct", Dim: len(o.ξs)},
		{Name: "x_aero", Dim: len(o.ξa)},
	}
}

// EvalResidual computes r = y − morph·chord·ξ
func (o *Mesh) EvalResidual(res []float64, ins mph.Values, out []float64) (err error) {
	m := ins[0][0]
	ns := len(o.ξs)
	for i, ξ := range o.ξs {
		res[i] = out[i] - m*o.chord*ξ
	}
	for i, ξ := range o.ξa {
		res[ns+i] = out[ns+i] - m*o.chord*ξ
	}
	return
}

// SolveResidual evaluates the explicit outputs directly
func (o *Mesh) SolveResidual(out []float64, ins mph.Values) (err error) {
	m := ins[0][0]
	ns := len(o.ξs)
	for i, ξ := range o.ξs {
		out[i] = m * o.chord * ξ
	}
	for i, ξ := range o.ξa {
		out[ns+i] = m * o.chord * ξ
	}
	return
}

// ApplyLin applies the local Jacobian
func (o *Mesh) ApplyLin(mode mph.LinMode, dres []float64, dins mph.Values, dout []float64, ins mph.Values, out []float64) (err error) {
	ns := len(o.ξs)
	if mode == mph.Forward {
		dm := dins[0][0]
		for i, ξ := range o.ξs {
			dres[i] += dout[i] - dm*o.chord*ξ
		}
		for i, ξ := range o.ξa {
			dres[ns+i] += dout[ns+i] - dm*o.chord*ξ
		}
		return
	}
	for i, ξ := range o.ξs {
		dout[i] += dres[i]
		dins[0][0] -= o.chord * ξ * dres[i]
	}
	for i, ξ := range o.ξa {
		dout[ns+i] += dres[ns+i]
		dins[0][0] -= o.chord * ξ * dres[ns+i]
	}
	return
}

// SolveLin applies the inverse of ∂res/∂y, the identity for this explicit block
func (o *Mesh) SolveLin(mode mph.LinMode, dout, dres []float64, ins mph.Values, out []float64) (err error) {
	copy(dout, dres)
	return
}
