// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package panel

import (
	"github.com/Asthelen/mphys/mph"
)

// Mass is the structural mass functional, m = ρ·width·Σ t_e·l_e, exposed as
// a one-output block so its total derivatives come from the same adjoint
// machinery as the coupled outputs
type Mass struct {

	// parameters
	nel     int
	density float64
	width   float64
}

// NewMass returns a new mass block over nel elements
func NewMass(nel int, density, width float64) *Mass {
	return &Mass{nel: nel, density: density, width: width}
}

func (o *Mass) Name() string { return "mass" }

func (o *Mass) Inputs() []mph.VarSpec {
	return []mph.VarSpec{
		{Name: "x_struct", Dim: o.nel + 1},
		{Name: "dv_struct", Dim: o.nel},
	}
}

func (o *Mass) Outputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: "mass", Dim: 1}}
}

func (o *Mass) compute(x, t []float64) (m float64) {
	for e := 0; e < o.nel; e++ {
		m += o.density * o.width * t[e] * (x[e+1] - x[e])
	}
	return
}

func (o *Mass) EvalResidual(res []float64, ins mph.Values, out []float64) (err error) {
	res[0] = out[0] - o.compute(ins[0], ins[1])
	return
}

func (o *Mass) SolveResidual(out []float64, ins mph.Values) (err error) {
	out[0] = o.compute(ins[0], ins[1])
	return
}

func (o *Mass) ApplyLin(mode mph.LinMode, dres []float64, dins mph.Values, dout []float64, ins mph.Values, out []float64) (err error) {
	x, t := ins[0], ins[1]
	dx, dt := dins[0], dins[1]
	ρw := o.density * o.width
	if mode == mph.Forward {
		dres[0] += dout[0]
		for e := 0; e < o.nel; e++ {
			dres[0] -= ρw * (dt[e]*(x[e+1]-x[e]) + t[e]*(dx[e+1]-dx[e]))
		}
		return
	}
	dout[0] += dres[0]
	for e := 0; e < o.nel; e++ {
		dt[e] -= ρw * (x[e+1] - x[e]) * dres[0]
		dx[e+1] -= ρw * t[e] * dres[0]
		dx[e] += ρw * t[e] * dres[0]
	}
	return
}

func (o *Mass) SolveLin(mode mph.LinMode, dout, dres []float64, ins mph.Values, out []float64) (err error) {
	copy(dout, dres)
	return
}
