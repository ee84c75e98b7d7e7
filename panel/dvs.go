// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package panel

import (
	"github.com/Asthelen/mphys/mph"
)

// Dvs is a passthrough source block for design variables shared by more
// than one discipline. Fanning the value out from one output lets a single
// derivative request capture all paths; e.g. the element thicknesses drive
// both the stiffness and the mass.
type Dvs struct {
	key string
	dim int
}

// NewDvs returns a passthrough source for the named design variable
func NewDvs(key string, dim int) *Dvs {
	return &Dvs{key: key, dim: dim}
}

func (o *Dvs) Name() string { return "dvs" }

func (o *Dvs) Inputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: o.key, Dim: o.dim}}
}

func (o *Dvs) Outputs() []mph.VarSpec {
	return []mph.VarSpec{{Name: o.key, Dim: o.dim}}
}

func (o *Dvs) EvalResidual(res []float64, ins mph.Values, out []float64) (err error) {
	for i := range res {
		res[i] = out[i] - ins[0][i]
	}
	return
}

func (o *Dvs) SolveResidual(out []float64, ins mph.Values) (err error) {
	copy(out, ins[0])
	return
}

func (o *Dvs) ApplyLin(mode mph.LinMode, dres []float64, dins mph.Values, dout []float64, ins mph.Values, out []float64) (err error) {
	if mode == mph.Forward {
		for i := range dres {
			dres[i] += dout[i] - dins[0][i]
		}
		return
	}
	for i := range dres {
		dout[i] += dres[i]
		dins[0][i] -= dres[i]
	}
	return
}

func (o *Dvs) SolveLin(mode mph.LinMode, dout, dres []float64, ins mph.Values, out []float64) (err error) {
	copy(dout, dres)
	return
}
