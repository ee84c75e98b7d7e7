// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package panel

import (
	"github.com/Asthelen/mphys/inp"
	"github.com/Asthelen/mphys/mph"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
)

// NewModel wires the panel disciplines into one coupling graph. The balance
// block (and the edge driving the angle of attack from it) is present only
// under the partitioned trim solver; with the plain coupling solver the
// angle of attack stays a free input of the aerodynamic block.
func NewModel(sim *inp.Simulation) (gr *mph.Graph, err error) {
	p := &sim.Panel
	if p.NelStruct < 1 || p.NelAero < 1 {
		return nil, &mph.ConfigurationError{Msg: io.Sf("panel discretisation must have at least one element: nelstruct=%d nelaero=%d", p.NelStruct, p.NelAero)}
	}
	T := xferMatrix(p.NelStruct, p.NelAero)
	trim := sim.Data.Solver == "schur"

	blocks := []mph.Block{
		NewDvs("dv_struct", p.NelStruct),
		NewMesh(p.Chord, p.NelStruct, p.NelAero),
		NewBeam(p.NelStruct, p.Width),
		NewDispXfer(T),
		NewAero(p.NelAero, p.Chord, p.Width, p.Qdyn, p.Mach),
		NewLoadXfer(T),
		NewMass(p.NelStruct, p.Density, p.Width),
	}
	if trim {
		blocks = append(blocks, NewBalance(p.TargetCl))
	}

	edges := []mph.Edge{
		{FromBlock: "dvs", FromVar: "dv_struct", ToBlock: "struct", ToVar: "dv_struct"},
		{FromBlock: "dvs", FromVar: "dv_struct", ToBlock: "mass", ToVar: "dv_struct"},
		{FromBlock: "mesh", FromVar: "x_struct", ToBlock: "struct", ToVar: "x_struct"},
		{FromBlock: "mesh", FromVar: "x_struct", ToBlock: "mass", ToVar: "x_struct"},
		{FromBlock: "mesh", FromVar: "x_aero", ToBlock: "aero", ToVar: "x_aero"},
		{FromBlock: "struct", FromVar: "u_struct", ToBlock: "dispxfer", ToVar: "u_struct"},
		{FromBlock: "dispxfer", FromVar: "u_aero", ToBlock: "aero", ToVar: "u_aero"},
		{FromBlock: "aero", FromVar: "f_aero", ToBlock: "loadxfer", ToVar: "f_aero"},
		{FromBlock: "loadxfer", FromVar: "f_struct", ToBlock: "struct", ToVar: "f_struct"},
	}
	if trim {
		edges = append(edges,
			mph.Edge{FromBlock: "aero", FromVar: "c_l", ToBlock: "balance", ToVar: "c_l"},
			mph.Edge{FromBlock: "balance", FromVar: "aoa", ToBlock: "aero", ToVar: "aoa"},
		)
	}
	return mph.NewGraph(blocks, edges)
}

// NewModelState returns a state with the free inputs and initial guesses set
// from the simulation input
func NewModelState(gr *mph.Graph, sim *inp.Simulation) (st *mph.State, err error) {
	p := &sim.Panel
	st = gr.NewState()
	t0 := make([]float64, p.NelStruct)
	utl.Fill(t0, p.Thickness0)
	if err = gr.SetInput(st, "dvs", "dv_struct", t0); err != nil {
		return
	}
	if err = gr.SetInput(st, "mesh", "morph", []float64{p.Morph}); err != nil {
		return
	}
	if err = gr.SetInput(st, "struct", "modulus", []float64{p.Modulus}); err != nil {
		return
	}
	if sim.Data.Solver == "schur" {
		err = gr.SetOutput(st, "balance", "aoa", []float64{p.Aoa0})
	} else {
		err = gr.SetInput(st, "aero", "aoa", []float64{p.Aoa0})
	}
	return
}
