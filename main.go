// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/Asthelen/mphys/inp"
	"github.com/Asthelen/mphys/mph"
	"github.com/Asthelen/mphys/panel"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			if mpi.WorldRank() == 0 {
				chk.Verbose = true
				for i := 8; i > 3; i-- {
					chk.CallerInfo(i)
				}
				io.PfRed("ERROR: %v\n", err)
			}
		}
		mpi.Stop()
	}()
	mpi.Start()

	// read input parameters
	fnamepath, _ := io.ArgToFilename(0, "data/panel", ".sim", true)
	verbose := io.ArgToBool(1, true)

	// message
	if mpi.WorldRank() == 0 && verbose {
		io.PfWhite("\nMphys -- Multidisciplinary Coupled Solver\n\n")
		io.Pf("\n%v\n", io.ArgsTable("INPUT ARGUMENTS",
			"filename path", "fnamepath", fnamepath,
			"show messages", "verbose", verbose,
		))
	}

	// simulation input
	sim, err := inp.ReadSim(fnamepath)
	if err != nil {
		chk.Panic("cannot read simulation input:\n%v", err)
	}
	if verbose {
		sim.Data.Verbose = true
	}

	// coupling graph and initial state
	gr, err := panel.NewModel(sim)
	if err != nil {
		chk.Panic("cannot build coupling graph:\n%v", err)
	}
	st, err := panel.NewModelState(gr, sim)
	if err != nil {
		chk.Panic("cannot initialise state:\n%v", err)
	}

	// solve
	sol, err := mph.NewSolver(sim.Data.Solver, gr, sim)
	if err != nil {
		chk.Panic("cannot allocate solver:\n%v", err)
	}
	stats, err := sol.Run(st)
	if err != nil {
		chk.Panic("solve failed:\n%v", err)
	}

	// report
	cl, err := gr.Output(st, "aero", "c_l")
	if err != nil {
		chk.Panic("%v", err)
	}
	mass, err := gr.Output(st, "mass", "mass")
	if err != nil {
		chk.Panic("%v", err)
	}
	if mpi.WorldRank() == 0 {
		io.Pf("\nconverged: it=%d subit=%d ‖rA‖=%g ‖rB‖=%g\n", stats.It, stats.SubIt, stats.ResidA, stats.ResidB)
		if sim.Data.Solver == "schur" {
			aoa, _ := gr.Output(st, "balance", "aoa")
			io.Pforan("trimmed aoa = %.8f [deg]\n", aoa[0])
		}
		io.Pforan("c_l  = %.8f\n", cl[0])
		io.Pforan("mass = %.8f\n", mass[0])
	}

	// exact total derivative of the mass with respect to the thicknesses
	adj, err := mph.NewAdjoint(gr, sol, &sim.Trim.Linear)
	if err != nil {
		chk.Panic("cannot allocate adjoint solver:\n%v", err)
	}
	dmdt, err := adj.TotalDeriv(st, "mass", "mass", "dvs", "dv_struct")
	if err != nil {
		chk.Panic("derivative request failed:\n%v", err)
	}
	if mpi.WorldRank() == 0 {
		io.Pf("\ndm/dt (first elements) =")
		n := len(dmdt[0])
		if n > 4 {
			n = 4
		}
		for j := 0; j < n; j++ {
			io.Pf(" %.6f", dmdt[0][j])
		}
		io.Pf("\n")
	}
}
