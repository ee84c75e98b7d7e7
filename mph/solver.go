// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mph

import (
	"github.com/Asthelen/mphys/inp"
)

// Stats reports what one solve did
type Stats struct {
	It     int     // iterations performed (outer iterations for the trim solver)
	SubIt  int     // accumulated inner coupling sweeps (trim solver only)
	ResidA float64 // last analysis-partition residual norm
	ResidB float64 // last balance-partition residual norm (trim solver only)
	Theta  float64 // last Aitken relaxation factor
}

// Solver is a coupled-equation solver over a graph; e.g. fixed-point or
// Schur-partitioned Newton. All per-solve mutable data lives in the given
// State, so a Solver may be reused across repeated solves.
type Solver interface {
	Run(st *State) (stats Stats, err error)
}

// solverallocators holds all available coupled solvers
var solverallocators = make(map[string]func(gr *Graph, sim *inp.Simulation) (Solver, error))

// NewSolver returns a coupled solver from its type; e.g. "gs" or "schur"
func NewSolver(typ string, gr *Graph, sim *inp.Simulation) (Solver, error) {
	alloc, ok := solverallocators[typ]
	if !ok {
		return nil, cfgerr("cannot find solver type=%q. e.g. {gs, schur} => block Gauss-Seidel, Schur-partitioned Newton", typ)
	}
	return alloc(gr, sim)
}
