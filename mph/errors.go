// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mph

import "github.com/cpmech/gosl/io"

// ConfigurationError indicates an invalid graph or solver configuration;
// e.g. unknown block/variable names, mismatched dimensions, malformed
// partition labels, or wrong bound-array lengths. Always raised before any
// residual evaluation.
type ConfigurationError struct {
	Msg string
}

func (o *ConfigurationError) Error() string { return "configuration error: " + o.Msg }

// NumericalDomainError indicates that a block's evaluation hit an invalid
// numeric state (e.g. NaN/Inf residual). It aborts the current solve and is
// not retried automatically.
type NumericalDomainError struct {
	Block string // offending block
	It    int    // iteration index when detected
	Msg   string
}

func (o *NumericalDomainError) Error() string {
	return io.Sf("numerical domain error in block %q (iteration %d): %s", o.Block, o.It, o.Msg)
}

// CouplingDivergedError indicates that the fixed-point coupling loop
// exhausted its iteration budget without meeting tolerance.
type CouplingDivergedError struct {
	It     int     // iterations performed
	Resid  float64 // last residual norm
	Resid0 float64 // residual norm at solve entry
}

func (o *CouplingDivergedError) Error() string {
	return io.Sf("coupling iteration diverged: ‖r‖=%g (‖r0‖=%g) after %d iterations", o.Resid, o.Resid0, o.It)
}

// MaxIterError indicates that the outer Newton loop exhausted its iteration
// budget; it carries the last residual norms of both partitions so a caller
// (e.g. an optimisation driver) can penalise the design point instead of
// crashing the run.
type MaxIterError struct {
	It     int     // outer iterations performed
	ResidA float64 // last analysis-partition residual norm
	ResidB float64 // last balance-partition residual norm
}

func (o *MaxIterError) Error() string {
	return io.Sf("max outer iterations reached: it=%d ‖rA‖=%g ‖rB‖=%g", o.It, o.ResidA, o.ResidB)
}

// SubSolveBudgetError indicates that the global inner-solve budget shared
// across the whole Newton solve was exhausted. Distinct from ordinary
// non-convergence: it signals the outer loop is requesting more inner work
// than allowed rather than that the physics is unstable.
type SubSolveBudgetError struct {
	Used   int // inner iterations consumed
	Budget int // configured max_sub_solves
}

func (o *SubSolveBudgetError) Error() string {
	return io.Sf("inner solve budget exhausted: used=%d budget=%d", o.Used, o.Budget)
}

// SingularSystemError indicates a singular (or numerically singular) reduced
// Schur system during a Newton step or derivative request. Fatal for that
// request; the primal state is left untouched.
type SingularSystemError struct {
	Msg string
}

func (o *SingularSystemError) Error() string { return "singular system: " + o.Msg }

// cfgerr returns a new ConfigurationError with a formatted message
func cfgerr(msg string, prm ...interface{}) *ConfigurationError {
	return &ConfigurationError{io.Sf(msg, prm...)}
}
