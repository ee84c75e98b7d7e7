// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mph implements solvers for coupling independently-implemented
// physical disciplines into one consistent multidisciplinary state, driving
// auxiliary balance (trim) equations to zero, and computing exact total
// derivatives of any output with respect to any input via the adjoint method.
package mph

// LinMode selects the action of a local Jacobian
type LinMode int

const (
	Forward   LinMode = iota // untransposed action J·d
	Transpose                // transposed action Jᵀ·d
)

// VarSpec declares one named variable of a block
type VarSpec struct {
	Name string // variable key; e.g. "u_struct"
	Dim  int    // number of components
}

// Values lists variable arrays in declaration order. Blocks receive their
// inputs as read-only views; they must not modify or retain them.
type Values [][]float64

// Block is the residual contract each discipline implements. A block owns a
// slice of the global state vector (its outputs) and the residual equations
// that implicitly define it given inputs from other blocks. Blocks never
// reference each other; all coupling flows through the graph's edges.
type Block interface {

	// identification and declaration
	Name() string       // unique block key
	Inputs() []VarSpec  // declared inputs
	Outputs() []VarSpec // declared outputs

	// EvalResidual computes the residual implicitly defining the outputs.
	//  Input:
	//   ins -- input arrays following Inputs() order
	//   out -- current outputs, flattened following Outputs() order
	//  Output:
	//   res -- residual, parallel to out
	// Must be pure (no side effects beyond internal caching). Returns
	// *NumericalDomainError if the inputs are outside the valid domain.
	EvalResidual(res []float64, ins Values, out []float64) (err error)
}

// BlockSolver defines blocks providing a direct nonlinear solve shortcut;
// e.g. a linear-stiffness structural solve in one shot. Must be
// mathematically equivalent to driving EvalResidual to zero.
type BlockSolver interface {
	SolveResidual(out []float64, ins Values) (err error)
}

// BlockLin defines blocks providing the action of their local Jacobian
// J = ∂res/∂(ins,out), linearised at the given primal point (ins, out).
//  Forward:   reads dins/dout and accumulates J·(dins,dout) into dres
//  Transpose: reads dres and accumulates Jᵀ·dres into dins/dout
// Must be linear and side-effect free.
type BlockLin interface {
	ApplyLin(mode LinMode, dres []float64, dins Values, dout []float64, ins Values, out []float64) (err error)
}

// BlockLinSolver defines implicit blocks that own a residual solve and hence
// can apply the inverse of their local output Jacobian Joo = ∂res/∂out:
//  Forward:   dout = Joo⁻¹ · dres
//  Transpose: dout = Joo⁻ᵀ · dres
// This is what lets Gauss-Seidel and Newton treat an implicit block as a
// black box without exposing its internal linear algebra.
type BlockLinSolver interface {
	SolveLin(mode LinMode, dout, dres []float64, ins Values, out []float64) (err error)
}
