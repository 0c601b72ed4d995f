// Package microsim is a small tax-benefit microsimulation engine covering the
// variables the Scottish Budget calculator needs: Scottish income tax,
// employee National Insurance, Universal Credit, the Scottish Child Payment,
// Child Benefit, and household net income.
//
// The moving parts mirror the PolicyEngine architecture the service was
// designed against: a year-resolved parameter tree, a situation describing
// household members, and a simulation that evaluates variables as vectors
// with memoization. An earnings axis turns a single situation into N copies
// with the target adult's employment income swept across a range, so a whole
// variation chart costs one calculation pass.
//
// Cache contract: once a (variable, year) pair has been calculated or pinned
// with SetInput it is never recomputed, even if the simulation's parameters
// change afterwards. Reform modifiers that mutate parameters must therefore
// run before anything triggers calculation; see the reform package for the
// ordering this imposes on composed reforms.
package microsim
