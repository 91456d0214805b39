// Package simulation produces the synthetic inputs of the pricing pipeline:
// a seeded observation dataset drawn from the product catalog, and a toy
// two-product demand environment used for exploring joint pricing.
package simulation
