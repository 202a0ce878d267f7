// Package cpu implements a cycle-counted Z80 and Intel 8080 instruction
// engine.
//
// A CPU owns its register file and is driven by a single goroutine through
// Run, Step or StepCycle. Memory and port accesses go through the Memory and
// IO collaborators supplied at construction. Other goroutines may raise
// interrupt lines, request the bus for DMA, or stop the engine; everything
// else is owned by the dispatch goroutine.
package cpu
