// Package instrument implements the source instrumentation compiler: a
// program-to-program transform over a parsed module that makes every
// function in it inspectable at runtime, without changing observable
// behavior.
//
// The entry point is Instrument, which drives a single depth-first pass
// over an *ast.Program (the visitor driver), dispatching to the
// specialized visitors as it goes, and finishing with the parameter
// rewriter, super-target rewriter, tracker injector and output assembler.
// The supporting components — the identifier table, the block model, the
// binding resolver and the function model — live alongside the visitors in
// this package: one cohesive package, several files by concern.
package instrument
