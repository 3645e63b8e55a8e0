// Package compiler provides the EigenScript lexer, parser, pretty printer
// and a lowering backend that translates programs to LLVM IR calling into
// the runtime value model of package rt.
//
// Pipeline: source → Lex → Parse → [PruneUnused] → Lower → LLVM IR
package compiler
