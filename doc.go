// Package ar reads and writes Unix ar archives, as produced by the ar(1) utility, without holding
// whole archive members in memory.
//
// Three variants of the format are supported:
//
//   - Common, used by Debian packages among others, which only supports file names of up to 16
//     bytes.
//   - BSD, used by BSD ar and macOS, which stores longer file names and names containing spaces at
//     the start of the file's data section.
//   - GNU, used by GNU ar and Windows, which stores them in a name table at the start of the
//     archive. Since the name table precedes every file, GNU archives are written with
//     NewGNUWriter, which needs every file name up front.
//
// Readers consume name tables and symbol lookup tables transparently; the symbol table of an
// archive is available from Reader.Symbols.
package ar
