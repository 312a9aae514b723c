// Package csvsource reads a CSV file in fixed-size chunks and bridges its
// untyped cells to SQL column types.
//
// The header is normalised (see NormalizeHeader), column types are inferred
// from the first chunk (see InferSchema) and every later chunk is converted
// against that schema (see Convert). Text in legacy encodings is decoded with
// golang.org/x/text before parsing.
package csvsource
