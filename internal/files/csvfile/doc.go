// Package csvfile parses one delimited input file into a pgload.FileRecord.
//
// The first record is the header and defines the file's column names in
// order. Column names are taken verbatim; they are compared exactly against
// the table's catalog names during reconciliation. Files may be compressed
// (see package compression) and may start with a byte order mark.
package csvfile
