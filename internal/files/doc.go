// Package files groups the input-side packages of a load run:
//   - filesystem: filesystem abstraction (OS and in-memory)
//   - scanner: expands file and directory inputs into an ordered file list
//   - compression: transparent decompression chosen by file extension
//   - csvfile: parses one delimited file into a pgload.FileRecord
package files
