// Package scanner turns the command-line inputs of a load run (files and
// directories) into the ordered list of files the loader processes.
//
// The scanner is filesystem-agnostic through filesystem.FileSystemProvider,
// so tests run against filesystem.MemoryFileSystem.
package scanner
