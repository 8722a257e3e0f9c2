// Package mediatypes holds the value types shared by the thumbnailer
// packages: watch directories, scanned file records, thumbnail size profiles
// and extension sets.
//
// It has no dependencies outside the standard library so that the scanner,
// candidate filter and runner can all import it without cycles.
//
// # File Records
//
// A [FileRecord] is created once per run by the scanner and never modified
// afterwards:
//
//	rec := mediatypes.FileRecord{
//	    SourcePath: "/store/2019/x-master.tif",
//	    Name:       "x-master.tif",
//	    Extension:  "tif",
//	    RelDir:     "2019",
//	    Size:       52_428_800,
//	}
//
// # Extensions
//
// Extensions are compared case-insensitively and without the leading dot.
// Use [NewExtensionSet] to build the allow-list from configuration.
package mediatypes
