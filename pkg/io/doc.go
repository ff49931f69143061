// Package io reads extraction records and writes analysis output.
//
// # Input
//
// Records are read through a [Source], which names the record and opens
// its bytes. [FileSource] reads from disk and [BytesSource] from memory.
// [Discover] expands command-line paths into sources: files are taken as
// given and directories contribute their *.json files in sorted order.
//
//	sources, missing := io.Discover([]string{"somef_outputs/", "extra.json"})
//	for _, path := range missing {
//	    logger.Warn("input not found", "path", path)
//	}
//
// [ReadRecord] decodes a record from any reader, tolerating a UTF-8 byte
// order mark.
//
// # Output
//
// [WriteJSON] encodes any value as indented JSON. [WriteFileAtomic] and
// [ExportJSON] write files so that readers never observe a partial file:
// data goes to a temporary file in the same directory, is synced, and is
// then renamed into place.
//
// # Concurrency
//
// All functions in this package are safe to call concurrently. Sources are
// immutable and may be opened more than once.
package io
