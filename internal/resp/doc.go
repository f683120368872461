// Package resp implements the RESP subset spoken by kvmesh.
//
// Supported frames:
//
//	+<string>\r\n              simple string
//	-<string>\r\n              error string
//	:<u64>\r\n                 integer
//	$<len>\r\n<bytes>\r\n      bulk string
//	$-1\r\n                    null bulk
//	*<count>\r\n<frames...>    array (decode only)
//
// Decoding is split in two passes over a Cursor. Check verifies that a
// complete frame is present without allocating payloads; Parse builds the
// typed value. Both run the same scanner, so they always consume the same
// number of bytes. Conn layers a growable receive buffer over an io.Reader
// and retries Check after every read until a frame is complete.
package resp
