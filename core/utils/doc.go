// Package utils provides common utility functions for netsync.
// It includes loose type conversion helpers used when reading device output
// and system-of-record payloads, whose values arrive as strings, JSON numbers
// or database scalars depending on the binding.
package utils
