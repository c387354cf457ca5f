// Package conv provides safe integer conversion utilities.
//
// These functions perform bounds checking to prevent integer overflow when
// narrowing block indices to the uint32 range of a bitmap and when computing
// item*count byte totals for block transfers.
package conv
