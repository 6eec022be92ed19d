package concurrency

import (
	"bytes"
	"runtime"
	"strconv"
)

// GID returns the id of the calling goroutine, parsed from the
// runtime stack header ("goroutine 123 [running]:"). Used to decide
// whether a caller is already on a given execution context; never
// used for synchronization.
func GID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
