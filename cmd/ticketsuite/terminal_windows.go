//go:build windows

package main

import "os"

// quietInterrupt does nothing on windows, the console does not echo ^C.
func quietInterrupt(*os.File) func() { return func() {} }
