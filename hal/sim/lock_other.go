//go:build !unix && !windows

package sim

import "os"

func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
