//go:build !unix

package main

import (
	"fmt"

	"github.com/robot-dreams/sq3/db_file"
)

func openMmap(path string) (db_file.ByteSource, error) {
	return nil, fmt.Errorf("--mmap is not supported on this platform")
}
