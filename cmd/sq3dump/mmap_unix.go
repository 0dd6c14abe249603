//go:build unix

package main

import "github.com/robot-dreams/sq3/db_file"

func openMmap(path string) (db_file.ByteSource, error) {
	return db_file.OpenMmapSource(path)
}
