package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// dirClassSource resolves a binary name to <dir>/<binaryName>.jcls,
// mirroring ClassLoader.hpp's classpath-directory lookup.
type dirClassSource struct {
	dir string
}

func (s dirClassSource) FindClassBytes(binaryName string) ([]byte, error) {
	path := filepath.Join(s.dir, binaryName+".jcls")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dirClassSource: %s: %w", path, err)
	}
	return data, nil
}
