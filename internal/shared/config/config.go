package config

import (
	"os"
	"path/filepath"
)

// LoadByName resolves cfgName and loads it into out:
//  1. an absolute or cwd-relative path is used as-is;
//  2. an empty name searches upward from the working directory for
//     defaultRelPath, so binaries work from cmd/* and from the repo root.
func LoadByName(cfgName, defaultRelPath string, out any) {
	curDir, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	if cfgName != "" {
		if filepath.IsAbs(cfgName) {
			Load(cfgName, out)
			return
		}
		Load(filepath.Join(curDir, cfgName), out)
		return
	}

	Load(findConfigUpward(curDir, defaultRelPath), out)
}

func findConfigUpward(startDir, relPath string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, relPath)
		if FileExist(candidate) {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("config file not exist, searched " + relPath + " from: " + startDir)
		}
		dir = parent
	}
}
