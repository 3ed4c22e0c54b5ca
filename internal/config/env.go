package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order. Variables already set in the environment,
// including ones set by an earlier file, are never overridden.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the first env files that exist. It returns fs.ErrNotExist
// when none was found.
func loadEnvFile() error {
	loaded := false
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return err
		}
		loaded = true
	}
	if !loaded {
		return fs.ErrNotExist
	}
	return nil
}

func isNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }
