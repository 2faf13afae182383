package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFile is read from the source root for tool environment overrides
// such as CC, CXX or PKG_CONFIG_PATH.
const EnvFile = ".env"

// loadEnv returns the variables of <root>/.env, or nil when there is none.
func loadEnv(root string) (map[string]string, error) {
	path := filepath.Join(root, EnvFile)
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return env, nil
}
