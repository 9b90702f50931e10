// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DotEnv reads variables from the dotenv file at path and makes env consult
// them whenever its Getenv finds nothing. Variables already present in the
// environment always win. A missing file is not an error.
func DotEnv(env *Env, path string) error {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	getenv := env.Getenv
	env.Getenv = func(name string) string {
		if v := getenv(name); v != "" {
			return v
		}
		return vars[name]
	}
	return nil
}
