package noaa

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// LoadToken reads an API token from path. A missing file is replaced with
// a placeholder template and reported as an empty token, so the user knows
// where to put it.
func LoadToken(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		template := "# NOAA CO-OPS API token. Replace the line below with your token.\n" + placeholderToken + "\n"
		if werr := os.WriteFile(path, []byte(template), 0o600); werr != nil {
			return "", false, fmt.Errorf("creating token template %s: %w", path, werr)
		}
		return "", true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading token file %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || line == placeholderToken {
			continue
		}
		return line, false, nil
	}
	return "", false, nil
}
