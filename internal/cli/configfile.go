package cli

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "GODENTS_CONFIG_PATH"

// LoadConfigArgs reads the godents config file and returns its arguments,
// to be placed before the command line ones.
// Config file location: GODENTS_CONFIG_PATH env var, or ~/.godents.
// Format: one flag per line, "--flag value" or "--flag=value", # comments,
// empty lines ignored.
// Returns nil if no config file found.
func LoadConfigArgs() []string {
	path := os.Getenv(ConfigPathEnv)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".godents")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var args []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		flag, value, ok := strings.Cut(line, " ")
		args = append(args, flag)
		if ok {
			if value = strings.TrimSpace(value); value != "" {
				args = append(args, value)
			}
		}
	}
	return args
}
