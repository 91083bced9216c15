package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFileName is the name of the key=value file looked up next to the executable.
const DefaultEnvFileName = "environment.txt"

// envTemplate is written on first run when the env file does not exist yet.
const envTemplate = "ACCESS_KEY=\n" +
	"SECRET_KEY=\n" +
	"SELLER_ID=\n" +
	"PRODUCT_COUNT=3\n" +
	"SLEEP_INTERVAL=300\n" +
	"LOG_MUTE=false\n"

var truthyTokens = map[string]struct{}{
	"1":    {},
	"true": {},
	"t":    {},
	"yes":  {},
	"y":    {},
	"on":   {},
}

// DefaultEnvFilePath returns environment.txt in the executable's directory, falling back to
// the working directory when the executable path cannot be resolved.
func DefaultEnvFilePath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultEnvFileName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultEnvFileName)
}

// LoadEnvFile reads KEY=VALUE pairs from path. Keys are upper-cased. When the file is missing a
// template is written and an empty map is returned. It never fails: unreadable files and
// malformed lines simply contribute nothing.
func LoadEnvFile(path string) map[string]string {
	values := make(map[string]string)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			_ = writeEnvTemplate(path)
		}
		return values
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		values[key] = value
	}

	return values
}

func writeEnvTemplate(path string) error {
	return os.WriteFile(path, []byte(envTemplate), 0o600)
}

func parseEnvLine(line string) (string, string, bool) {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, "#") || !strings.Contains(s, "=") {
		return "", "", false
	}

	// godotenv expands $VARS and escape sequences; such lines are kept verbatim.
	if !strings.ContainsAny(s, `$\`) {
		if parsed, err := godotenv.Unmarshal(s); err == nil && len(parsed) == 1 {
			for k, v := range parsed {
				return strings.ToUpper(strings.TrimSpace(k)), strings.TrimSpace(v), true
			}
		}
	}

	k, v, _ := strings.Cut(s, "=")
	k = strings.TrimSpace(k)
	if k == "" {
		return "", "", false
	}
	return strings.ToUpper(k), strings.TrimSpace(v), true
}

// ParseInt returns the integer held by raw or def when raw is not an integer.
func ParseInt(raw string, def int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return value
}

// ParseBool reports whether raw is one of the accepted truthy tokens, case-insensitively.
func ParseBool(raw string) bool {
	_, ok := truthyTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}
