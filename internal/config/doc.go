// Package config loads runtime configuration from a key=value env file (credentials, stock
// floor, poll interval, log muting), an optional YAML file and CLI flags with precedence:
// CLI flags > YAML config > env file > Defaults. Env file problems never surface as errors;
// malformed values degrade to their defaults.
package config
