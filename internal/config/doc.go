// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Binaries load a .env file (if present) before reading the config, so
// secrets such as kite.access_token can live outside the YAML.
package config
