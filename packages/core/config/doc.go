// Package config handles configuration loading and management for hitblock.
//
// It provides functionality for:
//   - Loading configuration from .hitblock.yaml, .hitblock.yml or JSON files
//   - Default configuration values
//   - Merging a file configuration with command-line overrides
//   - Validating every field at once, reporting all problems together
package config
