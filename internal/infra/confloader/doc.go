// Package confloader provides configuration loading for MerkleKV.
//
// It implements a flexible configuration loader on top of koanf supporting
// multiple sources and formats:
//
//   - Multiple Sources: files, environment variables, maps
//   - YAML configuration files
//   - Watch Support: reload callback on config file changes
//   - Type Safety: unmarshaling into typed structs
//
// Priority (highest to lowest):
//
//  1. Environment variables
//  2. Configuration file
//  3. Default values
package confloader
