// Package config loads the console's YAML configuration. Every field
// has a sensible default, so a missing config file is not an error;
// a present file is overlaid on the defaults and validated.
package config
