// Package config provides configuration loading and validation for the speech service.
// It handles YAML-based configuration with per-section validation and exposes
// typed duration helpers for the time-based segmentation parameters.
package config
