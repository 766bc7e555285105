// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Unset tracker options fall back to the playback defaults: interpolation on,
// real-time speed, the built-in zoom to frame interval table and a white
// delay outline.
package config
