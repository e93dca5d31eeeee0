// Package config persists application settings as a JSON file next to the
// executable.
package config
