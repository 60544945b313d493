// Package config holds Routify's runtime configuration: listen addresses,
// GTFS source file paths, and the default GA parameters, which may be
// refreshed at runtime from a remote YAML endpoint.
package config

import "sync"

// GADefaults are the population/generations/mutation-rate values used when
// a type=2 request doesn't override them.
type GADefaults struct {
	Generations    int     `yaml:"generations"`
	MutationRate   float64 `yaml:"mutation_rate"`
	PopulationSize int     `yaml:"population_size"`
}

// Config holds all configuration settings for the application. GADefaults
// is the only field mutated after startup (via a remote config refresh);
// everything else is fixed for the process lifetime.
type Config struct {
	TCPAddr       string
	AdminAddr     string
	StopsFile     string
	StopTimesFile string

	mu         sync.RWMutex
	gaDefaults GADefaults
}

// NewConfig builds a Config with the given static settings and initial GA
// defaults.
func NewConfig(tcpAddr, adminAddr, stopsFile, stopTimesFile string, ga GADefaults) *Config {
	return &Config{
		TCPAddr:       tcpAddr,
		AdminAddr:     adminAddr,
		StopsFile:     stopsFile,
		StopTimesFile: stopTimesFile,
		gaDefaults:    ga,
	}
}

// UpdateGADefaults safely replaces the current GA defaults.
func (cfg *Config) UpdateGADefaults(ga GADefaults) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.gaDefaults = ga
}

// GetGADefaults safely returns a copy of the current GA defaults.
func (cfg *Config) GetGADefaults() GADefaults {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.gaDefaults
}
