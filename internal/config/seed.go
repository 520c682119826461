package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// SeedResource names a single sender or receiver SDP file to load at
// startup, the driver-level equivalent of the teacher's per-stream entries
// in streams.toml.
type SeedResource struct {
	ID      string `toml:"id"`
	SDPFile string `toml:"sdp_file"`
}

// SeedConfig is the example driver's `[[senders]]`/`[[receivers]]` TOML
// table of initial resources, resolved into raw SDP text and handed to
// facade.Config's Senders/Receivers (spec §6 embedding
// API: "initial sender and receiver SDPs").
type SeedConfig struct {
	Senders   []SeedResource `toml:"senders"`
	Receivers []SeedResource `toml:"receivers"`
}

// LoadSeedConfig reads and parses a seed TOML file. A missing path returns
// an empty SeedConfig rather than an error, since seeding is optional.
func LoadSeedConfig(path string) (*SeedConfig, error) {
	cfg := &SeedConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read seed config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse seed config: %w", err)
	}
	return cfg, nil
}

// ResolveSenderSDPs reads every sender entry's SDPFile and returns its
// contents in declaration order, failing closed on the first unreadable
// file rather than silently starting with a partial resource set.
func (c *SeedConfig) ResolveSenderSDPs() ([]string, error) {
	return resolveSDPs(c.Senders)
}

// ResolveReceiverSDPs is the receiver equivalent of ResolveSenderSDPs.
func (c *SeedConfig) ResolveReceiverSDPs() ([]string, error) {
	return resolveSDPs(c.Receivers)
}

func resolveSDPs(resources []SeedResource) ([]string, error) {
	sdps := make([]string, 0, len(resources))
	for _, r := range resources {
		data, err := os.ReadFile(r.SDPFile)
		if err != nil {
			return nil, fmt.Errorf("read SDP file %q for %q: %w", r.SDPFile, r.ID, err)
		}
		sdps = append(sdps, string(data))
	}
	return sdps, nil
}
