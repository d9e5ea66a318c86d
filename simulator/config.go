package simulator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/arloliu/go-julabo/logger"
	"gopkg.in/yaml.v3"
)

// Config lists the simulated devices of a julabo-sim run.
//
//	devices:
//	- name: cf31
//	  class: JulaboCF
//	  listen: ":5050"
//	  flow_control_noise: true
//	  registers:
//	    PV_00: "21.5"
type Config struct {
	Devices []DeviceConfig `yaml:"devices"`
}

// DeviceConfig describes one simulated bath.
type DeviceConfig struct {
	Name             string            `yaml:"name"`
	Class            string            `yaml:"class"`
	Listen           string            `yaml:"listen"`
	Registers        map[string]string `yaml:"registers"`
	FlowControlNoise bool              `yaml:"flow_control_noise"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("julabo: read simulator config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML config document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("julabo: parse simulator config: %w", err)
	}

	if len(cfg.Devices) == 0 {
		return nil, errors.New("julabo: simulator config has no devices")
	}

	seen := make(map[string]struct{}, len(cfg.Devices))
	for i, d := range cfg.Devices {
		if d.Name == "" {
			return nil, fmt.Errorf("julabo: simulator device #%d has no name", i)
		}
		if d.Listen == "" {
			return nil, fmt.Errorf("julabo: simulator device %s has no listen address", d.Name)
		}
		if _, err := ParseClass(d.Class); err != nil {
			return nil, fmt.Errorf("simulator device %s: %w", d.Name, err)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("julabo: duplicate simulator device %s", d.Name)
		}
		seen[d.Name] = struct{}{}
	}

	return &cfg, nil
}

// Build creates the bath described by d.
func (d DeviceConfig) Build(l logger.Logger) (*Bath, error) {
	class, err := ParseClass(d.Class)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithFlowControlNoise(d.FlowControlNoise), WithRegisters(d.Registers)}
	if l != nil {
		opts = append(opts, WithLogger(l))
	}

	return NewBath(d.Name, class, opts...)
}

// StartAll builds and starts a server per device. On error, servers already
// started are closed.
func (cfg *Config) StartAll(ctx context.Context, l logger.Logger) ([]*Server, error) {
	servers := make([]*Server, 0, len(cfg.Devices))

	for _, d := range cfg.Devices {
		bath, err := d.Build(l)
		if err != nil {
			closeAll(servers)
			return nil, err
		}

		srv := NewServer(bath, d.Listen)
		if err := srv.Start(ctx); err != nil {
			closeAll(servers)
			return nil, err
		}
		servers = append(servers, srv)
	}

	return servers, nil
}

func closeAll(servers []*Server) {
	for _, s := range servers {
		_ = s.Close()
	}
}
