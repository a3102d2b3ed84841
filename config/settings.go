package config

import (
	"fmt"

	"github.com/loomworks/authcore/logger"
	"github.com/loomworks/authcore/ratelimit"
	"github.com/loomworks/authcore/redis"
	"github.com/loomworks/authcore/session"
	"github.com/loomworks/authcore/token"
	"github.com/loomworks/authcore/validation"
)

// Settings is the complete configuration of the authentication core.
// Embedding services load it once and hand the sub-configs to the
// corresponding constructors.
type Settings struct {
	Name        string `yaml:"name" mapstructure:"name" json:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" json:"environment" validate:"omitempty,oneof=development staging production"`
	Debug       bool   `yaml:"debug" mapstructure:"debug" json:"debug"`

	Logging   logger.Config    `yaml:"logging" mapstructure:"logging" json:"logging"`
	Token     token.Config     `yaml:"token" mapstructure:"token" json:"token"`
	Session   session.Config   `yaml:"session" mapstructure:"session" json:"session"`
	RateLimit ratelimit.Config `yaml:"ratelimit" mapstructure:"ratelimit" json:"ratelimit"`
	Redis     redis.Config     `yaml:"redis" mapstructure:"redis" json:"redis"`
}

// ApplyDefaults fills every section's zero values.
func (s *Settings) ApplyDefaults() {
	if s.Environment == "" {
		s.Environment = "development"
	}
	if s.Environment == "development" {
		s.Debug = true
	}
	s.Logging.ApplyDefaults()
	s.Token.ApplyDefaults()
	s.Session.ApplyDefaults()
	s.RateLimit.ApplyDefaults()
	s.Redis.ApplyDefaults()
}

// Validate checks the whole settings tree and reports the first failing
// section.
func (s *Settings) Validate() error {
	if err := validation.Validate(s); err != nil {
		return err
	}
	if err := s.Logging.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := s.Token.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := s.Session.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := s.RateLimit.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := s.Redis.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LoadSettings loads, defaults, and validates the core's settings.
func LoadSettings(serviceName string, opts ...LoaderOption) (*Settings, error) {
	settings := &Settings{}
	if err := Load(serviceName, settings, opts...); err != nil {
		return nil, err
	}
	if settings.Name == "" {
		settings.Name = serviceName
	}
	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
