package vacontext

import (
	"fmt"
	"os"

	"github.com/xaionaro-go/vacontext/va"
	"gopkg.in/yaml.v3"
)

// Config describes a set of contexts to provision on a display.
type Config struct {
	Device     string            `json:"device,omitempty"      yaml:"device,omitempty"`
	Contexts   []ContextConfig   `json:"contexts,omitempty"    yaml:"contexts,omitempty"`
	FakeDriver *FakeDriverConfig `json:"fake_driver,omitempty" yaml:"fake_driver,omitempty"`
}

type ContextConfig struct {
	Name       string       `json:"name,omitempty"       yaml:"name,omitempty"`
	Descriptor Descriptor   `json:"descriptor"           yaml:"descriptor"`
	Resets     []Descriptor `json:"resets,omitempty"     yaml:"resets,omitempty"`
	Attributes []string     `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// FakeDriverConfig declares the capabilities of the in-memory driver used
// when no real display is available.
type FakeDriverConfig struct {
	Capabilities []FakeCapability `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

type FakeCapability struct {
	Profile      Profile       `json:"profile"                 yaml:"profile"`
	EntryPoint   EntryPoint    `json:"entry_point"             yaml:"entry_point"`
	RTFormat     uint32        `json:"rt_format,omitempty"     yaml:"rt_format,omitempty"`
	RateControls []RateControl `json:"rate_controls,omitempty" yaml:"rate_controls,omitempty"`
}

// Attributes returns the attribute values the capability stands for.
func (c FakeCapability) Attributes() map[va.ConfigAttribType]uint32 {
	rtFormat := c.RTFormat
	if rtFormat == 0 {
		rtFormat = va.RTFormatYUV420
	}
	result := map[va.ConfigAttribType]uint32{
		va.ConfigAttribRTFormat: rtFormat,
	}
	if len(c.RateControls) > 0 {
		result[va.ConfigAttribRateControl] = RateControlMask(c.RateControls...)
	}
	return result
}

// ParseConfig parses a YAML document and validates every descriptor in it.
func ParseConfig(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("unable to un-YAML-ize the config: %w", err)
	}
	for idx, c := range cfg.Contexts {
		if err := c.Descriptor.Validate(); err != nil {
			return nil, fmt.Errorf("context #%d ('%s'): %w", idx, c.Name, err)
		}
		for resetIdx, d := range c.Resets {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("context #%d ('%s'), reset #%d: %w", idx, c.Name, resetIdx, err)
			}
		}
		for _, attrName := range c.Attributes {
			if _, err := va.ParseConfigAttribType(attrName); err != nil {
				return nil, fmt.Errorf("context #%d ('%s'): %w", idx, c.Name, err)
			}
		}
	}
	return &cfg, nil
}

// ReadConfig reads and parses the config file.
func ReadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read '%s': %w", path, err)
	}
	return ParseConfig(b)
}

func (cfg Config) Bytes() ([]byte, error) {
	return yaml.Marshal(cfg)
}
