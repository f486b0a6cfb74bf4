// Package config implements the CLI configuration file.
package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/scrtlabs/secret-sdk-go/config"
)

var global Config

// Directory returns the path to the configuration directory.
func Directory() string {
	return filepath.Join(xdg.ConfigHome, "secretcli")
}

// WalletDirectory returns the path to the directory holding wallet files.
func WalletDirectory() string {
	return filepath.Join(Directory(), "wallets")
}

// Global returns the global configuration structure.
func Global() *Config {
	return &global
}

// Load loads the global configuration structure from viper.
func Load(v *viper.Viper) error {
	return global.Load(v)
}

// Save saves the global configuration structure to viper.
func Save(v *viper.Viper) error {
	global.viper = v
	return global.Save()
}

// ResetDefaults resets the global configuration to defaults.
func ResetDefaults() {
	global = Default()
}

// Config contains the CLI configuration.
type Config struct {
	viper *viper.Viper

	Networks config.Networks `mapstructure:"networks"`
	Wallets  Wallets         `mapstructure:"wallets"`
}

// Load loads the configuration structure from viper.
func (cfg *Config) Load(v *viper.Viper) error {
	cfg.viper = v
	if err := v.Unmarshal(cfg); err != nil {
		return err
	}
	cfg.Wallets.dir = WalletDirectory()
	return nil
}

// encode converts structs into maps recursively, which mapstructure cannot do on its own.
func encode(in interface{}) (interface{}, error) {
	const tagName = "mapstructure"

	v := reflect.ValueOf(in)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		result := make(map[string]interface{})
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := t.Field(i)
			if field.PkgPath != "" {
				continue
			}

			name, opts, _ := strings.Cut(field.Tag.Get(tagName), ",")
			if name == "" {
				name = field.Name
			}

			value, err := encode(v.Field(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("failed to encode field '%s': %w", field.Name, err)
			}

			if !strings.Contains(opts, "remain") {
				result[name] = value
				continue
			}

			// Remaining fields are flattened into the parent.
			remaining, ok := value.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("field '%s' with remain attribute must convert to map[string]interface{}", field.Name)
			}
			for k, val := range remaining {
				if _, exists := result[k]; exists {
					return nil, fmt.Errorf("duplicate key '%s' when processing field '%s' with remain attribute", k, field.Name)
				}
				result[k] = val
			}
		}
		return result, nil
	case reflect.Map:
		result := make(map[string]interface{})
		iter := v.MapRange()
		for iter.Next() {
			k, ok := iter.Key().Interface().(string)
			if !ok {
				return nil, fmt.Errorf("can only convert maps with string keys")
			}

			value, err := encode(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			result[k] = value
		}
		return result, nil
	default:
		return v.Interface(), nil
	}
}

// Save saves the configuration structure to viper.
func (cfg *Config) Save() error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	encCfg, err := encode(cfg)
	if err != nil {
		return err
	}

	// Reset the current state as viper has no other way of removing keys.
	var buf bytes.Buffer
	_ = cfg.viper.ReadConfig(&buf)
	if err = cfg.viper.MergeConfigMap(encCfg.(map[string]interface{})); err != nil {
		return err
	}

	return cfg.viper.WriteConfig()
}

// Validate performs config validation.
func (cfg *Config) Validate() error {
	if err := cfg.Networks.Validate(); err != nil {
		return fmt.Errorf("failed to validate network configuration: %w", err)
	}
	if err := cfg.Wallets.Validate(); err != nil {
		return fmt.Errorf("failed to validate wallet configuration: %w", err)
	}
	return nil
}
