package config

import (
	"fmt"
	"net/url"
)

// Networks contains the configuration of supported networks.
type Networks struct {
	// Default is the name of the default network.
	Default string `mapstructure:"default"`

	// All is a map of all configured networks.
	All map[string]*Network `mapstructure:",remain"`
}

// Validate performs config validation.
func (n *Networks) Validate() error {
	if _, exists := n.All[n.Default]; n.Default != "" && !exists {
		return fmt.Errorf("default network '%s' does not exist", n.Default)
	}

	for name, net := range n.All {
		if err := ValidateIdentifier(name); err != nil {
			return fmt.Errorf("malformed network name '%s': %w", name, err)
		}

		if err := net.Validate(); err != nil {
			return fmt.Errorf("network '%s': %w", name, err)
		}
	}

	return nil
}

// Add adds a new network. The first network added becomes the default.
func (n *Networks) Add(name string, net *Network) error {
	if _, exists := n.All[name]; exists {
		return fmt.Errorf("network '%s' already exists", name)
	}

	if err := ValidateIdentifier(name); err != nil {
		return fmt.Errorf("malformed network name '%s': %w", name, err)
	}

	if err := net.Validate(); err != nil {
		return err
	}

	if n.All == nil {
		n.All = make(map[string]*Network)
	}
	n.All[name] = net

	if n.Default == "" {
		n.Default = name
	}

	return nil
}

// Remove removes an existing network.
func (n *Networks) Remove(name string) error {
	if _, exists := n.All[name]; !exists {
		return fmt.Errorf("network '%s' does not exist", name)
	}

	delete(n.All, name)

	if n.Default == name {
		n.Default = ""
	}

	return nil
}

// SetDefault sets the given network as the default one.
func (n *Networks) SetDefault(name string) error {
	if _, exists := n.All[name]; !exists {
		return fmt.Errorf("network '%s' does not exist", name)
	}

	n.Default = name

	return nil
}

// Network contains the configuration parameters of a network.
type Network struct {
	Description string `mapstructure:"description"`
	ChainID     string `mapstructure:"chain_id"`
	// LCD is the base URL of a node's REST API.
	LCD string `mapstructure:"lcd"`

	Denomination DenominationInfo `mapstructure:"denomination"`
}

// Validate performs config validation.
func (n *Network) Validate() error {
	if n.ChainID == "" {
		return fmt.Errorf("chain id must not be empty")
	}

	u, err := url.Parse(n.LCD)
	if err != nil {
		return fmt.Errorf("malformed LCD endpoint: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("malformed LCD endpoint: unsupported scheme '%s'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("malformed LCD endpoint: missing host")
	}

	return n.Denomination.Validate()
}
