package config

import (
	"fmt"

	"github.com/scrtlabs/secret-sdk-go/cli/wallet"
	"github.com/scrtlabs/secret-sdk-go/cli/wallet/file"
	"github.com/scrtlabs/secret-sdk-go/config"
	"github.com/scrtlabs/secret-sdk-go/types"
)

// Wallets contains the configuration of wallets.
type Wallets struct {
	dir string

	// Default is the name of the default wallet.
	Default string `mapstructure:"default"`

	// All is a map of all configured wallets.
	All map[string]*Wallet `mapstructure:",remain"`
}

// NewWallets creates an empty wallet configuration keeping wallet files in the given directory.
func NewWallets(dir string) Wallets {
	return Wallets{dir: dir}
}

func (w *Wallets) store() *file.Store {
	if w.dir == "" {
		w.dir = WalletDirectory()
	}
	return file.NewStore(w.dir)
}

// Validate performs config validation.
func (w *Wallets) Validate() error {
	if _, exists := w.All[w.Default]; w.Default != "" && !exists {
		return fmt.Errorf("default wallet '%s' does not exist", w.Default)
	}

	for name, wl := range w.All {
		if err := config.ValidateIdentifier(name); err != nil {
			return fmt.Errorf("malformed wallet name '%s': %w", name, err)
		}

		if err := wl.Validate(); err != nil {
			return fmt.Errorf("wallet '%s': %w", name, err)
		}
	}

	return nil
}

func (w *Wallets) checkNew(name string) error {
	if _, exists := w.All[name]; exists {
		return fmt.Errorf("wallet '%s' already exists", name)
	}
	if err := config.ValidateIdentifier(name); err != nil {
		return fmt.Errorf("malformed wallet name '%s': %w", name, err)
	}
	if w.store().Exists(name) {
		return fmt.Errorf("wallet file for '%s' already exists", name)
	}
	return nil
}

func (w *Wallets) add(name string, nw *Wallet, wl wallet.Wallet) {
	// Store the address so that it can be shown without unlocking the wallet.
	nw.Address = wl.Address().String()

	if w.All == nil {
		w.All = make(map[string]*Wallet)
	}
	w.All[name] = nw

	if w.Default == "" {
		w.Default = name
	}
}

// Create creates a new wallet with a freshly generated mnemonic.
func (w *Wallets) Create(name string, passphrase string, nw *Wallet) error {
	if err := w.checkNew(name); err != nil {
		return err
	}

	cfg, err := nw.FileConfig()
	if err != nil {
		return err
	}
	wl, err := w.store().Create(name, passphrase, cfg)
	if err != nil {
		return err
	}
	w.add(name, nw, wl)

	return nil
}

// Import imports an existing wallet.
func (w *Wallets) Import(name string, passphrase string, nw *Wallet, src *wallet.ImportSource) error {
	if err := w.checkNew(name); err != nil {
		return err
	}

	cfg, err := nw.FileConfig()
	if err != nil {
		return err
	}
	wl, err := w.store().Import(name, passphrase, cfg, src)
	if err != nil {
		return err
	}
	w.add(name, nw, wl)

	return nil
}

// Load loads the given wallet.
func (w *Wallets) Load(name string, passphrase string) (wallet.Wallet, error) {
	wcfg, exists := w.All[name]
	if !exists {
		return nil, fmt.Errorf("wallet '%s' does not exist", name)
	}

	cfg, err := wcfg.FileConfig()
	if err != nil {
		return nil, err
	}
	wl, err := w.store().Load(name, passphrase, cfg)
	if err != nil {
		return nil, err
	}

	if expected, actual := wcfg.GetAddress(), wl.Address(); !actual.Equal(expected) {
		return nil, fmt.Errorf("address mismatch after loading wallet (expected: %s got: %s)",
			expected,
			actual,
		)
	}

	return wl, nil
}

// Remove removes the given wallet.
func (w *Wallets) Remove(name string) error {
	if _, exists := w.All[name]; !exists {
		return fmt.Errorf("wallet '%s' does not exist", name)
	}

	if err := w.store().Remove(name); err != nil {
		return err
	}
	delete(w.All, name)

	if w.Default == name {
		w.Default = ""
	}

	return nil
}

// Rename renames an existing wallet.
func (w *Wallets) Rename(old, new string) error {
	wcfg, exists := w.All[old]
	if !exists {
		return fmt.Errorf("wallet '%s' does not exist", old)
	}
	if err := w.checkNew(new); err != nil {
		return err
	}

	if err := w.store().Rename(old, new); err != nil {
		return err
	}
	w.All[new] = wcfg
	delete(w.All, old)

	if w.Default == old {
		w.Default = new
	}

	return nil
}

// SetDefault sets the given wallet as the default wallet.
func (w *Wallets) SetDefault(name string) error {
	if _, exists := w.All[name]; !exists {
		return fmt.Errorf("wallet '%s' does not exist", name)
	}

	w.Default = name

	return nil
}

// Wallet is a wallet configuration object.
type Wallet struct {
	Description string `mapstructure:"description"`
	Kind        string `mapstructure:"kind"`
	Address     string `mapstructure:"address"`

	// Config contains kind-specific configuration for this wallet.
	Config map[string]interface{} `mapstructure:",remain"`
}

// Validate performs config validation.
func (w *Wallet) Validate() error {
	if w.Kind != file.Kind {
		return fmt.Errorf("kind '%s' is not supported", w.Kind)
	}

	if _, err := types.ParseAddress(w.Address); err != nil {
		return fmt.Errorf("malformed address '%s': %w", w.Address, err)
	}

	if _, err := w.FileConfig(); err != nil {
		return err
	}

	return nil
}

// GetAddress returns the parsed wallet address.
func (w *Wallet) GetAddress() types.Address {
	address, err := types.ParseAddress(w.Address)
	if err != nil {
		panic(err)
	}
	return address
}

// FileConfig decodes the kind-specific configuration.
func (w *Wallet) FileConfig() (*file.Config, error) {
	return file.ConfigFromMap(w.Config)
}
