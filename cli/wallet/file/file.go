// Package file implements wallets whose secret state is kept in passphrase protected files.
package file

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	bip39 "github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/argon2"

	"github.com/oasisprotocol/deoxysii"

	"github.com/scrtlabs/secret-sdk-go/cli/wallet"
	"github.com/scrtlabs/secret-sdk-go/crypto/signature"
	"github.com/scrtlabs/secret-sdk-go/crypto/signature/secp256k1"
	"github.com/scrtlabs/secret-sdk-go/types"
)

const (
	// Kind is the wallet kind for the file-backed wallets.
	Kind = "file"

	stateKeySize   = 32
	stateNonceSize = 32
	kdfSaltSize    = 32
)

// ErrWrongPassphrase is the error returned when the wallet state cannot be opened.
var ErrWrongPassphrase = errors.New("failed to open wallet state (maybe incorrect passphrase?)")

// Config is the configuration of a file-backed wallet.
type Config struct {
	Algorithm string `mapstructure:"algorithm"`
	Number    uint32 `mapstructure:"number,omitempty"`
}

// ConfigFromMap decodes a configuration stored in the CLI config file.
func ConfigFromMap(raw map[string]interface{}) (*Config, error) {
	if raw == nil {
		return nil, fmt.Errorf("missing configuration")
	}

	var cfg Config
	if err := mapstructure.Decode(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, cfg.Validate()
}

// ToMap encodes the configuration for storing in the CLI config file.
func (c *Config) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"algorithm": c.Algorithm,
		"number":    c.Number,
	}
}

// Validate performs config validation.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case wallet.AlgorithmSecp256k1Bip44, wallet.AlgorithmSecp256k1Raw:
		return nil
	default:
		return fmt.Errorf("algorithm '%s' not supported", c.Algorithm)
	}
}

// PrettyKind returns a human-friendly kind of the wallet.
func (c *Config) PrettyKind() string {
	if c.Algorithm == wallet.AlgorithmSecp256k1Bip44 {
		return fmt.Sprintf("%s (%s:%d)", Kind, c.Algorithm, c.Number)
	}
	return fmt.Sprintf("%s (%s)", Kind, c.Algorithm)
}

type secretState struct {
	// Algorithm is the cryptographic algorithm used by the wallet.
	Algorithm string `json:"algorithm"`

	// Data is the secret data used to derive the private key.
	Data string `json:"data"`
}

func (s *secretState) Seal(passphrase string) (*secretStateEnvelope, error) {
	var nonce [stateNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	var salt [kdfSaltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}

	envelope := &secretStateEnvelope{
		KDF: secretStateKDF{
			Argon2: &kdfArgon2{
				Salt:    salt[:],
				Time:    1,
				Memory:  64 * 1024,
				Threads: 4,
			},
		},
		Nonce: nonce[:],
	}
	key, err := envelope.deriveKey(passphrase)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	aead, err := deoxysii.New(key)
	if err != nil {
		return nil, err
	}
	envelope.Data = aead.Seal(nil, envelope.Nonce[:aead.NonceSize()], data, nil)

	return envelope, nil
}

type secretStateEnvelope struct {
	KDF   secretStateKDF `json:"kdf"`
	Nonce []byte         `json:"nonce"`
	Data  []byte         `json:"data"`
}

type secretStateKDF struct {
	Argon2 *kdfArgon2 `json:"argon2,omitempty"`
}

type kdfArgon2 struct {
	Salt    []byte `json:"salt"`
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
}

func (k *kdfArgon2) deriveKey(passphrase string) []byte {
	return argon2.IDKey([]byte(passphrase), k.Salt, k.Time, k.Memory, k.Threads, stateKeySize)
}

func (e *secretStateEnvelope) deriveKey(passphrase string) ([]byte, error) {
	switch {
	case e.KDF.Argon2 != nil:
		return e.KDF.Argon2.deriveKey(passphrase), nil
	default:
		return nil, fmt.Errorf("unsupported key derivation algorithm")
	}
}

func (e *secretStateEnvelope) Open(passphrase string) (*secretState, error) {
	key, err := e.deriveKey(passphrase)
	if err != nil {
		return nil, err
	}

	aead, err := deoxysii.New(key)
	if err != nil {
		return nil, err
	}
	if len(e.Nonce) < aead.NonceSize() {
		return nil, fmt.Errorf("malformed nonce")
	}
	pt, err := aead.Open(nil, e.Nonce[:aead.NonceSize()], e.Data, nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}

	var state secretState
	if err := json.Unmarshal(pt, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// Store keeps wallet files in a directory.
type Store struct {
	dir string
}

// NewStore creates a store keeping wallet files in the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) filename(name string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.wallet", name))
}

// Exists returns true iff a wallet file with the given name exists.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.filename(name))
	return err == nil
}

// Create generates a new mnemonic and stores it under the given name.
func (s *Store) Create(name string, passphrase string, cfg *Config) (wallet.Wallet, error) {
	if cfg.Algorithm != wallet.AlgorithmSecp256k1Bip44 {
		return nil, fmt.Errorf("algorithm '%s' does not support generating new keys", cfg.Algorithm)
	}

	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	state := &secretState{
		Algorithm: cfg.Algorithm,
		Data:      mnemonic,
	}

	w, err := newWallet(state, cfg)
	if err != nil {
		return nil, err
	}
	if err = s.save(name, passphrase, state); err != nil {
		return nil, err
	}
	return w, nil
}

// Import stores imported key material under the given name.
func (s *Store) Import(name string, passphrase string, cfg *Config, src *wallet.ImportSource) (wallet.Wallet, error) {
	switch src.Kind {
	case wallet.ImportKindMnemonic:
		if cfg.Algorithm != wallet.AlgorithmSecp256k1Bip44 {
			return nil, fmt.Errorf("algorithm '%s' does not support import from mnemonic", cfg.Algorithm)
		}
	case wallet.ImportKindPrivateKey:
		if cfg.Algorithm != wallet.AlgorithmSecp256k1Raw {
			return nil, fmt.Errorf("algorithm '%s' does not support import from private key", cfg.Algorithm)
		}
	default:
		return nil, fmt.Errorf("unsupported import kind: %s", src.Kind)
	}

	state := &secretState{
		Algorithm: cfg.Algorithm,
		Data:      src.Data,
	}
	w, err := newWallet(state, cfg)
	if err != nil {
		return nil, err
	}
	if err = s.save(name, passphrase, state); err != nil {
		return nil, err
	}
	return w, nil
}

// Load opens the wallet stored under the given name.
func (s *Store) Load(name string, passphrase string, cfg *Config) (wallet.Wallet, error) {
	raw, err := os.ReadFile(s.filename(name))
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet state: %w", err)
	}

	var envelope secretStateEnvelope
	if err = json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to load wallet state: %w", err)
	}

	state, err := envelope.Open(passphrase)
	if err != nil {
		return nil, err
	}
	return newWallet(state, cfg)
}

// Remove removes the wallet file with the given name.
func (s *Store) Remove(name string) error {
	return os.Remove(s.filename(name))
}

// Rename renames the wallet file with the given name.
func (s *Store) Rename(old, new string) error {
	return os.Rename(s.filename(old), s.filename(new))
}

func (s *Store) save(name, passphrase string, state *secretState) error {
	envelope, err := state.Seal(passphrase)
	if err != nil {
		return fmt.Errorf("failed to seal state: %w", err)
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if err = os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create wallet directory: %w", err)
	}
	if err = os.WriteFile(s.filename(name), raw, 0o600); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

type fileWallet struct {
	state   *secretState
	signer  signature.Signer
	address types.Address
	encSeed []byte
}

func newWallet(state *secretState, cfg *Config) (wallet.Wallet, error) {
	var (
		pk  []byte
		err error
	)
	switch state.Algorithm {
	case wallet.AlgorithmSecp256k1Bip44:
		pk, err = secp256k1KeyFromMnemonic(state.Data, cfg.Number)
	case wallet.AlgorithmSecp256k1Raw:
		pk, err = secp256k1KeyFromHex(state.Data)
	default:
		return nil, fmt.Errorf("algorithm '%s' not supported", state.Algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signer: %w", err)
	}

	encSeed, err := EncryptionSeedFromKey(pk)
	if err != nil {
		return nil, err
	}
	signer := secp256k1.NewSigner(pk)
	return &fileWallet{
		state:   state,
		signer:  signer,
		address: types.NewAddress(signer.Public().(secp256k1.PublicKey)),
		encSeed: encSeed,
	}, nil
}

func (w *fileWallet) Signer() signature.Signer {
	return w.signer
}

func (w *fileWallet) Address() types.Address {
	return w.address
}

func (w *fileWallet) EncryptionSeed() []byte {
	return append([]byte(nil), w.encSeed...)
}

func (w *fileWallet) UnsafeExport() string {
	return w.state.Data
}

// FromMnemonic creates an unsaved wallet from a mnemonic.
func FromMnemonic(mnemonic string, number uint32) (wallet.Wallet, error) {
	return newWallet(
		&secretState{Algorithm: wallet.AlgorithmSecp256k1Bip44, Data: mnemonic},
		&Config{Algorithm: wallet.AlgorithmSecp256k1Bip44, Number: number},
	)
}
