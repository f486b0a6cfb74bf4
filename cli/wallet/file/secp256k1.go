package file

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	bip39 "github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"

	"github.com/scrtlabs/secret-sdk-go/crypto/enigma"
	sdkSignature "github.com/scrtlabs/secret-sdk-go/crypto/signature"
	"github.com/scrtlabs/secret-sdk-go/crypto/signature/secp256k1"
)

const (
	// CoinType is the BIP-44 coin type of Secret Network.
	CoinType = 529

	encryptionSeedInfo = "secret-sdk/tx-encryption-seed"
)

// Bip44DerivationPath returns the BIP-44 path of the key with the given number.
func Bip44DerivationPath(number uint32) string {
	return fmt.Sprintf("m/44'/%d'/0'/0/%d", CoinType, number)
}

func secp256k1KeyFromMnemonic(mnemonic string, number uint32) ([]byte, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mnemonic: %w", err)
	}
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}

	for _, index := range []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + CoinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
		number,
	} {
		if key, err = key.Derive(index); err != nil {
			return nil, fmt.Errorf("failed to derive key from mnemonic: %w", err)
		}
	}

	pk, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain generated private key: %w", err)
	}
	return pk.Serialize(), nil
}

func secp256k1KeyFromHex(text string) ([]byte, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "0x")
	data, err := hex.DecodeString(text)
	if err != nil {
		return nil, err
	}
	if len(data) != secp256k1.PrivateKeySize {
		return nil, fmt.Errorf("malformed private key: expected %d bytes, got %d", secp256k1.PrivateKeySize, len(data))
	}
	return data, nil
}

// Secp256k1FromMnemonic derives a signer using BIP-44 from given mnemonic.
func Secp256k1FromMnemonic(mnemonic string, number uint32) (sdkSignature.Signer, error) {
	pk, err := secp256k1KeyFromMnemonic(mnemonic, number)
	if err != nil {
		return nil, err
	}
	return secp256k1.NewSigner(pk), nil
}

// Secp256k1FromHex creates a signer from given hex-encoded private key.
func Secp256k1FromHex(text string) (sdkSignature.Signer, error) {
	pk, err := secp256k1KeyFromHex(text)
	if err != nil {
		return nil, err
	}
	return secp256k1.NewSigner(pk), nil
}

// EncryptionSeedFromKey derives the transaction encryption seed bound to a private key.
func EncryptionSeedFromKey(privateKey []byte) ([]byte, error) {
	seed := make([]byte, enigma.SeedSize)
	r := hkdf.New(sha256.New, privateKey, nil, []byte(encryptionSeedInfo))
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("failed to derive encryption seed: %w", err)
	}
	return seed, nil
}
