// Package netparams resolves the backup document's network tag to a
// chaincfg.Params and validates addresses against it, per the Address &
// Network component.
package netparams

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// Resolve maps a backup's network tag to the consensus network it names.
// "mainnet" and "bitcoin" collapse to the same network; the other three
// tags are distinct. Unknown tags are a programming/input error; the facade
// reports them as InvalidBackup for a backup's tag and as InvalidAddress in
// ValidateAddress.
func Resolve(tag string) (*chaincfg.Params, error) {
	switch tag {
	case "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network tag %q", tag)
	}
}

// Tag is the inverse of Resolve, used when reporting a reconstructed
// vault's network back out through VaultInfo.
func Tag(params *chaincfg.Params) string {
	switch params.Name {
	case chaincfg.MainNetParams.Name:
		return "bitcoin"
	case chaincfg.TestNet3Params.Name:
		return "testnet"
	case chaincfg.SigNetParams.Name:
		return "signet"
	case chaincfg.RegressionNetParams.Name:
		return "regtest"
	default:
		return params.Name
	}
}

// ValidateAddress parses addr and reports whether it decodes to a network
// matching params. A syntactic parse failure is reported via the returned
// error (callers classify it as InvalidAddress); a successful parse against
// the wrong network returns (false, nil), never an error.
func ValidateAddress(addr string, params *chaincfg.Params) (bool, error) {
	parsed, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return false, fmt.Errorf("invalid address %q: %w", addr, err)
	}

	return parsed.IsForNet(params), nil
}

// ParseAddressForNet parses addr and requires it to already be valid for
// params, returning InvalidAddress-shaped failure information via a plain
// error otherwise (the caller decides the mismatch error's tag).
func ParseAddressForNet(addr string, params *chaincfg.Params) (btcutil.Address,
	error) {

	parsed, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", addr, err)
	}

	if !parsed.IsForNet(params) {
		return nil, fmt.Errorf("address %q is not valid for network %q",
			addr, params.Name)
	}

	return parsed, nil
}
