package evm

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"

	verifier "github.com/microai-paygate/verifier"
)

// WithKeystore signs with the key held in a Web3 Secret Storage file. When the
// file names an address, the decrypted key must derive that same address so a
// request is never signed as an account the operator did not pick.
func WithKeystore(keystorePath, password string) SignerOption {
	return func(s *Signer) error {
		data, err := os.ReadFile(keystorePath)
		if err != nil {
			return fmt.Errorf("%w: %v", verifier.ErrInvalidKeystore, err)
		}

		declared, err := keystoreAddress(data)
		if err != nil {
			return err
		}

		key, err := keystore.DecryptKey(data, password)
		if err != nil {
			return fmt.Errorf("%w: %v", verifier.ErrInvalidKeystore, err)
		}

		if declared != nil && *declared != key.Address {
			return fmt.Errorf("%w: file declares %s but key derives %s",
				verifier.ErrInvalidKeystore, declared.Hex(), key.Address.Hex())
		}

		s.privateKey = key.PrivateKey
		return nil
	}
}

// keystoreAddress returns the optional address member of a keystore file.
func keystoreAddress(data []byte) (*common.Address, error) {
	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON format", verifier.ErrInvalidKeystore)
	}
	if header.Address == "" {
		return nil, nil
	}
	if !common.IsHexAddress(header.Address) {
		return nil, fmt.Errorf("%w: bad address member %q", verifier.ErrInvalidKeystore, header.Address)
	}
	addr := common.HexToAddress(header.Address)
	return &addr, nil
}
