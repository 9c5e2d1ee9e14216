package app

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
)

// GenInitOptions produces the app state of a development chain. The
// policy owner and the domain administrator are the address given as the
// first argument. When no address is given, a new key is generated and
// its secret is printed.
func GenInitOptions(args []string) (json.RawMessage, error) {
	var admin keyward.Address
	if len(args) > 0 {
		raw, err := hex.DecodeString(args[0])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "address %q: %s", args[0], err)
		}
		admin = keyward.Address(raw)
		if err := admin.Validate(); err != nil {
			return nil, err
		}
	} else {
		key := crypto.GenPrivKey()
		admin = key.PublicKey().Address()
		fmt.Printf("generated admin key %X\n", key.Bytes())
	}

	state := map[string]interface{}{
		"conf": map[string]interface{}{
			"keyward": map[string]interface{}{
				"owner":        admin,
				"domain_admin": admin,
			},
		},
		"vaults":  []interface{}{},
		"domains": []interface{}{},
	}
	return json.MarshalIndent(state, "", "  ")
}
