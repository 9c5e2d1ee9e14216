package keyward

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/keyward/keyward/crypto/bech32"
	"github.com/keyward/keyward/errors"
)

var (
	// AddressLength is the length of all addresses
	// You can modify it in init() before any addresses are calculated,
	// but it must not change during the lifetime of the kvstore
	AddressLength = 20

	// it must have (?s) flags, otherwise it errors when last section contains 0x20 (newline)
	perm = regexp.MustCompile(`(?s)^([a-zA-Z0-9_\-]{3,8})/([a-zA-Z0-9_\-]{3,8})/(.+)$`)
)

const (
	accountExt  = "sigs"
	accountType = "account"
)

// Condition is a specially formatted array, containing
// information on who can authorize an action.
// It is of the format:
//
//	sprintf("%s/%s/%s", extension, type, data)
type Condition []byte

func NewCondition(ext, typ string, data []byte) Condition {
	pre := fmt.Sprintf("%s/%s/", ext, typ)
	return append([]byte(pre), data...)
}

// AccountCondition returns the condition granted to the holder of the key
// behind given account address. Account conditions resolve to the very same
// address, so that a guardian is identified by the same value on every
// domain.
func AccountCondition(addr Address) Condition {
	return NewCondition(accountExt, accountType, addr)
}

// Parse will extract the sections from the Condition bytes
// and verify it is properly formatted
func (c Condition) Parse() (string, string, []byte, error) {
	chunks := perm.FindSubmatch(c)
	if len(chunks) == 0 {
		return "", "", nil, errors.ErrInput.Newf("condition: %X", []byte(c))
	}
	// returns [all, match1, match2, match3]
	return string(chunks[1]), string(chunks[2]), chunks[3], nil
}

// Address will convert a Condition into an Address. Account conditions
// return the wrapped account address, any other condition is hashed.
func (c Condition) Address() Address {
	if c == nil {
		return nil
	}
	ext, typ, data, err := c.Parse()
	if err == nil && ext == accountExt && typ == accountType && len(data) == AddressLength {
		return Address(data)
	}
	return NewAddress(c)
}

// Equals checks if two permissions are the same
func (c Condition) Equals(b Condition) bool {
	return bytes.Equal(c, b)
}

// String returns a human readable string.
// We keep the extension and type in ascii and
// hex-encode the binary data
func (c Condition) String() string {
	ext, typ, data, err := c.Parse()
	if err != nil {
		return fmt.Sprintf("Invalid Condition: %X", []byte(c))
	}
	return fmt.Sprintf("%s/%s/%X", ext, typ, data)
}

// Validate returns an error if the Condition is not the proper format
func (c Condition) Validate() error {
	if !perm.Match(c) {
		return errors.ErrInput.Newf("condition: %X", []byte(c))
	}
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	var serialized string
	if c != nil {
		serialized = c.String()
	}
	return json.Marshal(serialized)
}

func (c *Condition) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(err, "cannot decode json")
	}
	return c.deserialize(enc)
}

// deserialize from human readable string.
func (c *Condition) deserialize(source string) error {
	// No value zero the address.
	if len(source) == 0 {
		*c = nil
		return nil
	}

	args := strings.Split(source, "/")
	if len(args) != 3 {
		return errors.ErrInput.Newf("invalid condition format")
	}
	data, err := hex.DecodeString(args[2])
	if err != nil {
		return errors.ErrInput.Newf("malformed condition data: %s", err)
	}
	*c = NewCondition(args[0], args[1], data)
	return nil
}

// Address identifies an account or a vault owner. It is AddressLength
// bytes long: either an account public key digest or the hash of a
// Condition.
type Address []byte

func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

// MarshalJSON encodes the address as upper case hex.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(hex.EncodeToString(a)))
}

// UnmarshalJSON accepts plain hex, optionally 0x prefixed, as well as the
// "cond:<condition>" and "bech32:<address>" forms. An empty string is a
// nil address.
func (a *Address) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(errors.ErrInput, "address must be a string")
	}
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress decodes the text forms accepted by Address.UnmarshalJSON.
func ParseAddress(enc string) (Address, error) {
	format, value := "hex", enc
	if i := strings.IndexByte(enc, ':'); i >= 0 {
		format, value = enc[:i], enc[i+1:]
	}
	if value == "" {
		return nil, nil
	}

	var addr Address
	switch format {
	case "hex":
		bin, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
		if err != nil {
			return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
		}
		addr = bin
	case "cond":
		var c Condition
		if err := c.deserialize(value); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c.Address(), nil
	case "bech32":
		_, payload, err := bech32.Decode(value)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "bech32: %s", err)
		}
		addr = payload
	default:
		return nil, errors.ErrType.Newf("unknown format %q", format)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}

func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return strings.ToUpper(hex.EncodeToString(a))
}

// Bech32String encodes the address with the human readable prefix hrp.
func (a Address) Bech32String(hrp string) (string, error) {
	raw, err := bech32.Encode(hrp, a)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Validate requires the address to be AddressLength bytes long.
func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.ErrInput.Newf("address: %v", a)
	}
	return nil
}

// NewAddress hashes data into an address. It does not accept raw
// addresses, use ParseAddress or a conversion for those.
func NewAddress(data []byte) Address {
	if data == nil {
		return nil
	}
	h := sha256.Sum256(data)
	return h[:AddressLength]
}
