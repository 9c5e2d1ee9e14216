package sigs

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
)

// BucketName is where we store the accounts
const BucketName = "sigs"

// UserData holds the replay protection state of a single signer.
type UserData struct {
	// PubKey is the compressed public key of the signer, learned from the
	// first signature it produced.
	PubKey []byte `json:"pubkey"`
	// Sequence is the nonce the next signature of this user must use.
	Sequence int64 `json:"sequence"`
}

var _ orm.Model = (*UserData)(nil)

func (u *UserData) Marshal() ([]byte, error) {
	return codec.Marshal(u)
}

func (u *UserData) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, u)
}

func (u *UserData) Validate() error {
	var errs error
	if seq := u.Sequence; seq < 0 {
		errs = errors.AppendField(errs, "Sequence", ErrInvalidSequence)
	} else if seq > 0 && len(u.PubKey) == 0 {
		errs = errors.Append(errs, errors.Field("Sequence", ErrInvalidSequence, "needs PubKey"))
	}
	if len(u.PubKey) != 0 {
		if _, err := crypto.ParsePublicKey(u.PubKey); err != nil {
			errs = errors.AppendField(errs, "PubKey", err)
		}
	}
	return errs
}

// CheckAndIncrementSequence implements check and increment operation.
// If current sequence value is the same as given expected value then it is
// incremented. Otherwise an error is returned.
func (u *UserData) CheckAndIncrementSequence(expected int64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", u.Sequence, expected)
	}

	// Clients encode the nonce as a JSON number.
	//   Number.MAX_SAFE_INTEGER = 2^53 - 1
	const maxSequenceValue = (1 << 53) - 1
	next := u.Sequence + 1
	if next <= 0 || next > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence = next
	return nil
}

// SetPubKey records the key of the user. It is illegal to change a key once
// it was set.
func (u *UserData) SetPubKey(pub *crypto.PublicKey) error {
	raw := pub.Bytes()
	if len(u.PubKey) != 0 {
		if string(u.PubKey) != string(raw) {
			return errors.Wrap(errors.ErrImmutable, "public key")
		}
		return nil
	}
	u.PubKey = raw
	return nil
}

// AsUser will safely type-cast any value from Bucket to a UserData
func AsUser(obj orm.Object) *UserData {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*UserData)
}

// NewUser constructs an object stored under the signer address.
func NewUser(addr keyward.Address) orm.Object {
	return NewUserWith(addr, &UserData{})
}

// NewUserWith wraps existing user data into an object.
func NewUserWith(addr keyward.Address, u *UserData) orm.Object {
	return orm.NewSimpleObj(addr, u)
}

// Bucket extends orm.Bucket with GetOrCreate
type Bucket struct {
	orm.Bucket
}

// NewBucket creates the proper bucket for this extension
func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(BucketName, NewUser(nil)),
	}
}

// GetOrCreate initializes a UserData if none exist for that address
func (b Bucket) GetOrCreate(db keyward.ReadOnlyKVStore, addr keyward.Address) (orm.Object, error) {
	obj, err := b.Get(db, addr)
	if err == nil && obj == nil {
		obj = NewUser(addr)
	}
	return obj, err
}
