package gconf

import (
	"reflect"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/x"
	"github.com/tendermint/tendermint/libs/common"
)

// OwnedConfig is a configuration that declares its owner. A configuration
// update message must be signed by the owner in order to be authorized to
// apply the change.
type OwnedConfig interface {
	Unmarshaler
	ValidMarshaler
	GetOwner() keyward.Address
}

type UpdateConfigurationHandler struct {
	pkg string
	// We require this type to load the data.
	config    OwnedConfig
	auth      x.Authenticator
	initAdmin func(keyward.ReadOnlyKVStore) (keyward.Address, error)
	onUpdate  UpdateHook
}

// UpdateHook is called after a configuration change was delivered. It
// receives the address that authorized the change and returns tags to attach
// to the result.
type UpdateHook func(ctx keyward.Context, db keyward.KVStore, signer keyward.Address) ([]common.KVPair, error)

var _ keyward.Handler = (*UpdateConfigurationHandler)(nil)

// NewUpdateConfigurationHandler returns a message handler that process
// configuration patch message.
//
// To pass authentication step, each message must be signed by the current
// configuration owner.
//
// When the configuration does not exist yet, `initConfAdmin` (if given)
// provides the address allowed to create it. Once a configuration is created,
// only its owner can change it.
func NewUpdateConfigurationHandler(
	pkg string,
	config OwnedConfig,
	auth x.Authenticator,
	initConfAdmin func(keyward.ReadOnlyKVStore) (keyward.Address, error),
) UpdateConfigurationHandler {
	return UpdateConfigurationHandler{
		pkg:       pkg,
		config:    config,
		auth:      auth,
		initAdmin: initConfAdmin,
	}
}

// WithUpdateHook returns a handler that calls hook after every delivered
// change.
func (h UpdateConfigurationHandler) WithUpdateHook(hook UpdateHook) UpdateConfigurationHandler {
	h.onUpdate = hook
	return h
}

func (h UpdateConfigurationHandler) Check(ctx keyward.Context, store keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, err := h.applyTx(ctx, store, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h UpdateConfigurationHandler) Deliver(ctx keyward.Context, store keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	owner, err := h.applyTx(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	res := &keyward.DeliverResult{Log: h.pkg + " configuration updated"}
	if h.onUpdate != nil {
		tags, err := h.onUpdate(ctx, store, owner)
		if err != nil {
			return nil, err
		}
		res.Tags = tags
	}
	return res, nil
}

// applyTx patches the stored configuration and returns the address that
// authorized the change.
func (h UpdateConfigurationHandler) applyTx(ctx keyward.Context, store keyward.KVStore, tx keyward.Tx) (keyward.Address, error) {
	var signer keyward.Address
	// Do not carry state between calls.
	cfg := reflect.ValueOf(h.config).Elem()
	cfg.Set(reflect.Zero(cfg.Type()))

	switch err := Load(store, h.pkg, h.config); {
	case err == nil:
		// Configuration owner must sign the transaction in order to
		// authenticate the change.
		owner := h.config.GetOwner()
		if err := x.RequireSigners(ctx, h.auth, owner); err != nil {
			return nil, errors.Wrap(err, "configuration owner")
		}
		signer = owner
	case errors.ErrNotFound.Is(err):
		// Configuration was not created in genesis. It will be created
		// for the first time now.
		if h.initAdmin == nil {
			return nil, errors.Wrap(errors.ErrUnauthorized, "configuration does not exist and cannot be initialized")
		}
		admin, err := h.initAdmin(store)
		if err != nil {
			return nil, errors.Wrap(err, "get init admin")
		}
		if err := x.RequireSigners(ctx, h.auth, admin); err != nil {
			return nil, errors.Wrap(err, "initialization admin")
		}
		signer = admin
	default:
		return nil, errors.Wrap(err, "load current configuration")
	}

	payload, err := patchPayload(tx)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get message payload")
	}
	if err := patch(h.config, payload); err != nil {
		return nil, errors.Wrap(err, "cannot patch config with message payload")
	}

	if err := Save(store, h.pkg, h.config); err != nil {
		return nil, errors.Wrap(err, "cannot save updated config")
	}
	return signer, nil
}

func patch(config OwnedConfig, payload OwnedConfig) error {
	// We are guaranteed that config and payload are the same type from
	// patchPayload.
	pType := reflect.TypeOf(payload)
	cType := reflect.TypeOf(config)
	if !pType.ConvertibleTo(cType) {
		return errors.Wrap(errors.ErrMsg, "config in message doesn't match store")
	}

	cval := reflect.ValueOf(config).Elem()
	pval := reflect.ValueOf(payload).Elem()

	for i := 0; i < cval.NumField(); i++ {
		got := pval.Field(i)

		// Zero values do not update the original configuration.
		if isZero(got) {
			continue
		}

		cval.Field(i).Set(got)
	}

	return nil
}

// isZero returns true if given value represents a zero value of a given type.
func isZero(val reflect.Value) bool {
	zero := reflect.Zero(val.Type()).Interface()
	return reflect.DeepEqual(val.Interface(), zero)
}

// patchPayload expects the transaction to have a message with "Patch" field of
// the same type as the configuration. Content of this field is extracted and
// returned.
func patchPayload(tx keyward.Tx) (OwnedConfig, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}

	// validate message
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	// Try to do (*Configuration).Patch and get the interface behind.
	pval := reflect.ValueOf(msg)
	if pval.Kind() != reflect.Ptr || pval.Elem().Kind() != reflect.Struct {
		return nil, errors.Wrapf(errors.ErrInput, "invalid message container value: %T", msg)
	}
	val := pval.Elem()

	field := val.FieldByName("Patch")
	if !field.IsValid() || field.Kind() != reflect.Ptr {
		return nil, errors.Wrapf(errors.ErrInput, "no \"Patch\" field in %T", msg)
	}
	if field.IsNil() {
		return nil, errors.Wrap(errors.ErrState, `"Patch" field is required`)
	}
	payload, ok := field.Interface().(OwnedConfig)
	if !ok {
		return nil, errors.Wrap(errors.ErrInput, `"Patch" field is of a wrong type`)
	}
	return payload, nil
}
