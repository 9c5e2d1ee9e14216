package keyward

import (
	"fmt"

	"github.com/keyward/keyward/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// DeliverResult is the outcome of a successfully delivered transaction.
// Failures are always reported as errors.
type DeliverResult struct {
	// Data is a machine readable return value, like the ID of a created
	// proposal.
	Data []byte
	Log  string
	// Tags are indexed by tendermint. Audit events are published as tags.
	Tags    []common.KVPair
	GasUsed int64
}

func (d DeliverResult) ToABCI() abci.ResponseDeliverTx {
	return abci.ResponseDeliverTx{
		Data:    d.Data,
		Log:     d.Log,
		Tags:    d.Tags,
		GasUsed: d.GasUsed,
	}
}

// CheckResult is the outcome of a successfully checked transaction.
type CheckResult struct {
	Data []byte
	Log  string
	// GasAllocated is the most work the transaction may perform.
	GasAllocated int64
}

// NewCheck returns a result with the allocated gas and a log message.
func NewCheck(gasAllocated int64, log string) *CheckResult {
	return &CheckResult{GasAllocated: gasAllocated, Log: log}
}

func (c CheckResult) ToABCI() abci.ResponseCheckTx {
	return abci.ResponseCheckTx{
		Data:      c.Data,
		Log:       c.Log,
		GasWanted: c.GasAllocated,
	}
}

// DeliverOrError builds the DeliverTx response from the handler output.
func DeliverOrError(result *DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		return DeliverTxError(err, debug)
	}
	return result.ToABCI()
}

// CheckOrError builds the CheckTx response from the handler output.
func CheckOrError(result *CheckResult, err error, debug bool) abci.ResponseCheckTx {
	if err != nil {
		return CheckTxError(err, debug)
	}
	return result.ToABCI()
}

// DeliverTxError reports err as a failed DeliverTx. Internal errors are
// redacted unless debug is set.
func DeliverTxError(err error, debug bool) abci.ResponseDeliverTx {
	code, log := responseInfo("deliver", err, debug)
	return abci.ResponseDeliverTx{Code: code, Log: log}
}

// CheckTxError reports err as a failed CheckTx. Internal errors are
// redacted unless debug is set.
func CheckTxError(err error, debug bool) abci.ResponseCheckTx {
	code, log := responseInfo("check", err, debug)
	return abci.ResponseCheckTx{Code: code, Log: log}
}

func responseInfo(phase string, err error, debug bool) (uint32, string) {
	code, log := errors.ABCIInfo(err, debug)
	if code == errors.SuccessABCICode {
		return code, log
	}
	return code, fmt.Sprintf("cannot %s tx: %s", phase, log)
}
