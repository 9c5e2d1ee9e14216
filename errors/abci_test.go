package errors

import (
	"io"
	"strings"
	"testing"
)

func TestABCIInfo(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"success": {
			wantCode: SuccessABCICode,
		},
		"typed nil is success": {
			err:      (*Error)(nil),
			wantCode: SuccessABCICode,
		},
		"registered error": {
			err:      ErrUnauthorized,
			wantCode: ErrUnauthorized.code,
			wantLog:  "unauthorized",
		},
		"wrapped registered error keeps the message": {
			err:      Wrapf(Wrap(ErrState, "proposal rejected"), "vote %d", 2),
			wantCode: ErrState.code,
			wantLog:  "vote 2: proposal rejected: invalid state",
		},
		"collection reports the first code": {
			err:      Append(ErrAmount, ErrCurrency),
			wantCode: ErrAmount.code,
			wantLog:  "2 errors occurred:\n\t* invalid amount\n\t* currency\n",
		},
		"unregistered error is hidden": {
			err:      Wrap(io.ErrUnexpectedEOF, "read snapshot"),
			wantCode: internalABCICode,
			wantLog:  internalABCILog,
		},
		"foreign coder": {
			err:      relayErr{},
			wantCode: 4242,
			wantLog:  "relay offline",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			code, log := ABCIInfo(tc.err, tc.debug)
			if code != tc.wantCode {
				t.Errorf("want code %d, got %d", tc.wantCode, code)
			}
			if log != tc.wantLog {
				t.Errorf("want log %q, got %q", tc.wantLog, log)
			}
		})
	}
}

func TestABCIInfoDebug(t *testing.T) {
	code, log := ABCIInfo(Wrap(io.ErrUnexpectedEOF, "read snapshot"), true)
	if code != internalABCICode {
		t.Fatalf("want internal code, got %d", code)
	}
	if !strings.Contains(log, "read snapshot: unexpected EOF") {
		t.Fatalf("message missing in %q", log)
	}
	if !strings.Contains(log, "abci_test.go") {
		t.Fatalf("stack trace missing in %q", log)
	}
}

type relayErr struct{}

func (relayErr) ABCICode() uint32 { return 4242 }
func (relayErr) Error() string    { return "relay offline" }
