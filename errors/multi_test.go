package errors

import (
	"fmt"
	"testing"
)

func TestAppend(t *testing.T) {
	cases := map[string]struct {
		errs     []error
		wantNil  bool
		wantIs   []*Error
		wantCode uint32
	}{
		"nothing given": {
			errs:    nil,
			wantNil: true,
		},
		"only nil values": {
			errs:    []error{nil, nil},
			wantNil: true,
		},
		"single error is returned as is": {
			errs:     []error{nil, ErrNotFound, nil},
			wantIs:   []*Error{ErrNotFound},
			wantCode: ErrNotFound.code,
		},
		"many errors keep the first code": {
			errs:     []error{Wrap(ErrEmpty, "name"), ErrAmount},
			wantIs:   []*Error{ErrEmpty, ErrAmount},
			wantCode: ErrEmpty.code,
		},
		"nested appends are flattened": {
			errs:     []error{Append(ErrEmpty, ErrInput), ErrState},
			wantIs:   []*Error{ErrEmpty, ErrInput, ErrState},
			wantCode: ErrEmpty.code,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := Append(tc.errs...)
			if tc.wantNil {
				if err != nil {
					t.Fatalf("want nil, got %+v", err)
				}
				return
			}
			for _, kind := range tc.wantIs {
				if !kind.Is(err) {
					t.Errorf("want %q to be part of %q", kind, err)
				}
			}
			if code := abciCode(err); code != tc.wantCode {
				t.Errorf("want %d code, got %d", tc.wantCode, code)
			}
		})
	}
}

func TestAppendMessage(t *testing.T) {
	err := Append(fmt.Errorf("first"), fmt.Errorf("second"))
	const want = "2 errors occurred:\n\t* first\n\t* second\n"
	if got := err.Error(); got != want {
		t.Fatalf("unexpected message: %q", got)
	}
}
