package halerr

import "testing"

func TestErrorsAreStableStrings(t *testing.T) {
	cases := map[string]error{
		"unknown_bus": ErrUnknownBus,
		"unknown_pin": ErrUnknownPin,
		"not_reset":   ErrNotReset,
	}
	for want, e := range cases {
		if e == nil || e.Error() != want {
			t.Fatalf("error %q mismatch: got %#v", want, e)
		}
	}
}
