package txn

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported_ServerCodes(t *testing.T) {
	for _, code := range []int32{20, 51, 263} {
		err := mongo.CommandError{Code: code, Message: "rejected"}
		if !IsNotSupported(err) {
			t.Errorf("code %d: want not-supported", code)
		}
	}
	if IsNotSupported(mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}) {
		t.Error("duplicate key must not read as not-supported")
	}
}

func TestIsNotSupported_Wrapped(t *testing.T) {
	inner := mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}
	err := fmt.Errorf("activate school year: %w", inner)
	if !IsNotSupported(err) {
		t.Errorf("wrapped %v: want not-supported", err)
	}
}

func TestIsNotSupported_Messages(t *testing.T) {
	cases := map[string]bool{
		"":                                              false,
		"connection reset by peer":                      false,
		"transaction aborted":                           false,
		"Transaction support requires a Replica Set":    true,
		"sessions are NOT SUPPORTED by this deployment": true,
		"illegal operation inside a transaction":        true,
	}
	for msg, want := range cases {
		var err error
		if msg != "" {
			err = errors.New(msg)
		}
		if got := IsNotSupported(err); got != want {
			t.Errorf("IsNotSupported(%q) = %v, want %v", msg, got, want)
		}
	}
}
