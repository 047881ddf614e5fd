package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	standalone := "Transaction numbers are only allowed on a replica set member or mongos"
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some random error"), false},
		{"standalone code 20", mongo.CommandError{Code: 20, Message: standalone}, true},
		{"standalone wrapped", fmt.Errorf("delete study set: %w", mongo.CommandError{Code: 20, Message: standalone}), true},
		{"standalone message only", errors.New(strings.ToUpper(standalone)), true},
		{"other code 20", mongo.CommandError{Code: 20, Message: "Illegal operation"}, false},
		{"code 51", mongo.CommandError{Code: 51, Message: "Illegal operation"}, false},
		{"operation not supported in transaction", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, false},
		{"other command error code", mongo.CommandError{Code: 100, Message: "Some other error"}, false},
		{"session state", errors.New("cannot start transaction in current session state"), false},
		{"illegal operation in transaction", errors.New("illegal operation during transaction"), false},
		{"sessions not supported", errors.New("session operations are not supported on this server"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNotSupported(tt.err)
			if got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun_NilClientRunsDirectly(t *testing.T) {
	var calls int
	err := New(nil, zap.NewNop()).Run(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Run() = %v, calls = %d; want nil, 1", err, calls)
	}

	boom := errors.New("boom")
	var nilRunner *Runner
	if err := nilRunner.Run(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Run() = %v, want boom", err)
	}
}
