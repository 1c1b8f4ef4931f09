package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dfryer1193/portfolio/blog/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{
			name:        "nil",
			err:         nil,
			unavailable: false,
		},
		{
			name:        "network error label",
			err:         mongo.CommandError{Code: 6, Labels: []string{"NetworkError"}, Message: "host unreachable"},
			unavailable: true,
		},
		{
			name:        "authentication failed",
			err:         fmt.Errorf("wrapped: %w", mongo.CommandError{Code: authenticationFailedCode, Name: "AuthenticationFailed"}),
			unavailable: true,
		},
		{
			name:        "deadline exceeded",
			err:         context.DeadlineExceeded,
			unavailable: true,
		},
		{
			name:        "client disconnected",
			err:         mongo.ErrClientDisconnected,
			unavailable: true,
		},
		{
			name:        "already classified",
			err:         fmt.Errorf("%w: x", domain.ErrStoreUnavailable),
			unavailable: true,
		},
		{
			name:        "ordinary command error",
			err:         mongo.CommandError{Code: 2, Name: "BadValue"},
			unavailable: false,
		},
		{
			name:        "not found",
			err:         domain.ErrPostNotFound,
			unavailable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("Classify(nil) = %v, want nil", got)
				}
				return
			}

			if errors.Is(got, domain.ErrStoreUnavailable) != tt.unavailable {
				t.Errorf("Classify(%v) unavailable = %v, want %v", tt.err, !tt.unavailable, tt.unavailable)
			}
			if !strings.Contains(got.Error(), tt.err.Error()) {
				t.Errorf("Classify(%v) = %q, lost the original error", tt.err, got)
			}
		})
	}
}

func TestPerCallConnector_UnreachableIsUnavailable(t *testing.T) {
	conn := NewPerCallConnector(MongoConfig{
		URI:            "mongodb://127.0.0.1:1/?connectTimeoutMS=200",
		Database:       "test",
		ConnectTimeout: 300 * time.Millisecond,
	})

	called := false
	err := conn.Session(context.Background(), func(ctx context.Context, database *mongo.Database) error {
		called = true
		return nil
	})

	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
	if called {
		t.Error("session function should not run when the store is unreachable")
	}
}

func TestPooledConnector_NotConnected(t *testing.T) {
	conn := NewPooledConnector(MongoConfig{URI: "mongodb://127.0.0.1:1", Database: "test"})

	err := conn.Session(context.Background(), func(ctx context.Context, database *mongo.Database) error {
		return nil
	})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}

	if err := conn.Close(context.Background()); err != nil {
		t.Errorf("Close on unconnected pool returned %v", err)
	}
}
