package server

import (
	"context"
	"errors"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type pingFunc func() error

func (f pingFunc) HealthCheck(context.Context, time.Duration) error { return f() }

func TestHealthProbe(t *testing.T) {
	var down bool
	h := NewHealth(pingFunc(func() error {
		if down {
			return errors.New("db down")
		}
		return nil
	}), nil)
	ctx := context.Background()

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := h.srv.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		return resp.GetStatus()
	}

	if got := check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("before probe = %v, want NOT_SERVING", got)
	}
	if got := h.Probe(ctx); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("Probe = %v, want SERVING", got)
	}
	if got := check(); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("after probe = %v, want SERVING", got)
	}

	down = true
	h.Probe(ctx)
	if got := check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("db down = %v, want NOT_SERVING", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		"INVALID_INPUT":       400,
		"UNAUTHORIZED":        401,
		"NOT_FOUND":           404,
		"ALREADY_PROCESSED":   409,
		"NO_CONTENT":          422,
		"UNPARSABLE_RESPONSE": 502,
		"EMPTY_COMPLETION":    502,
		"ORACLE_UNAVAILABLE":  503,
		"PERSIST_ERROR":       500,
		"":                    500,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%q) = %d, want %d", code, got, want)
		}
	}
}
