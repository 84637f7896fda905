package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewProviders_EmptyEndpointIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, endpoint, "txdash-test", false)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Fatalf("NewProviders(%q) returned nil provider", endpoint)
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("no-op shutdown: %v", err)
		}
		// Shutdown stays callable.
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("second shutdown: %v", err)
		}
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name         string
		endpoint     string
		override     bool
		wantAddr     string
		wantInsecure bool
		wantErr      bool
	}{
		{name: "plain http", endpoint: "http://localhost:4317", wantAddr: "localhost:4317", wantInsecure: true},
		{name: "https uses TLS", endpoint: "https://collector:4317", wantAddr: "collector:4317", wantInsecure: false},
		{name: "https with override", endpoint: "https://collector:4317", override: true, wantAddr: "collector:4317", wantInsecure: true},
		{name: "bare host:port", endpoint: "localhost:4317", wantAddr: "localhost:4317", wantInsecure: true},
		{name: "path dropped", endpoint: "http://localhost:4317/v1/traces", wantAddr: "localhost:4317", wantInsecure: true},
		{name: "query dropped", endpoint: "http://localhost:4317?x=1", wantAddr: "localhost:4317", wantInsecure: true},
		{name: "missing host", endpoint: "http://", wantErr: true},
		{name: "garbage", endpoint: "://invalid", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := resolveTarget(tt.endpoint, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("resolveTarget(%q) should fail", tt.endpoint)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveTarget(%q): %v", tt.endpoint, err)
			}
			if target.addr != tt.wantAddr || target.insecure != tt.wantInsecure {
				t.Errorf("resolveTarget(%q) = %+v, want addr=%s insecure=%v",
					tt.endpoint, target, tt.wantAddr, tt.wantInsecure)
			}
		})
	}
}

func TestSetGlobal(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "", "txdash-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}

	oldTP := otel.GetTracerProvider()
	oldMP := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(oldTP)
		otel.SetMeterProvider(oldMP)
	}()

	providers.SetGlobal()
	if otel.GetTracerProvider() == oldTP {
		t.Error("TracerProvider was not installed globally")
	}
	if otel.GetMeterProvider() == oldMP {
		t.Error("MeterProvider was not installed globally")
	}

	// Nil fields must not panic or clobber the globals.
	empty := &Providers{}
	tp, mp := otel.GetTracerProvider(), otel.GetMeterProvider()
	empty.SetGlobal()
	if otel.GetTracerProvider() != tp || otel.GetMeterProvider() != mp {
		t.Error("SetGlobal with nil providers must leave globals unchanged")
	}
}
