package probe

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	probes := []Probe{
		{
			Name: "Healthy Check",
			Check: func(ctx context.Context) error {
				return nil
			},
			Critical: true,
		},
		{
			Name: "Degraded Check",
			Check: func(ctx context.Context) error {
				return errors.New("minor issue")
			},
		},
	}

	results := Run(context.Background(), probes)

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("Expected healthy check to pass, got error: %v", results[0].Error)
	}
	if !results[0].Critical {
		t.Error("Expected Critical flag carried into the result")
	}
	if results[1].Error == nil {
		t.Error("Expected degraded check to fail, got nil")
	}
}

func TestRun_HonorsTimeout(t *testing.T) {
	probes := []Probe{
		{
			Name: "Wedged Check",
			Check: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		},
	}

	start := time.Now()
	results := Run(context.Background(), probes)

	if elapsed := time.Since(start); elapsed > checkTimeout+time.Second {
		t.Fatalf("Run took %v, check timeout not enforced", elapsed)
	}
	if !errors.Is(results[0].Error, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", results[0].Error)
	}
}

func TestAnalyzeResults(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		wantErr bool
	}{
		{
			name: "All Pass",
			results: []Result{
				{Name: "Telemetry Store", Critical: true},
			},
			wantErr: false,
		},
		{
			name: "Critical Failure",
			results: []Result{
				{Name: "Telemetry Store", Critical: true, Error: errors.New("fail")},
			},
			wantErr: true,
		},
		{
			name: "Non-Critical Failure",
			results: []Result{
				{Name: "Feed Mirror", Error: errors.New("fail")},
			},
			wantErr: false,
		},
		{
			name: "Mixed Failure",
			results: []Result{
				{Name: "Feed Mirror", Error: errors.New("fail")},
				{Name: "Telemetry Store", Critical: true, Error: errors.New("fail")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AnalyzeResults(tt.results)
			if (err != nil) != tt.wantErr {
				t.Errorf("AnalyzeResults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
