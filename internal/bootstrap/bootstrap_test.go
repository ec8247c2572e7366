package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/review-sentiment/internal/config"
	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

func TestResilienceConfigFromEnvConfig(t *testing.T) {
	got := resilienceConfig(config.Config{
		SentimentAPIRetryAttempts: 3,
		SentimentAPIRPS:           4,
		SentimentAPIBurst:         2,
		BreakerEnabled:            false,
		BreakerMinRequests:        5,
		BreakerFailureRatio:       0.5,
		BreakerOpenTimeout:        time.Second,
	})
	if got.RetryMaxAttempts != 3 || got.RateLimitRPS != 4 || got.RateLimitBurst != 2 {
		t.Fatalf("unexpected retry/limit config %+v", got)
	}
	if got.BreakerEnabled || got.BreakerMinRequests != 5 || got.BreakerFailureRatio != 0.5 || got.BreakerOpenTimeout != time.Second {
		t.Fatalf("unexpected breaker config %+v", got)
	}

	def := resilienceConfig(config.Config{BreakerEnabled: true})
	if def.RetryMaxAttempts != 1 || def.RateLimitRPS != 0 {
		t.Fatalf("expected single unthrottled attempt by default, got %+v", def)
	}
}

func TestNewClientWiresSettingsAndSessions(t *testing.T) {
	cfg := config.Config{
		SentimentAPIURL:    "/api",
		SentimentAPIOrigin: "http://localhost:10000",
		SettingsPath:       filepath.Join(t.TempDir(), "settings.yaml"),
		TextColumn:         "Comment",
		PreviewRows:        5,
	}
	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	current := client.Settings.Current()
	if current.TextColumn != "Comment" || current.PreviewRows != 5 || current.ExportFilename != domain.DefaultExportFilename {
		t.Fatalf("unexpected settings %+v", current)
	}

	session := client.NewSession("Body")
	if !session.Accept(domain.UploadedFile{Name: "a.csv", Content: []byte("Body\n")}) {
		t.Fatalf("expected session to accept csv")
	}
}

func TestNewClientRejectsBadOrigin(t *testing.T) {
	_, err := NewClient(context.Background(), config.Config{SentimentAPIURL: "/api", SentimentAPIOrigin: "nohost"})
	if err == nil {
		t.Fatalf("expected error for relative origin")
	}
}
