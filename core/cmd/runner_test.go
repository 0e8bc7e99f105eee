package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/mayak/orderbot/core/config"
	coretelegram "github.com/mayak/orderbot/core/telegram"
)

type testConfig struct{ core coreconfig.Config }

func (c *testConfig) CoreConfig() *coreconfig.Config { return &c.core }

type testApp struct{ closed bool }

func (a *testApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *testApp) Close() error {
	a.closed = true
	return nil
}

func TestRunContextWiresLifecycle(t *testing.T) {
	t.Setenv("ORDERBOT_TEST_CONFIG", "/tmp/orderbot.yaml")
	app := &testApp{}
	var loadedFrom, metricsAddr string
	var started, stopped bool

	err := RunContext(context.Background(), Options{
		ConfigEnvVar: "ORDERBOT_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedFrom = path
			cfg := &testConfig{}
			cfg.core.Metrics.Listen = ":0"
			return cfg, nil
		},
		Bootstrap:      func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		ServeMetrics: func(ctx context.Context, addr string) error {
			metricsAddr = addr
			<-ctx.Done()
			return ctx.Err()
		},
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if opts.Config == nil {
				t.Fatal("core config not propagated")
			}
			started = opts.OnStart(ctx, coretelegram.Runtime{}) == nil
			stopped = opts.OnStop(ctx, coretelegram.Runtime{}) == nil
			return nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if loadedFrom != "/tmp/orderbot.yaml" {
		t.Fatalf("config path = %q", loadedFrom)
	}
	if metricsAddr != ":0" {
		t.Fatalf("metrics addr = %q", metricsAddr)
	}
	if !started || !stopped {
		t.Fatalf("hooks not invoked: start=%v stop=%v", started, stopped)
	}
	if !app.closed {
		t.Fatal("app was not closed")
	}
}

func TestRunContextBootstrapFailure(t *testing.T) {
	boom := errors.New("db down")
	err := RunContext(context.Background(), Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return &testConfig{}, nil },
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, boom },
		ShutdownLogger:    func() error { return nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want bootstrap error", err)
	}
}

func TestRunContextRequiresConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	err := RunContext(context.Background(), Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return &testConfig{}, nil },
		Bootstrap:  func(context.Context, ConfigCarrier) (TelegramApp, error) { return &testApp{}, nil },
	})
	if err == nil {
		t.Fatal("expected missing path error")
	}
}
