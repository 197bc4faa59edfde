package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/cache"
	"inferd/internal/common/fsutil"
	"inferd/internal/config"
	"inferd/internal/download"
	"inferd/internal/engine"
	"inferd/internal/httpapi"
	"inferd/internal/registry"
	"inferd/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	var cfg config.Config

	cmd := &cobra.Command{
		Use:           "inferd",
		Short:         "Local inference gateway for GGUF chat and embedding models",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath != "" {
				fileCfg, err := config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				mergeConfig(&cfg, fileCfg, cmd.Flags().Changed)
			}
			return run(cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&cfgPath, "config", envStr("INFERD_CONFIG", ""), "Config file (.yaml, .json or .toml)")
	fl.StringVar(&cfg.Addr, "addr", envStr("INFERD_ADDR", ":8000"), "HTTP listen address")
	fl.StringVar(&cfg.ModelsDir, "models-dir", envStr("INFERD_MODELS_DIR", "~/models"), "Directory holding chat/ and embed/ model files")
	fl.IntVar(&cfg.CtxSize, "ctx-size", envInt("INFERD_CTX_SIZE", 20000), "Model context window in tokens")
	fl.IntVar(&cfg.Threads, "threads", envInt("INFERD_THREADS", 4), "CPU threads per inference")
	fl.IntVar(&cfg.GPULayers, "gpu-layers", envInt("INFERD_GPU_LAYERS", 0), "Layers to offload to GPU (0=CPU only)")
	fl.Float64Var(&cfg.Temperature, "temperature", 0.7, "Default sampling temperature")
	fl.IntVar(&cfg.MaxTokens, "max-tokens", 3000, "Default completion token limit")
	fl.IntVar(&cfg.GenerateTimeoutSec, "generate-timeout", envInt("INFERD_GENERATE_TIMEOUT", 600), "Generation timeout in seconds (0 disables)")
	fl.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", 10<<20, "Maximum JSON request body size")
	fl.BoolVar(&cfg.CORSEnabled, "cors", false, "Enable CORS")
	fl.StringSliceVar(&cfg.CORSAllowedOrigins, "cors-origin", []string{"*"}, "Allowed CORS origins")
	return cmd
}

// mergeConfig lets file values fill in any field whose flag was not set
// explicitly on the command line.
func mergeConfig(cfg *config.Config, file config.Config, changed func(string) bool) {
	if file.Addr != "" && !changed("addr") {
		cfg.Addr = file.Addr
	}
	if file.ModelsDir != "" && !changed("models-dir") {
		cfg.ModelsDir = file.ModelsDir
	}
	if file.CtxSize != 0 && !changed("ctx-size") {
		cfg.CtxSize = file.CtxSize
	}
	if file.Threads != 0 && !changed("threads") {
		cfg.Threads = file.Threads
	}
	if file.GPULayers != 0 && !changed("gpu-layers") {
		cfg.GPULayers = file.GPULayers
	}
	if file.Temperature != 0 && !changed("temperature") {
		cfg.Temperature = file.Temperature
	}
	if file.MaxTokens != 0 && !changed("max-tokens") {
		cfg.MaxTokens = file.MaxTokens
	}
	if file.GenerateTimeoutSec != 0 && !changed("generate-timeout") {
		cfg.GenerateTimeoutSec = file.GenerateTimeoutSec
	}
	if file.MaxBodyBytes != 0 && !changed("max-body-bytes") {
		cfg.MaxBodyBytes = file.MaxBodyBytes
	}
	if file.CORSEnabled && !changed("cors") {
		cfg.CORSEnabled = true
	}
	if len(file.CORSAllowedOrigins) > 0 && !changed("cors-origin") {
		cfg.CORSAllowedOrigins = file.CORSAllowedOrigins
	}
}

func run(cfg config.Config) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	dir, err := fsutil.ExpandHome(cfg.ModelsDir)
	if err != nil {
		return fmt.Errorf("resolve models dir: %w", err)
	}
	for _, sub := range []string{registry.ChatSubdir, registry.EmbeddingSubdir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("create models dir: %w", err)
		}
	}

	reg := registry.New()
	if err := reg.Scan(dir); err != nil {
		return fmt.Errorf("scan models dir: %w", err)
	}

	factory := func(d registry.Descriptor) (engine.Engine, error) {
		return engine.New(d.Path, engine.Options{
			CtxSize:   cfg.CtxSize,
			Threads:   cfg.Threads,
			GPULayers: cfg.GPULayers,
			Embedding: d.Kind == registry.KindEmbedding,
		})
	}
	modelCache := cache.New(reg, factory, logger)
	dl := download.New(reg, dir, logger)
	svc := service.New(reg, modelCache, dl, service.Options{
		ModelsDir:       dir,
		Temperature:     cfg.Temperature,
		MaxTokens:       cfg.MaxTokens,
		GenerateTimeout: time.Duration(cfg.GenerateTimeoutSec) * time.Second,
	}, logger)

	httpapi.SetLogger(logger)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins)

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("models_dir", dir).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	// Cancel in-flight handlers, then drain the listener.
	baseCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	modelCache.Close()
	dl.Wait()
	return nil
}
