package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ffxiv_damage/analysispool"
	"ffxiv_damage/cache"
	"ffxiv_damage/fights"
	"ffxiv_damage/frontend"
	"ffxiv_damage/report"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagReportDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated report and on-demand fight analysis",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagReportDir, "report-dir", filepath.Dir(report.DefaultOutput), "directory of the generated report")
}

func runServe(cmd *cobra.Command, args []string) error {
	presets, err := fights.Load(flagPresets)
	if err != nil {
		return err
	}

	b, err := newFightBuilder(cfg)
	if err != nil {
		return err
	}

	cs, err := cache.NewStorage(filepath.Join(cfg.CacheDir, "sections"), analysispool.DefaultSectionExpires, report.Templates())
	if err != nil {
		return err
	}

	pool := analysispool.New(analysispool.Options{
		Presets: presets,
		Process: b.Section,
		Cache:   cs,
		Verify:  frontend.NewVerifier(cfg.RecaptchaSecret),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pool.Start(ctx)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	frontend.Route(g, frontend.Options{
		Pool:      pool,
		Presets:   presets,
		ReportDir: flagReportDir,
	})

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: g,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("listening", zap.String("addr", cfg.Listen))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.WithStack(err)
	}
	return nil
}
