package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"wisefido-sleep-alert/internal/app"
	"wisefido-sleep-alert/internal/common/logger"
	"wisefido-sleep-alert/internal/config"
	"wisefido-sleep-alert/internal/evaluator"
	"wisefido-sleep-alert/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "wisefido-sleep-alert"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Sleep quality alert service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newEvaluateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API, snapshot stream consumer and MQTT trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer log.Sync()

	// 3. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. 创建服务
	svc, err := app.NewSleepAlertService(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to create sleep alert service", zap.Error(err))
		return err
	}
	defer svc.Stop()

	// 5. 启动服务
	serviceErrChan := make(chan error, 1)
	go func() {
		serviceErrChan <- svc.Start(ctx)
	}()

	// 6. 等待信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
		if err := <-serviceErrChan; err != nil {
			log.Error("Service stopped with error", zap.Error(err))
		}
	case err := <-serviceErrChan:
		if err != nil {
			log.Error("Service error", zap.Error(err))
			return err
		}
	}

	log.Info("Sleep alert service stopped")
	return nil
}

type evaluateOptions struct {
	snapshotPath string
	rulesPath    string
	recordsPath  string
}

func newEvaluateCmd() *cobra.Command {
	opts := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a sleep snapshot file against rules and print new alert records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.snapshotPath, "snapshot", "", "sleep snapshot JSON file (required)")
	cmd.Flags().StringVar(&opts.rulesPath, "rules", "", "alert rules JSON array (default: built-in rules)")
	cmd.Flags().StringVar(&opts.recordsPath, "records", "", "existing alert records JSON array")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

// runEvaluate 离线评估，不访问数据库
func runEvaluate(opts *evaluateOptions, out io.Writer) error {
	data, err := os.ReadFile(opts.snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	snapshot, err := models.ParseSleepSnapshot(data)
	if err != nil {
		return err
	}

	rules := evaluator.DefaultRulesWithIDs()
	if opts.rulesPath != "" {
		rules = nil
		if err := readJSONFile(opts.rulesPath, &rules); err != nil {
			return fmt.Errorf("failed to read rules: %w", err)
		}
	}

	var existing []models.AlertRecord
	if opts.recordsPath != "" {
		if err := readJSONFile(opts.recordsPath, &existing); err != nil {
			return fmt.Errorf("failed to read records: %w", err)
		}
	}

	log, err := logger.NewLogger("warn", "console", serviceName)
	if err != nil {
		return err
	}
	defer log.Sync()

	records := evaluator.NewEvaluator(log).Evaluate(snapshot, rules, existing)
	if records == nil {
		records = []models.AlertRecord{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func readJSONFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
