package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/logger"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/service"
)

var (
	dataDir string
	noPurge bool
)

var rootCmd = &cobra.Command{
	Use:   "loaddata",
	Short: "Load CSV fixtures into the database",
	Long: `Load users, categories, genres, titles, genre links, reviews and comments
from the CSV files in the data directory.

Records are upserted by id, so the command can be run repeatedly. Unless
--no-purge is given, existing data is removed first (superusers are kept).

Examples:
  loaddata                          # Purge and load from DATA_DIR
  loaddata --dir ./static/data      # Load from a specific directory
  loaddata --no-purge               # Upsert on top of existing data
  loaddata check                    # Only verify that all files exist`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd.Context())
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every data file exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := service.CheckFiles(dataDir); err != nil {
			return err
		}
		fmt.Printf("all %d data files found in %s\n", len(service.RequiredFiles), dataDir)
		return nil
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}
	cfg := config.Load()

	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", cfg.DataDir, "Directory with the CSV data files")
	rootCmd.Flags().BoolVar(&noPurge, "no-purge", false, "Keep existing data and upsert on top of it")
	rootCmd.AddCommand(checkCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runLoad(ctx context.Context) error {
	cfg := config.Load()
	appLogger := logger.New(cfg.LogLevel, cfg.LogFilePath)

	// 先检查文件，缺失时不连接数据库
	if err := service.CheckFiles(dataDir); err != nil {
		return err
	}

	db, err := repository.InitDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	loader := service.NewLoader(repository.NewRepositories(db), appLogger)
	report, err := loader.Load(ctx, service.LoadOptions{Dir: dataDir, Purge: !noPurge})
	if report != nil {
		if report.Purged {
			fmt.Println("existing data purged")
		}
		for _, stage := range report.Stages {
			fmt.Printf("%-13s loaded %6d  skipped %6d\n", stage.Stage, stage.Loaded, stage.Skipped)
		}
	}
	if err != nil {
		return err
	}
	fmt.Println("data loaded")
	return nil
}
