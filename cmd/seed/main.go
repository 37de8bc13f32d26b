package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/blankstorm/accounts/backend/internal/config"
	"github.com/blankstorm/accounts/backend/internal/repository"
	"github.com/blankstorm/accounts/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机账户, 2: 从 CSV 导入账户)")
	flag.IntVar(&n, "n", 0, "要插入的随机账户数量，默认使用 SEED_COUNT")
	flag.StringVar(&file, "file", "", "要导入的 CSV 文件，需要包含 username,email,privilege 列")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Seed.Password == "" {
		logger.Error("请设置 SEED_PASSWORD")
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}
	if err := repository.Migrate(ctx, dbpool); err != nil {
		logger.Error("无法执行数据库迁移", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 插入可能很慢，不使用连接时的超时
	seedCtx := context.Background()

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n == 0 {
			n = cfg.Seed.Count
		}
		cnt, err := seed.RandomAccounts(seedCtx, repo, n, cfg.Seed.Password, cfg.Seed.MailDomain)
		if err != nil {
			slog.Error("无法插入随机账户", slog.String("error", err.Error()))
			return
		}
		slog.Info("插入账户成功", slog.Int("count", cnt))
	case 2:
		if file == "" {
			slog.Error("请指定要导入的文件")
			return
		}
		f, err := os.Open(file)
		if err != nil {
			slog.Error("打开文件失败", "error", err)
			return
		}
		defer f.Close()

		cnt, err := seed.ImportCSV(seedCtx, repo, f, cfg.Seed.Password)
		if err != nil {
			slog.Error("导入账户失败", slog.String("error", err.Error()), slog.Int("count", cnt))
			return
		}
		slog.Info("导入账户成功", slog.Int("count", cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
