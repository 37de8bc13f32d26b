// Package seed 向数据库写入开发和测试用的账户
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/blankstorm/accounts/backend/internal/access"
	"github.com/blankstorm/accounts/backend/internal/domain"
	"github.com/blankstorm/accounts/backend/internal/utils"
)

type AccountCreator interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
}

// RandomAccounts 插入 n 个随机账户，单个账户失败只记录日志，返回成功插入的数量
func RandomAccounts(ctx context.Context, store AccountCreator, n int, password, mailDomain string) (int, error) {
	if n <= 0 {
		return 0, errors.New("请输入合法的账户数量")
	}

	cnt := 0
	for i := 0; i < n; i++ {
		account, err := utils.GenerateRandomAccount(password, mailDomain)
		if err != nil {
			slog.Error("无法生成随机账户", "error", err)
			continue
		}

		if err := store.CreateAccount(ctx, account); err != nil {
			slog.Error("无法插入账户", "username", account.Username, "error", err)
			continue
		}

		cnt++
	}

	return cnt, nil
}

// 导入文件必须包含的列，privilege 可以是数值或名称
var csvColumns = []string{"username", "email", "privilege"}

// ImportCSV 从 CSV 导入账户，所有账户使用同一个初始密码。格式不正确的行会被跳过
func ImportCSV(ctx context.Context, store AccountCreator, r io.Reader, password string) (int, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("读取表头失败: %w", err)
	}
	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, column := range csvColumns {
		if _, ok := index[column]; !ok {
			return 0, fmt.Errorf("没有找到 %s 列", column)
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	cnt := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return cnt, fmt.Errorf("读取文件失败: %w", err)
		}

		account, err := accountFromRow(row, index, string(passwordHash))
		if err != nil {
			slog.Warn("跳过无效的行", "line", line, "error", err)
			continue
		}

		if err := store.CreateAccount(ctx, account); err != nil {
			slog.Error("无法插入账户", "line", line, "username", account.Username, "error", err)
			continue
		}

		cnt++
	}

	return cnt, nil
}

func accountFromRow(row []string, index map[string]int, passwordHash string) (*domain.Account, error) {
	username := strings.TrimSpace(row[index["username"]])
	email := strings.TrimSpace(row[index["email"]])
	if err := access.Validate(domain.AttrUsername, username); err != nil {
		return nil, err
	}
	if err := access.Validate(domain.AttrEmail, email); err != nil {
		return nil, err
	}
	privilege, err := domain.ParsePrivilegeLevel(row[index["privilege"]])
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &domain.Account{
		ID:            utils.GenerateAccountID(),
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		Privilege:     privilege,
		CreatedAt:     now,
		LastChangedAt: now,
	}, nil
}
