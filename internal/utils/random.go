package utils

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"

	"github.com/blankstorm/accounts/backend/internal/domain"
)

// GenerateAccountID 返回 16 字节随机值的 32 位十六进制表示
func GenerateAccountID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// GenerateToken 返回 32 字节安全随机数的 64 位十六进制表示，用于令牌和会话
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := crand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// 随机等级偏向普通账户
var privilegeWeights = []domain.PrivilegeLevel{
	domain.PrivilegeAccount, domain.PrivilegeAccount, domain.PrivilegeAccount, domain.PrivilegeAccount,
	domain.PrivilegeAccount, domain.PrivilegeAccount, domain.PrivilegeModerator, domain.PrivilegeModerator,
	domain.PrivilegeDeveloper, domain.PrivilegeAdministrator,
}

func GenerateRandomPrivilege() domain.PrivilegeLevel {
	return privilegeWeights[rand.Intn(len(privilegeWeights))]
}

var digits = "0123456789"

// GenerateUsernameFromChineseName 取每个字拼音的前缀，再拼上 1~3 位数字
func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	// 保证长度满足 3~20 的要求
	for len(username) < 2 {
		username += string(digits[rand.Intn(len(digits))])
	}
	if len(username) > 17 {
		username = username[:17]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomAccount 生成一个可以直接写入数据库的随机账户
func GenerateRandomAccount(password string, emailDomainName string) (*domain.Account, error) {
	username := GenerateUsernameFromChineseName(GenerateRandomChineseName())
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().Add(-time.Duration(rand.Intn(365*24)) * time.Hour)
	account := &domain.Account{
		ID:            GenerateAccountID(),
		Username:      username,
		Email:         username + "@" + emailDomainName,
		PasswordHash:  string(passwordHash),
		Privilege:     GenerateRandomPrivilege(),
		CreatedAt:     createdAt,
		LastChangedAt: createdAt,
		IsDisabled:    rand.Intn(10) == 0,
	}

	return account, nil
}
