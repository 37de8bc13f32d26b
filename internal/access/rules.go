package access

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"time"

	"github.com/blankstorm/accounts/backend/internal/domain"
)

var (
	hex32Pattern    = regexp.MustCompile(`^[0-9a-f]{32}$`)
	hex64Pattern    = regexp.MustCompile(`^[0-9a-f]{64}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[\w.-]+@[\w-]+(\.\w{2,})+$`)
)

// 校验时使用的时钟，测试中可以替换
var now = time.Now

// Validate 检查一个属性的取值是否合法
func Validate(attribute string, value any) error {
	_, err := Normalize(attribute, value)
	return err
}

// IsValid 是 Validate 的布尔版本，不会 panic
func IsValid(attribute string, value any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return Validate(attribute, value) == nil
}

// Normalize 校验取值并转换成存储使用的类型：
// id/username/email/token/session/passwordHash 为 string，
// privilege 为 domain.PrivilegeLevel，isDisabled 为 bool，时间为 time.Time
func Normalize(attribute string, value any) (any, error) {
	switch attribute {
	case domain.AttrID:
		return matchString(attribute, value, hex32Pattern, "must be 32 lowercase hex characters")
	case domain.AttrUsername:
		s, ok := value.(string)
		if !ok {
			return nil, invalid(attribute, "must be a string")
		}
		if n := len(s); n < 3 || n > 20 {
			return nil, invalid(attribute, "must be between 3 and 20 characters")
		}
		if !usernamePattern.MatchString(s) {
			return nil, invalid(attribute, "may only contain letters, digits and underscores")
		}
		return s, nil
	case domain.AttrEmail:
		return matchString(attribute, value, emailPattern, "is not a valid email address")
	case domain.AttrPrivilege:
		return privilegeValue(value)
	case domain.AttrCreatedAt, domain.AttrLastChangedAt:
		return timeValue(attribute, value)
	case domain.AttrToken, domain.AttrSession:
		return matchString(attribute, value, hex64Pattern, "must be 64 lowercase hex characters")
	case domain.AttrIsDisabled:
		return disabledValue(value)
	case domain.AttrPasswordHash:
		// 哈希在进入这里之前已经由服务层生成
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprint(value), nil
	}
	return nil, &domain.UnknownAttributeError{Attribute: attribute}
}

func invalid(attribute, reason string) error {
	return &domain.ValidationError{Attribute: attribute, Reason: reason}
}

func matchString(attribute string, value any, pattern *regexp.Regexp, reason string) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", invalid(attribute, "must be a string")
	}
	if !pattern.MatchString(s) {
		return "", invalid(attribute, reason)
	}
	return s, nil
}

func privilegeValue(value any) (domain.PrivilegeLevel, error) {
	var n int64
	switch v := value.(type) {
	case domain.PrivilegeLevel:
		n = int64(v)
	case float32, float64:
		f := reflect.ValueOf(v).Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, invalid(domain.AttrPrivilege, "must be an integer")
		}
		n = int64(f)
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, invalid(domain.AttrPrivilege, "must be numeric")
		}
		n = parsed
	default:
		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n = rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if rv.Uint() > math.MaxInt64 {
				return 0, invalid(domain.AttrPrivilege, "out of range")
			}
			n = int64(rv.Uint())
		default:
			return 0, invalid(domain.AttrPrivilege, "must be numeric")
		}
	}
	p := domain.PrivilegeLevel(n)
	if int64(p) != n || !p.Valid() {
		return 0, invalid(domain.AttrPrivilege, fmt.Sprintf("must be between %d and %d", domain.MinPrivilege, domain.MaxPrivilege))
	}
	return p, nil
}

func timeValue(attribute string, value any) (time.Time, error) {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return time.Time{}, invalid(attribute, "must be a timestamp")
		}
		t = *v
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, invalid(attribute, "must be an RFC 3339 timestamp")
		}
		t = parsed
	default:
		return time.Time{}, invalid(attribute, "must be a timestamp")
	}
	if t.After(now()) {
		return time.Time{}, invalid(attribute, "must not be in the future")
	}
	return t, nil
}

// 历史客户端会发送 1/0 和 "true"/"false"，这里继续兼容，不再扩展其他写法
func disabledValue(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch v {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, invalid(domain.AttrIsDisabled, "must be true or false")
	}

	rv := reflect.ValueOf(value)
	var n float64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		n = rv.Float()
	default:
		return false, invalid(domain.AttrIsDisabled, "must be true or false")
	}
	switch n {
	case 1:
		return true, nil
	case 0:
		return false, nil
	}
	return false, invalid(domain.AttrIsDisabled, "must be true or false")
}
