package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AccessTier 决定读取结果中包含哪些字段，数值越大暴露越多
type AccessTier int

const (
	TierPublic AccessTier = iota
	TierProtected
	TierPrivate
)

var tierNames = map[AccessTier]string{
	TierPublic:    "public",
	TierProtected: "protected",
	TierPrivate:   "private",
}

func (t AccessTier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// PROTECTED 和 PRIVATE 暴露的字段相同
func (t AccessTier) Elevated() bool {
	return t == TierProtected || t == TierPrivate
}

func (t AccessTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

func ParseAccessTier(s string) (AccessTier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TierPublic, nil
	}
	for tier, name := range tierNames {
		if name == s {
			return tier, nil
		}
	}
	return 0, &InvalidTierError{Tier: s}
}

func (t AccessTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *AccessTier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("access tier must be one of public, protected, private")
	}
	tier, err := ParseAccessTier(s)
	if err != nil {
		return err
	}
	*t = tier
	return nil
}
