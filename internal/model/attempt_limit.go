package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// LegacyUnlimitedAttempts is the magic value older rows use for "no cap".
const LegacyUnlimitedAttempts = 999

// AttemptLimit is either Limited(n) or Unlimited. The zero value is Unlimited.
// It is stored as a nullable integer column; NULL means unlimited.
type AttemptLimit struct {
	n       int
	limited bool
}

func Limited(n int) AttemptLimit { return AttemptLimit{n: n, limited: true} }

func Unlimited() AttemptLimit { return AttemptLimit{} }

func (l AttemptLimit) IsUnlimited() bool { return !l.limited }

// Max returns the cap and true, or 0 and false when unlimited.
func (l AttemptLimit) Max() (int, bool) { return l.n, l.limited }

// Allows reports whether another attempt may be started after used attempts.
func (l AttemptLimit) Allows(used int) bool {
	return !l.limited || used < l.n
}

func (l AttemptLimit) String() string {
	if !l.limited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", l.n)
}

// AttemptLimitFromPtr translates the API representation (nil = unlimited).
func AttemptLimitFromPtr(n *int) AttemptLimit {
	if n == nil || *n == LegacyUnlimitedAttempts {
		return Unlimited()
	}
	return Limited(*n)
}

// Ptr is the inverse of AttemptLimitFromPtr.
func (l AttemptLimit) Ptr() *int {
	if !l.limited {
		return nil
	}
	n := l.n
	return &n
}

func (l AttemptLimit) Value() (driver.Value, error) {
	if !l.limited {
		return nil, nil
	}
	return int64(l.n), nil
}

func (l *AttemptLimit) Scan(src interface{}) error {
	var n int64
	switch v := src.(type) {
	case nil:
		*l = Unlimited()
		return nil
	case int64:
		n = v
	case int32:
		n = int64(v)
	case int:
		n = int64(v)
	case []byte:
		if _, err := fmt.Sscan(string(v), &n); err != nil {
			return fmt.Errorf("scan attempt limit %q: %w", v, err)
		}
	case string:
		if _, err := fmt.Sscan(v, &n); err != nil {
			return fmt.Errorf("scan attempt limit %q: %w", v, err)
		}
	default:
		return fmt.Errorf("scan attempt limit: unsupported type %T", src)
	}
	if n == LegacyUnlimitedAttempts {
		*l = Unlimited()
		return nil
	}
	*l = Limited(int(n))
	return nil
}

// GormDataType keeps AutoMigrate from guessing a struct column.
func (AttemptLimit) GormDataType() string { return "int" }

func (l AttemptLimit) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Ptr())
}

func (l *AttemptLimit) UnmarshalJSON(b []byte) error {
	var n *int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*l = AttemptLimitFromPtr(n)
	return nil
}
