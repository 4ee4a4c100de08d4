package model

import (
	"encoding/json"
	"fmt"
)

// CheckStatus is the outcome of a single detail check. NotChecked is distinct
// from Failed: it means the check never ran.
type CheckStatus int

const (
	CheckNotChecked CheckStatus = iota
	CheckPassed
	CheckFailed
)

// CheckOf maps a boolean outcome to a status.
func CheckOf(ok bool) CheckStatus {
	if ok {
		return CheckPassed
	}
	return CheckFailed
}

func (s CheckStatus) String() string {
	switch s {
	case CheckPassed:
		return "passed"
	case CheckFailed:
		return "failed"
	default:
		return "not_checked"
	}
}

// Bool returns the outcome and whether the check ran at all.
func (s CheckStatus) Bool() (passed, checked bool) {
	return s == CheckPassed, s != CheckNotChecked
}

// MarshalJSON encodes the status as its string form.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the string form.
func (s *CheckStatus) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v {
	case "passed":
		*s = CheckPassed
	case "failed":
		*s = CheckFailed
	case "not_checked", "":
		*s = CheckNotChecked
	default:
		return fmt.Errorf("unknown check status %q", v)
	}
	return nil
}

// MarshalYAML encodes the status as its string form.
func (s CheckStatus) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}
