package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// ServiceKind is what a lead asks for.
type ServiceKind int

const (
	ServiceNone ServiceKind = iota
	ServiceProduct
	ServiceDiagnostic
	ServiceRepair
)

var serviceNames = [...]string{
	ServiceNone:       "none",
	ServiceProduct:    "product",
	ServiceDiagnostic: "diagnostic",
	ServiceRepair:     "repair",
}

func (k ServiceKind) String() string {
	if k < 0 || int(k) >= len(serviceNames) {
		return fmt.Sprintf("ServiceKind(%d)", int(k))
	}
	return serviceNames[k]
}

// ParseServiceKind is the inverse of String.
func ParseServiceKind(s string) (ServiceKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ServiceNone, nil
	}
	for i, name := range serviceNames {
		if name == s {
			return ServiceKind(i), nil
		}
	}
	return ServiceNone, fmt.Errorf("unknown service kind %q", s)
}

func (k ServiceKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(serviceNames) {
		return nil, fmt.Errorf("invalid service kind %d", int(k))
	}
	return []byte(serviceNames[k]), nil
}

func (k *ServiceKind) UnmarshalText(b []byte) error {
	v, err := ParseServiceKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Value stores the kind by name.
func (k ServiceKind) Value() (driver.Value, error) {
	b, err := k.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a kind stored by Value.
func (k *ServiceKind) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	case nil:
		*k = ServiceNone
		return nil
	}
	return fmt.Errorf("cannot scan %T into ServiceKind", src)
}
