package dynamo

import (
	"fmt"
	"strings"
)

// Method selects an integration scheme.
type Method int

const (
	Euler Method = iota
	Heun
	RK4
	RKF45
	DP5
)

var methodNames = [...]string{
	Euler: "euler",
	Heun:  "heun",
	RK4:   "rk4",
	RKF45: "rkf45",
	DP5:   "dp5",
}

// Methods lists every scheme in declaration order.
func Methods() []Method {
	return []Method{Euler, Heun, RK4, RKF45, DP5}
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("method(%d)", int(m))
	}
	return methodNames[m]
}

// Adaptive reports whether the scheme uses an embedded error estimate.
func (m Method) Adaptive() bool {
	return m == RKF45 || m == DP5
}

func (m Method) Valid() bool {
	return m >= Euler && m <= DP5
}

// ParseMethod accepts scheme names case-insensitively; "rk2" is Heun.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "euler":
		return Euler, nil
	case "heun", "rk2":
		return Heun, nil
	case "rk4":
		return RK4, nil
	case "rkf45":
		return RKF45, nil
	case "dp5", "dopri5":
		return DP5, nil
	}
	return 0, &ConfigError{Field: "method", Value: name, Reason: "unknown integration method"}
}

func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid method %d", int(m))
	}
	return []byte(strings.ToUpper(m.String())), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
