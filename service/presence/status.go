package presence

import "strings"

// Status ユーザーの在席状態
type Status int

const (
	// StatusOffline オフライン
	StatusOffline Status = iota
	// StatusOnline オンライン
	StatusOnline
	// StatusIdle 一定時間無操作
	StatusIdle
)

// String string表記にします
func (s Status) String() string {
	return statusStrings[s]
}

// MarshalText encoding.TextMarshalerインターフェイスの実装
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText encoding.TextUnmarshalerインターフェイスの実装
func (s *Status) UnmarshalText(b []byte) error {
	*s = StatusFromString(string(b))
	return nil
}

// StatusFromString stringからpresence.Statusに変換します
func StatusFromString(s string) Status {
	return stringStatuses[strings.ToLower(s)]
}

var statusStrings = map[Status]string{
	StatusOffline: "offline",
	StatusOnline:  "online",
	StatusIdle:    "idle",
}

var stringStatuses map[string]Status

func init() {
	stringStatuses = map[string]Status{}
	for v, k := range statusStrings {
		stringStatuses[k] = v
	}
}
