package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type SecretKind string

const (
	DataSecret SecretKind = "data"
	FileSecret SecretKind = "file"
	EnvSecret  SecretKind = "env"
)

// Secret represents a value that can be passed as plain text,
// read from a file or taken from an environment variable.
type Secret struct {
	Kind SecretKind `json:"kind"`
	Data string     `json:"data"`
}

// GetValue resolves value of secret.
func (s Secret) GetValue() (string, error) {
	switch s.Kind {
	case DataSecret, "":
		return s.Data, nil
	case FileSecret:
		bytes, err := os.ReadFile(s.Data)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(bytes), "\r\n"), nil
	case EnvSecret:
		value, ok := os.LookupEnv(s.Data)
		if !ok {
			return "", fmt.Errorf("environment variable %q does not exist", s.Data)
		}
		return value, nil
	default:
		return "", fmt.Errorf("unsupported secret kind %q", s.Kind)
	}
}

func (s *Secret) UnmarshalJSON(bytes []byte) error {
	var data string
	if err := json.Unmarshal(bytes, &data); err == nil {
		s.Kind, s.Data = DataSecret, data
		return nil
	}
	var secret struct {
		Kind SecretKind `json:"kind"`
		Data string     `json:"data"`
	}
	if err := json.Unmarshal(bytes, &secret); err != nil {
		return err
	}
	s.Kind, s.Data = secret.Kind, secret.Data
	return nil
}
