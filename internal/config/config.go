package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config stores configuration for hackdesk server.
type Config struct {
	// DB contains database connection config.
	DB DB `json:"db"`
	// Server contains API server config.
	Server *Server `json:"server,omitempty"`
	// Storage contains file storage config.
	Storage *Storage `json:"storage,omitempty"`
	// SMTP contains mail delivery config.
	SMTP *SMTP `json:"smtp,omitempty"`
	// Security contains security config.
	Security *Security `json:"security,omitempty"`
	// LogLevel contains level of logging.
	LogLevel int `json:"log_level,omitempty"`
}

// Server contains API server config.
type Server struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Address returns string representation of server address.
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Security contains security config.
type Security struct {
	PasswordSalt string `json:"password_salt"`
}

// SMTP contains mail delivery config.
type SMTP struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password Secret `json:"password"`
}

// LoadFromFile loads configuration from JSON file.
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
