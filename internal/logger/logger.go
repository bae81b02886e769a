package logger

import (
	"go.uber.org/zap"
)

// New builds a zap logger for the given environment. Production uses JSON
// output, anything else the human-readable development encoder.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewNamed builds an environment-appropriate logger named after the service.
func NewNamed(env, service string) (*zap.Logger, error) {
	l, err := New(env)
	if err != nil {
		return nil, err
	}
	return l.Named(service), nil
}
