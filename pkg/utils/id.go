package utils

import (
	"github.com/lithammer/shortuuid/v3"
)

const (
	APIKeyPrefix = "API"
	EgressPrefix = "EG_"
)

func NewGuid(prefix string) string {
	return prefix + shortuuid.New()
}
