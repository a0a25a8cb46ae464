package config

import (
	"errors"
)

var (
	ErrInvalidRepository = errors.New("repository entry invalid")
	ErrConfigLoadFailed  = errors.New("failed to load configuration")
)
