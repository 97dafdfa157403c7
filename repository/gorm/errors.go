package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/taskflow-dev/taskflow/repository"
)

func convertError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrAlreadyExists
	default:
		return err
	}
}
