// Package repository holds the gorm-backed persistence of users, images and
// their AI metadata.
package repository

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)
