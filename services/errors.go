package services

import "errors"

var (
	ErrNoFile              = errors.New("no file uploaded")
	ErrDisallowedExtension = errors.New("file extension not allowed")
	ErrInvalidImage        = errors.New("uploaded file is not a valid image")
	ErrInvalidComicID      = errors.New("invalid comic id")
	ErrComicNotFound       = errors.New("comic not found")
	ErrKomaNotFound        = errors.New("koma not found")
	ErrComicDeleted        = errors.New("comic is deleted")
	ErrEmptyMessage        = errors.New("message is empty")
)
