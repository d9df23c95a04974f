package photo

import "errors"

var (
	ErrPhotoNotFound    = errors.New("photo not found")
	ErrUnsupportedImage = errors.New("file is not a supported image type")
	ErrEmptyFile        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file exceeds the maximum upload size")
)
