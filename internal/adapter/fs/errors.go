package fs

import "errors"

var ErrInvalidUTF8 = errors.New("file is not valid UTF-8")
