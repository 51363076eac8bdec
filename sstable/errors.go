package sstable

import "errors"

var ErrCorrupted = errors.New("sstable: model corrupted")
