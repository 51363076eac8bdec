package corpus

import "errors"

var (
	ErrEmptyCorpus     = errors.New("corpus: no documents")
	ErrTokenOutOfRange = errors.New("corpus: token index outside vocabulary")
	ErrBadVocabSize    = errors.New("corpus: vocabulary size must be positive")
	ErrBadFormat       = errors.New("corpus: malformed line")
)
