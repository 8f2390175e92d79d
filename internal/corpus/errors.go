package corpus

import "errors"

var (
	// ErrCorpusRootMissing is returned by Build and Refresh when the corpus
	// root does not exist or is not a directory.
	ErrCorpusRootMissing = errors.New("corpus root missing")

	// ErrInvalidMode is returned when parsing an unknown mode name.
	ErrInvalidMode = errors.New("invalid index mode")
)
