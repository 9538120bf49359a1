package syncErrors

import "errors"

var ErrNoDatasetEntry = errors.New("no dataset entry for key")

var ErrNoDocumentURI = errors.New("dataset entry has no document uri for category")

var ErrEmptyDownload = errors.New("downloaded document is empty")

var ErrNotPDF = errors.New("downloaded document is not a PDF")

var ErrFileUnreferenced = errors.New("file is not referenced by any row")

var ErrFileNotFound = errors.New("file record not found")

var ErrRowNotFound = errors.New("riwayat jabatan row not found")

var ErrNoBasename = errors.New("source uri has no basename")

var ErrUnknownCategory = errors.New("unknown file category")

var ErrTokenUnavailable = errors.New("could not acquire BKN token")
