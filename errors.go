package epubtext

import "errors"

// Sentinel errors returned by the epubtext package.
var (
	// ErrInvalidArchive indicates the input cannot be opened as a ZIP
	// container, or one of its entries cannot be materialized safely.
	ErrInvalidArchive = errors.New("epubtext: invalid archive")

	// ErrNoContentFound indicates that filtering produced zero text blocks
	// for the whole archive. No output file is written in that case.
	ErrNoContentFound = errors.New("epubtext: no content found")

	// ErrDRMProtected indicates the archive is encrypted
	// (e.g., Adobe ADEPT, Apple FairPlay, Readium LCP) and cannot be read.
	ErrDRMProtected = errors.New("epubtext: file is DRM protected")

	// ErrUnsafePath indicates an archive entry or href that would
	// escape the working tree (e.g., "../../etc/passwd").
	ErrUnsafePath = errors.New("epubtext: unsafe path")

	// ErrEntryTooLarge indicates an archive entry whose decompressed size
	// exceeds Options.MaxEntrySize.
	ErrEntryTooLarge = errors.New("epubtext: archive entry too large")
)
