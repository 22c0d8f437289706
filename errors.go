package epub

import "errors"

// Sentinel errors returned by the epub package.
var (
	// ErrNotFound indicates the ePub file does not exist or cannot be opened.
	ErrNotFound = errors.New("epub: file not found")

	// ErrCorruptArchive indicates the file cannot be read as a ZIP archive.
	ErrCorruptArchive = errors.New("epub: corrupt archive")

	// ErrMalformedPackage indicates container.xml, the OPF package document
	// or the NCX navigation document lacks a required element.
	ErrMalformedPackage = errors.New("epub: malformed package")

	// ErrEntryMissing indicates the requested path does not exist
	// in the ePub archive.
	ErrEntryMissing = errors.New("epub: entry not found in archive")

	// ErrDRMProtected indicates the ePub file is protected by DRM
	// (e.g., Adobe ADEPT, Apple FairPlay, Readium LCP) and cannot be read.
	ErrDRMProtected = errors.New("epub: file is DRM protected")

	// ErrNoCover indicates no cover image could be detected
	// using any of the supported strategies.
	ErrNoCover = errors.New("epub: no cover image found")

	// ErrNotImage indicates an archive entry is not a recognised image.
	ErrNotImage = errors.New("epub: entry is not an image")
)
