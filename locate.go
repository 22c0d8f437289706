package epub

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// packageInfo is everything located at open time: where the package document
// lives, which document is the navigation document, and what it contains.
type packageInfo struct {
	// PackagePath is the archive path of the OPF file.
	PackagePath string

	// PackageDir is the directory of the OPF file ("" at the archive root).
	// Every path inside the package and navigation documents is resolved
	// against it.
	PackageDir string

	// NavPath is the archive path of the NCX navigation document.
	NavPath string

	Title   string
	Author  string
	Entries []NavEntry
	Package *opfPackage
}

// locate walks container.xml → OPF → NCX. Any missing structural element
// fails with ErrMalformedPackage.
func locate(a *Archive, log *zap.Logger) (packageInfo, error) {
	opfPath, err := parseContainer(a)
	if err != nil {
		return packageInfo{}, err
	}
	info := packageInfo{
		PackagePath: opfPath,
		PackageDir:  parentDir(opfPath),
	}

	opfData, err := a.Read(opfPath)
	if err != nil {
		return packageInfo{}, missingAsMalformed("OPF", opfPath, err)
	}
	if info.Package, err = parseOPF(opfData); err != nil {
		return packageInfo{}, err
	}

	item, err := info.Package.ncxItem()
	if err != nil {
		return packageInfo{}, err
	}
	info.NavPath = Resolve(info.PackageDir, item.Href)

	ncxData, err := a.Read(info.NavPath)
	if err != nil {
		return packageInfo{}, missingAsMalformed("NCX", info.NavPath, err)
	}
	ncx, err := parseNCX(ncxData)
	if err != nil {
		return packageInfo{}, err
	}
	info.Title, info.Author, info.Entries = ncx.Title, ncx.Author, ncx.Entries

	log.Debug("Package located",
		zap.String("opf", info.PackagePath),
		zap.String("ncx", info.NavPath),
		zap.Int("entries", len(info.Entries)))
	return info, nil
}

// missingAsMalformed reports a package document referenced by the package
// chain but absent from the archive as ErrMalformedPackage.
func missingAsMalformed(kind, name string, err error) error {
	if errors.Is(err, ErrEntryMissing) {
		return fmt.Errorf("epub: %s file not found in archive: %s: %w", kind, name, ErrMalformedPackage)
	}
	return fmt.Errorf("epub: read %s file: %w", kind, err)
}
