package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

const (
	encryptionPath = "META-INF/encryption.xml"

	// sinfPath is only present in Apple FairPlay protected books.
	sinfPath = "META-INF/sinf.xml"
)

// Font obfuscation algorithm URIs. These do NOT constitute DRM.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true, // IDPF font obfuscation
	"http://ns.adobe.com/pdf/enc#RC":     true, // Adobe font obfuscation
}

// errUnreadableEncryption reports an encryption.xml that is not well-formed.
// It says nothing about DRM, so opening continues with a warning.
var errUnreadableEncryption = errors.New("epub: unreadable encryption.xml")

type xmlEncryption struct {
	XMLName       xml.Name           `xml:"encryption"`
	EncryptedData []xmlEncryptedData `xml:"EncryptedData"`
}

type xmlEncryptedData struct {
	EncryptionMethod struct {
		Algorithm string `xml:"Algorithm,attr"`
	} `xml:"EncryptionMethod"`
	CipherReference struct {
		URI string `xml:"URI,attr"`
	} `xml:"CipherData>CipherReference"`
}

// checkDRM inspects META-INF/encryption.xml and META-INF/sinf.xml. It
// returns ErrDRMProtected when any resource is encrypted with something other
// than a font obfuscation algorithm, errUnreadableEncryption when
// encryption.xml cannot be parsed, and the list of obfuscated resources
// otherwise.
func checkDRM(a *Archive) (obfuscated []string, err error) {
	if a.Contains(sinfPath) {
		return nil, ErrDRMProtected
	}
	if !a.Contains(encryptionPath) {
		return nil, nil
	}

	data, err := a.Read(encryptionPath)
	if err != nil {
		return nil, err
	}

	var enc xmlEncryption
	if err := xml.Unmarshal(stripBOM(data), &enc); err != nil {
		return nil, fmt.Errorf("%w: %w", errUnreadableEncryption, err)
	}

	for _, ed := range enc.EncryptedData {
		if !fontObfuscationAlgorithms[strings.TrimSpace(ed.EncryptionMethod.Algorithm)] {
			return nil, ErrDRMProtected
		}
		obfuscated = append(obfuscated, ed.CipherReference.URI)
	}
	return obfuscated, nil
}
