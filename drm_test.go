package epub

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
)

const (
	algIDPFFont  = "http://www.idpf.org/2008/embedding"
	algAdobeFont = "http://ns.adobe.com/pdf/enc#RC"
	algAES128    = "http://www.w3.org/2001/04/xmlenc#aes128-cbc"
	algAES256    = "http://www.w3.org/2001/04/xmlenc#aes256-cbc"
)

// encrypted describes one <EncryptedData> block. keyInfo, when set, is the
// namespace of the <resource> element inside <KeyInfo>.
type encrypted struct {
	alg, uri, keyInfo string
}

func encryptionXML(data ...encrypted) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container" xmlns:enc="http://www.w3.org/2001/04/xmlenc#">`)
	for _, d := range data {
		fmt.Fprintf(&b, "\n  <enc:EncryptedData><enc:EncryptionMethod Algorithm=%q/>", d.alg)
		if d.keyInfo != "" {
			fmt.Fprintf(&b, `<KeyInfo xmlns="http://www.w3.org/2000/09/xmldsig#"><resource xmlns=%q/></KeyInfo>`, d.keyInfo)
		}
		fmt.Fprintf(&b, "<enc:CipherData><enc:CipherReference URI=%q/></enc:CipherData></enc:EncryptedData>", d.uri)
	}
	b.WriteString("\n</encryption>")
	return b.String()
}

func TestCheckDRM(t *testing.T) {
	font := encrypted{alg: algIDPFFont, uri: "OEBPS/fonts/a.otf"}
	adept := encrypted{alg: algAES128, uri: "OEBPS/chapter01.xhtml", keyInfo: "http://ns.adobe.com/adept"}

	tests := []struct {
		name           string
		files          map[string]string
		wantObfuscated []string
		wantErr        error
	}{
		{
			name:  "no encryption.xml",
			files: map[string]string{"mimetype": "application/epub+zip"},
		},
		{
			name:           "IDPF font obfuscation",
			files:          map[string]string{encryptionPath: encryptionXML(font)},
			wantObfuscated: []string{"OEBPS/fonts/a.otf"},
		},
		{
			name: "IDPF and Adobe font obfuscation",
			files: map[string]string{encryptionPath: encryptionXML(
				font,
				encrypted{alg: algAdobeFont, uri: "OEBPS/fonts/b.ttf"},
			)},
			wantObfuscated: []string{"OEBPS/fonts/a.otf", "OEBPS/fonts/b.ttf"},
		},
		{
			name:           "algorithm URI with surrounding spaces",
			files:          map[string]string{encryptionPath: encryptionXML(encrypted{alg: " " + algIDPFFont + " ", uri: "f.otf"})},
			wantObfuscated: []string{"f.otf"},
		},
		{
			name:    "Adobe ADEPT",
			files:   map[string]string{encryptionPath: encryptionXML(adept)},
			wantErr: ErrDRMProtected,
		},
		{
			name:    "ADEPT algorithm URI",
			files:   map[string]string{encryptionPath: encryptionXML(encrypted{alg: "http://ns.adobe.com/adept/enc#aes256-cbc", uri: "c.xhtml"})},
			wantErr: ErrDRMProtected,
		},
		{
			name:    "Readium LCP",
			files:   map[string]string{encryptionPath: encryptionXML(encrypted{alg: algAES256, uri: "c.xhtml", keyInfo: "http://readium.org/2014/01/lcp"})},
			wantErr: ErrDRMProtected,
		},
		{
			name:    "font obfuscation next to DRM",
			files:   map[string]string{encryptionPath: encryptionXML(font, adept)},
			wantErr: ErrDRMProtected,
		},
		{
			name:    "unknown algorithm",
			files:   map[string]string{encryptionPath: encryptionXML(encrypted{alg: "http://example.com/unknown", uri: "c.xhtml"})},
			wantErr: ErrDRMProtected,
		},
		{
			name:  "no EncryptedData",
			files: map[string]string{encryptionPath: encryptionXML()},
		},
		{
			name:    "FairPlay sinf.xml",
			files:   map[string]string{sinfPath: `<sinf/>`},
			wantErr: ErrDRMProtected,
		},
		{
			name:           "encryption.xml name in other case",
			files:          map[string]string{"meta-inf/Encryption.xml": encryptionXML(font)},
			wantObfuscated: []string{"OEBPS/fonts/a.otf"},
		},
		{
			name:    "unparseable encryption.xml",
			files:   map[string]string{encryptionPath: `<encryption><EncryptedData>`},
			wantErr: errUnreadableEncryption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obfuscated, err := checkDRM(buildTestArchive(t, tt.files))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("checkDRM() error = %v, want %v", err, tt.wantErr)
			}
			if !slices.Equal(obfuscated, tt.wantObfuscated) {
				t.Errorf("checkDRM() obfuscated = %v, want %v", obfuscated, tt.wantObfuscated)
			}
		})
	}
}
