package epubtext

import (
	"encoding/xml"
	"os"
	"strings"
)

// encryptionFilePath is the standard path for the encryption descriptor.
const encryptionFilePath = "META-INF/encryption.xml"

// sinfFilePath is the path that indicates Apple FairPlay DRM.
const sinfFilePath = "META-INF/sinf.xml"

// Font obfuscation algorithm URIs – these do NOT constitute DRM.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true, // IDPF font obfuscation
	"http://ns.adobe.com/pdf/enc#RC":     true, // Adobe font obfuscation
}

// XML structures for parsing encryption.xml.

type xmlEncryption struct {
	XMLName       xml.Name           `xml:"encryption"`
	EncryptedData []xmlEncryptedData `xml:"EncryptedData"`
}

type xmlEncryptedData struct {
	EncryptionMethod xmlEncryptionMethod `xml:"EncryptionMethod"`
}

type xmlEncryptionMethod struct {
	Algorithm string `xml:"Algorithm,attr"`
}

// checkDRM inspects META-INF/encryption.xml (if present) in the working tree
// and determines whether the ePub is DRM-protected or merely uses font
// obfuscation. Fonts never contribute text, so obfuscation only earns a
// warning.
//
// Returns:
//   - (false, nil)             – no encryption.xml found or it's empty
//   - (true,  nil)             – only font obfuscation entries detected
//   - (false, ErrDRMProtected) – anything else is encrypted
func checkDRM(t *WorkTree) (fontObfuscation bool, err error) {
	if _, ok := t.Lookup(sinfFilePath); ok {
		return false, ErrDRMProtected
	}

	p, ok := t.Lookup(encryptionFilePath)
	if !ok {
		return false, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return false, err
	}

	var enc xmlEncryption
	if err := xml.Unmarshal(stripBOM(data), &enc); err != nil {
		// If we can't parse it, treat conservatively as potential DRM.
		return false, ErrDRMProtected
	}

	for _, ed := range enc.EncryptedData {
		if !fontObfuscationAlgorithms[strings.TrimSpace(ed.EncryptionMethod.Algorithm)] {
			return false, ErrDRMProtected
		}
		fontObfuscation = true
	}
	return fontObfuscation, nil
}
