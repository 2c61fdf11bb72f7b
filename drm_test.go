package epubtext

import (
	"errors"
	"testing"
)

func TestCheckDRM(t *testing.T) {
	encryption := func(algorithms ...string) string {
		s := `<?xml version="1.0"?><encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container"
			xmlns:enc="http://www.w3.org/2001/04/xmlenc#">`
		for _, alg := range algorithms {
			s += `<enc:EncryptedData><enc:EncryptionMethod Algorithm="` + alg + `"/>
				<enc:CipherData><enc:CipherReference URI="OEBPS/font.otf"/></enc:CipherData></enc:EncryptedData>`
		}
		return s + `</encryption>`
	}

	tests := []struct {
		name     string
		files    map[string]string
		wantFont bool
		wantDRM  bool
	}{
		{name: "no encryption", files: map[string]string{"OEBPS/ch1.xhtml": "x"}},
		{name: "empty encryption", files: map[string]string{"META-INF/encryption.xml": encryption()}},
		{
			name:     "idpf font obfuscation",
			files:    map[string]string{"META-INF/encryption.xml": encryption("http://www.idpf.org/2008/embedding")},
			wantFont: true,
		},
		{
			name:     "adobe font obfuscation",
			files:    map[string]string{"META-INF/encryption.xml": encryption("http://ns.adobe.com/pdf/enc#RC")},
			wantFont: true,
		},
		{
			name:    "content encryption",
			files:   map[string]string{"META-INF/encryption.xml": encryption("http://www.idpf.org/2008/embedding", "http://www.w3.org/2001/04/xmlenc#aes128-cbc")},
			wantDRM: true,
		},
		{
			name:    "unparsable descriptor",
			files:   map[string]string{"META-INF/encryption.xml": "<encryption>"},
			wantDRM: true,
		},
		{
			name:    "fairplay",
			files:   map[string]string{"META-INF/sinf.xml": "<sinf/>"},
			wantDRM: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := buildTestTree(t, tt.files)
			font, err := checkDRM(tree)
			if tt.wantDRM {
				if !errors.Is(err, ErrDRMProtected) {
					t.Errorf("checkDRM() error = %v, want ErrDRMProtected", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("checkDRM() error = %v", err)
			}
			if font != tt.wantFont {
				t.Errorf("font obfuscation = %v, want %v", font, tt.wantFont)
			}
		})
	}
}
