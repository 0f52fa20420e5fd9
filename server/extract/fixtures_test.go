package extract

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
)

// buildPDF writes a minimal PDF with one page per entry of pages. Each entry
// is drawn as a single text line; an empty entry yields a page without text.
// trailerExtra is spliced into the trailer dictionary.
func buildPDF(t *testing.T, pages []string, trailerExtra string) []byte {
	t.Helper()

	var objects []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		content := "0 0 m 10 10 l S"
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R %s>>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, trailerExtra, xrefOffset)
	return buf.Bytes()
}

var fixtureID = []byte("0123456789abcdef")

// passwordPad is the standard security handler padding string.
var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// encryptTrailer returns trailer entries for an RC4 40-bit document. When
// emptyPassword is set the /U entry matches the empty user password, so the
// file opens without prompting.
func encryptTrailer(t *testing.T, emptyPassword bool) string {
	t.Helper()

	owner := bytes.Repeat([]byte{0x5a}, 32)
	user := bytes.Repeat([]byte{0xaa}, 32)
	var perms int32 = -4

	if emptyPassword {
		p := uint32(perms)
		h := md5.New()
		h.Write(passwordPad)
		h.Write(owner)
		h.Write([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
		h.Write(fixtureID)
		key := h.Sum(nil)[:5]

		c, err := rc4.NewCipher(key)
		if err != nil {
			t.Fatalf("rc4: %v", err)
		}
		user = make([]byte, 32)
		c.XORKeyStream(user, passwordPad)
	}

	id := hex.EncodeToString(fixtureID)
	return fmt.Sprintf("/Encrypt << /Filter /Standard /V 1 /R 2 /O <%s> /U <%s> /P %d >> /ID [<%s> <%s>] ",
		hex.EncodeToString(owner), hex.EncodeToString(user), perms, id, id)
}

func b64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func b64s(s string) string {
	return b64([]byte(s))
}
