package upload

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

var imageTypes = setOf("image/jpeg", "image/png")

var documentTypes = setOf(
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"image/jpeg",
	"image/png",
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

const (
	msgEmptyFile        = "Dosya seçilmedi veya dosya boş"
	msgImageTooLarge    = "Resim boyutu 5MB'dan büyük olamaz"
	msgDocumentTooLarge = "Belge boyutu 10MB'dan büyük olamaz"
	msgImageType        = "Sadece JPEG ve PNG formatında resim yükleyebilirsiniz"
	msgDocumentType     = "Sadece PDF, Word, Excel, JPEG ve PNG dosyaları yükleyebilirsiniz"
	msgUnreadable       = "Dosya okunamadı"
)

// ValidateFile checks size and the sniffed content type against the image
// or document rules.
func ValidateFile(fh *multipart.FileHeader, isImage bool) ValidationResult {
	_, res := inspect(fh, isImage)
	return res
}

// inspect validates fh and returns the content type its bytes carry.
// The declared part type is not trusted.
func inspect(fh *multipart.FileHeader, isImage bool) (string, ValidationResult) {
	if fh == nil || fh.Size <= 0 {
		return "", ValidationResult{Error: msgEmptyFile}
	}

	limit, tooLarge := int64(MaxDocumentSize), msgDocumentTooLarge
	allowed, badType := documentTypes, msgDocumentType
	if isImage {
		limit, tooLarge = MaxImageSize, msgImageTooLarge
		allowed, badType = imageTypes, msgImageType
	}

	if fh.Size > limit {
		return "", ValidationResult{Error: tooLarge}
	}
	ct, err := detectContentType(fh)
	if err != nil {
		return "", ValidationResult{Error: msgUnreadable}
	}
	if !allowed[ct] {
		return "", ValidationResult{Error: badType}
	}
	return ct, ValidationResult{Valid: true}
}

// Office files sniff as containers; the extension names the format inside.
var (
	oleMagic = []byte("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1")

	oleFormats = map[string]string{
		".doc": "application/msword",
		".xls": "application/vnd.ms-excel",
	}
	zipFormats = map[string]string{
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
)

// detectContentType sniffs the first 512 bytes like the stdlib file server.
func detectContentType(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	buf = buf[:n]

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if bytes.HasPrefix(buf, oleMagic) {
		if ct, ok := oleFormats[ext]; ok {
			return ct, nil
		}
		return "application/x-ole-storage", nil
	}

	ct := strings.TrimSpace(strings.Split(http.DetectContentType(buf), ";")[0])
	if ct == "application/zip" {
		if office, ok := zipFormats[ext]; ok {
			return office, nil
		}
	}
	return ct, nil
}

// extension maps a checked content type to the suffix objects are stored
// with. The client's filename never decides it.
func extension(ct string) string {
	switch ct {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	case "application/msword":
		return ".doc"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	case "application/vnd.ms-excel":
		return ".xls"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ".xlsx"
	}
	return ".bin"
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if strings.Trim(name, "_") == "" {
		return "file"
	}
	return name
}

// validSegment accepts ids and labels that are safe as one path element.
func validSegment(s string) bool {
	if s == "" || len(s) > 64 || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}
