package parser

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser đọc document Info dictionary (best effort).
// PDF metadata nghèo hơn EPUB nhiều: không có identifiers, series hay language.
type PDFParser struct{}

func (p *PDFParser) ParseMetadata(filePath string) *Metadata {
	metadata := &Metadata{Format: FormatPDF}

	// pdf library panic trên một số malformed files - recover và ghi nhận
	// như một parsing error thay vì crash pipeline
	defer func() {
		if r := recover(); r != nil {
			metadata.ParsingError = fmt.Sprintf("pdf parse panic: %v", r)
		}
	}()

	file, reader, err := pdf.Open(filePath)
	if err != nil {
		metadata.ParsingError = err.Error()
		return metadata
	}
	defer file.Close()

	metadata.PageCount = reader.NumPage()

	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return metadata
	}

	metadata.Title = strings.TrimSpace(infoString(info, "Title"))

	// Nhiều tools ghi nhiều tác giả phân cách bằng ";"
	for _, name := range strings.Split(infoString(info, "Author"), ";") {
		if name = strings.TrimSpace(name); name != "" {
			metadata.Authors = append(metadata.Authors, Author{Name: name})
		}
	}

	metadata.Publisher = strings.TrimSpace(infoString(info, "Producer"))
	metadata.Description = strings.TrimSpace(infoString(info, "Subject"))

	if date := formatPDFDate(infoString(info, "CreationDate")); date != "" {
		metadata.PublicationDate = date
	}

	for _, tag := range strings.Split(infoString(info, "Keywords"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			metadata.Tags = append(metadata.Tags, tag)
		}
	}

	return metadata
}

// ExtractCover: rasterize trang đầu cần native PDF renderer - không khả thi
// ở đây. Cover absence là non-fatal cho ingestion.
func (p *PDFParser) ExtractCover(filePath string) ([]byte, string, error) {
	return nil, "", nil
}

func infoString(info pdf.Value, key string) string {
	v := info.Key(key)
	if v.Kind() != pdf.String {
		return ""
	}
	return v.Text()
}

// formatPDFDate convert "D:YYYYMMDDHHmmSS..." sang "YYYY-MM-DD"
func formatPDFDate(raw string) string {
	if !strings.HasPrefix(raw, "D:") || len(raw) < 10 {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", raw[2:6], raw[6:8], raw[8:10])
}
