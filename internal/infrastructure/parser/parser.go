package parser

import (
	"path/filepath"
	"strings"
)

// Format tags - closed set, persisted trong books.format
const (
	FormatEPUB    = "EPUB"
	FormatPDF     = "PDF"
	FormatMobiAZW = "MOBI/AZW"
)

// Author là một entry trong ordered author list của book metadata
type Author struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Identifier là một external identifier (ISBN, ASIN, UUID...)
type Identifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Metadata là kết quả parse từ một book file.
// Mọi field đều optional - field nào parse được thì có giá trị.
// ParsingError ghi lại lỗi parse không fatal (ingestion vẫn tiếp tục).
type Metadata struct {
	Title           string
	Authors         []Author
	Publisher       string
	PublicationDate string
	ISBN10          string
	ISBN13          string
	Language        string
	SeriesName      string
	SeriesIndex     *float64
	Description     string
	Tags            []string
	Identifiers     []Identifier
	Format          string
	PageCount       int
	ParsingError    string
}

// Parser extract metadata và cover image từ một book format cụ thể
type Parser interface {
	// ParseMetadata đọc metadata từ file. Không bao giờ fail wholesale:
	// lỗi parse được ghi vào Metadata.ParsingError và ingestion tiếp tục
	// với phần metadata thu được.
	ParseMetadata(path string) *Metadata

	// ExtractCover trả về (raw image bytes, mime type).
	// File không có cover → (nil, "", nil) - không phải error.
	ExtractCover(path string) ([]byte, string, error)
}

// DetectFormat map file extension sang format tag.
// Extension không nằm trong closed set → ("", false).
func DetectFormat(filename string) (string, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".epub":
		return FormatEPUB, true
	case ".pdf":
		return FormatPDF, true
	case ".mobi", ".azw", ".azw3":
		return FormatMobiAZW, true
	default:
		return "", false
	}
}

// ForFormat trả về parser cho một format tag, nil nếu format không được hỗ trợ.
// MOBI/AZW group không có dedicated parser: minimal parser chỉ set format,
// title fallback về filename stem xảy ra ở pipeline.
func ForFormat(format string) Parser {
	switch format {
	case FormatEPUB:
		return &EPUBParser{}
	case FormatPDF:
		return &PDFParser{}
	case FormatMobiAZW:
		return &minimalParser{format: FormatMobiAZW}
	default:
		return nil
	}
}

// minimalParser cho các format được nhận diện nhưng không có metadata reader
type minimalParser struct {
	format string
}

func (p *minimalParser) ParseMetadata(path string) *Metadata {
	return &Metadata{Format: p.format}
}

func (p *minimalParser) ExtractCover(path string) ([]byte, string, error) {
	return nil, "", nil
}
