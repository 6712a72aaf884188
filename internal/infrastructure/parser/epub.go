package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// EPUBParser đọc EPUB container (zip): META-INF/container.xml → OPF package
// document → Dublin Core metadata + manifest.
type EPUBParser struct{}

// container.xml trỏ tới OPF package document
type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// OPF package document - metadata (Dublin Core) + manifest.
// Tag match theo local name nên chấp nhận cả EPUB 2 lẫn EPUB 3 namespaces.
type opfPackage struct {
	Metadata struct {
		Titles   []string `xml:"title"`
		Creators []struct {
			Name string `xml:",chardata"`
			Role string `xml:"role,attr"`
		} `xml:"creator"`
		Languages   []string `xml:"language"`
		Identifiers []struct {
			Value  string `xml:",chardata"`
			Scheme string `xml:"scheme,attr"`
		} `xml:"identifier"`
		Publishers   []string `xml:"publisher"`
		Dates        []string `xml:"date"`
		Descriptions []string `xml:"description"`
		Subjects     []string `xml:"subject"`
		Metas        []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []opfItem `xml:"item"`
	} `xml:"manifest"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

func (p *EPUBParser) ParseMetadata(filePath string) *Metadata {
	metadata := &Metadata{Format: FormatEPUB}

	pkg, _, err := readPackage(filePath)
	if err != nil {
		metadata.ParsingError = err.Error()
		return metadata
	}

	m := pkg.Metadata

	if len(m.Titles) > 0 {
		metadata.Title = strings.TrimSpace(m.Titles[0])
	}

	for _, creator := range m.Creators {
		name := strings.TrimSpace(creator.Name)
		if name == "" {
			continue
		}
		metadata.Authors = append(metadata.Authors, Author{Name: name})
	}

	if len(m.Languages) > 0 {
		metadata.Language = strings.TrimSpace(m.Languages[0])
	}

	for _, id := range m.Identifiers {
		value := strings.TrimSpace(id.Value)
		if value == "" {
			continue
		}

		scheme := strings.ToUpper(strings.TrimSpace(id.Scheme))
		if scheme == "" {
			scheme = "UNKNOWN"
		}

		if strings.Contains(scheme, "ISBN") {
			cleaned := keepAlnum(value)
			switch len(cleaned) {
			case 10:
				metadata.Identifiers = append(metadata.Identifiers, Identifier{Type: "ISBN_10", Value: cleaned})
				metadata.ISBN10 = cleaned
			case 13:
				metadata.Identifiers = append(metadata.Identifiers, Identifier{Type: "ISBN_13", Value: cleaned})
				metadata.ISBN13 = cleaned
			default:
				metadata.Identifiers = append(metadata.Identifiers, Identifier{Type: scheme, Value: value})
			}
			continue
		}

		metadata.Identifiers = append(metadata.Identifiers, Identifier{Type: scheme, Value: value})
	}

	if len(m.Publishers) > 0 {
		metadata.Publisher = strings.TrimSpace(m.Publishers[0])
	}

	if len(m.Dates) > 0 {
		metadata.PublicationDate = strings.TrimSpace(m.Dates[0])
	}

	if len(m.Descriptions) > 0 {
		// Description thường chứa HTML markup - strip về plain text
		metadata.Description = stripHTML(m.Descriptions[0])
	}

	for _, subject := range m.Subjects {
		if s := strings.TrimSpace(subject); s != "" {
			metadata.Tags = append(metadata.Tags, s)
		}
	}

	// Calibre lưu series qua meta tags
	for _, meta := range m.Metas {
		switch meta.Name {
		case "calibre:series":
			metadata.SeriesName = strings.TrimSpace(meta.Content)
		case "calibre:series_index":
			if idx, err := strconv.ParseFloat(strings.TrimSpace(meta.Content), 64); err == nil {
				metadata.SeriesIndex = &idx
			}
		}
	}

	return metadata
}

// ExtractCover tìm cover image theo 3 chiến lược, theo thứ tự:
//  1. manifest item có properties="cover-image" (EPUB 3)
//  2. <meta name="cover" content="..."/> trỏ tới manifest item id (EPUB 2)
//  3. heuristic: image item có tên chứa "cover"
func (p *EPUBParser) ExtractCover(filePath string) ([]byte, string, error) {
	pkg, opfPath, err := readPackage(filePath)
	if err != nil {
		return nil, "", err
	}

	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open epub: %w", err)
	}
	defer reader.Close()

	var cover *opfItem

	// Strategy 1: EPUB 3 cover-image property
	for i, item := range pkg.Manifest.Items {
		if strings.Contains(item.Properties, "cover-image") && isImageType(item.MediaType) {
			cover = &pkg.Manifest.Items[i]
			break
		}
	}

	// Strategy 2: EPUB 2 meta name="cover" → item id
	if cover == nil {
		coverID := ""
		for _, meta := range pkg.Metadata.Metas {
			if meta.Name == "cover" && meta.Content != "" {
				coverID = meta.Content
				break
			}
		}
		if coverID != "" {
			for i, item := range pkg.Manifest.Items {
				if item.ID == coverID && isImageType(item.MediaType) {
					cover = &pkg.Manifest.Items[i]
					break
				}
			}
		}
	}

	// Strategy 3: filename heuristic
	if cover == nil {
		for i, item := range pkg.Manifest.Items {
			if !isImageType(item.MediaType) {
				continue
			}
			if strings.Contains(strings.ToLower(path.Base(item.Href)), "cover") {
				cover = &pkg.Manifest.Items[i]
				break
			}
		}
	}

	if cover == nil {
		return nil, "", nil
	}

	// Href là relative so với thư mục chứa OPF
	coverPath := path.Join(path.Dir(opfPath), cover.Href)
	data, err := readZipEntry(&reader.Reader, coverPath)
	if err != nil {
		// Một số EPUB dùng href tuyệt đối từ zip root
		data, err = readZipEntry(&reader.Reader, cover.Href)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read cover entry %s: %w", cover.Href, err)
		}
	}

	return data, cover.MediaType, nil
}

// readPackage mở EPUB zip, resolve container.xml và decode OPF document
func readPackage(filePath string) (*opfPackage, string, error) {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open epub: %w", err)
	}
	defer reader.Close()

	containerData, err := readZipEntry(&reader.Reader, "META-INF/container.xml")
	if err != nil {
		return nil, "", fmt.Errorf("missing container.xml: %w", err)
	}

	var c epubContainer
	if err := xml.Unmarshal(containerData, &c); err != nil {
		return nil, "", fmt.Errorf("invalid container.xml: %w", err)
	}
	if len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return nil, "", fmt.Errorf("container.xml declares no rootfile")
	}

	opfPath := c.Rootfiles[0].FullPath
	opfData, err := readZipEntry(&reader.Reader, opfPath)
	if err != nil {
		return nil, "", fmt.Errorf("missing package document %s: %w", opfPath, err)
	}

	var pkg opfPackage
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return nil, "", fmt.Errorf("invalid package document: %w", err)
	}

	return &pkg, opfPath, nil
}

func readZipEntry(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name == name {
			rc, err := file.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s not found", name)
}

func isImageType(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}

func keepAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripHTML bóc markup khỏi description, giữ lại text
func stripHTML(s string) string {
	doc, err := html.Parse(bytes.NewReader([]byte(s)))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			buf.WriteString(" ")
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}
