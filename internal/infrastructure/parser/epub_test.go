package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>The Fellowship of the Ring</dc:title>
    <dc:creator opf:role="aut">J. R. R. Tolkien</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier opf:scheme="ISBN">978-0-547-92821-0</dc:identifier>
    <dc:publisher>Houghton Mifflin</dc:publisher>
    <dc:date>1954-07-29</dc:date>
    <dc:description>&lt;p&gt;The first part of &lt;b&gt;The Lord of the Rings&lt;/b&gt;.&lt;/p&gt;</dc:description>
    <dc:subject>Fantasy</dc:subject>
    <dc:subject>Adventure</dc:subject>
    <meta name="calibre:series" content="The Lord of the Rings"/>
    <meta name="calibre:series_index" content="1.0"/>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="cover-img" href="images/cover.jpg" media-type="image/jpeg"/>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
</package>`

var testCoverBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func writeTestEPUB(t *testing.T, entries map[string][]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return path
}

func defaultEPUBEntries() map[string][]byte {
	return map[string][]byte{
		"mimetype":               []byte("application/epub+zip"),
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf":      []byte(testOPF),
		"OEBPS/images/cover.jpg": testCoverBytes,
		"OEBPS/chapter1.xhtml":   []byte("<html><body>Chapter 1</body></html>"),
	}
}

func TestEPUBParseMetadata(t *testing.T) {
	path := writeTestEPUB(t, defaultEPUBEntries())
	p := &EPUBParser{}

	md := p.ParseMetadata(path)
	require.NotNil(t, md)
	assert.Empty(t, md.ParsingError)

	assert.Equal(t, FormatEPUB, md.Format)
	assert.Equal(t, "The Fellowship of the Ring", md.Title)
	require.Len(t, md.Authors, 1)
	assert.Equal(t, "J. R. R. Tolkien", md.Authors[0].Name)
	assert.Equal(t, "en", md.Language)
	assert.Equal(t, "Houghton Mifflin", md.Publisher)
	assert.Equal(t, "1954-07-29", md.PublicationDate)
	assert.Equal(t, "9780547928210", md.ISBN13)
	assert.Empty(t, md.ISBN10)
	assert.Equal(t, []string{"Fantasy", "Adventure"}, md.Tags)
	assert.Equal(t, "The Lord of the Rings", md.SeriesName)
	require.NotNil(t, md.SeriesIndex)
	assert.Equal(t, 1.0, *md.SeriesIndex)
	assert.Equal(t, "The first part of The Lord of the Rings .", md.Description)

	require.Len(t, md.Identifiers, 1)
	assert.Equal(t, "ISBN_13", md.Identifiers[0].Type)
	assert.Equal(t, "9780547928210", md.Identifiers[0].Value)
}

func TestEPUBParseMetadataMissingContainer(t *testing.T) {
	path := writeTestEPUB(t, map[string][]byte{
		"mimetype": []byte("application/epub+zip"),
	})
	p := &EPUBParser{}

	md := p.ParseMetadata(path)
	require.NotNil(t, md)
	assert.Equal(t, FormatEPUB, md.Format)
	assert.NotEmpty(t, md.ParsingError, "broken container is recorded, not fatal")
	assert.Empty(t, md.Title)
}

func TestEPUBParseMetadataNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.epub")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip archive"), 0o644))
	p := &EPUBParser{}

	md := p.ParseMetadata(path)
	require.NotNil(t, md)
	assert.NotEmpty(t, md.ParsingError)
}

func TestEPUBExtractCoverViaMetaTag(t *testing.T) {
	path := writeTestEPUB(t, defaultEPUBEntries())
	p := &EPUBParser{}

	data, mediaType, err := p.ExtractCover(path)
	require.NoError(t, err)
	assert.Equal(t, testCoverBytes, data)
	assert.Equal(t, "image/jpeg", mediaType)
}

func TestEPUBExtractCoverEPUB3Property(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Modern Book</dc:title>
  </metadata>
  <manifest>
    <item id="art" href="images/front.png" properties="cover-image" media-type="image/png"/>
  </manifest>
</package>`

	entries := map[string][]byte{
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf":      []byte(opf),
		"OEBPS/images/front.png": []byte("png-bytes"),
	}
	path := writeTestEPUB(t, entries)
	p := &EPUBParser{}

	data, mediaType, err := p.ExtractCover(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", mediaType)
}

func TestEPUBExtractCoverFilenameHeuristic(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Legacy Book</dc:title>
  </metadata>
  <manifest>
    <item id="img1" href="Cover_Art.jpeg" media-type="image/jpeg"/>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
</package>`

	entries := map[string][]byte{
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf":      []byte(opf),
		"OEBPS/Cover_Art.jpeg":   []byte("jpeg-bytes"),
	}
	path := writeTestEPUB(t, entries)
	p := &EPUBParser{}

	data, mediaType, err := p.ExtractCover(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "image/jpeg", mediaType)
}

func TestEPUBExtractCoverNone(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Plain Book</dc:title>
  </metadata>
  <manifest>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
</package>`

	entries := map[string][]byte{
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf":      []byte(opf),
		"OEBPS/chapter1.xhtml":   []byte("<html></html>"),
	}
	path := writeTestEPUB(t, entries)
	p := &EPUBParser{}

	data, mediaType, err := p.ExtractCover(path)
	require.NoError(t, err)
	assert.Nil(t, data, "no cover is not an error")
	assert.Empty(t, mediaType)
}
