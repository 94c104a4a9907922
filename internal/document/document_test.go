package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedExtension(t *testing.T) {
	supported := []string{"filing.txt", "notes.md", "notes.markdown", "report.html", "report.htm", "annual.pdf", "deck.docx", "UPPER.HTML"}
	for _, name := range supported {
		assert.True(t, IsSupportedExtension(name), name)
	}

	unsupported := []string{"data.csv", "archive.zip", "image.png", "noext", "report.xml"}
	for _, name := range unsupported {
		assert.False(t, IsSupportedExtension(name), name)
	}
}

func TestReadBytes_PlainText(t *testing.T) {
	data := []byte("First paragraph line one.\nLine two.\n\n\nSecond paragraph.\n")
	doc, err := (&Reader{}).ReadBytes("filing.txt", data)
	require.NoError(t, err)

	assert.Equal(t, "filing.txt", doc.Name)
	assert.Equal(t, data, doc.Raw)
	assert.False(t, doc.IsHTML)
	assert.Equal(t, "First paragraph line one.\nLine two.\n\nSecond paragraph.", doc.Text)
}

func TestReadBytes_Markdown(t *testing.T) {
	data := []byte("# Annual Report\n\nRevenue grew by **12%** this year.\n")
	doc, err := (&Reader{}).ReadBytes("report.md", data)
	require.NoError(t, err)

	assert.Contains(t, doc.Text, "Annual Report")
	assert.Contains(t, doc.Text, "Revenue grew by")
	assert.NotContains(t, doc.Text, "**")
	assert.NotContains(t, doc.Text, "#")
}

func TestReadBytes_MarkdownInlineMarkup(t *testing.T) {
	data := []byte("# Overview\n\n" +
		"Revenue grew by **12%** and `net` income rose *5%*.\n\n" +
		"- first item\n- second item\n\n" +
		"```\ntotal = a + b\n```\n")
	doc, err := (&Reader{}).ReadBytes("report.md", data)
	require.NoError(t, err)

	// Inline markers are dropped, their text kept.
	assert.Contains(t, doc.Text, "Revenue grew by 12% and net income rose 5%.")
	assert.NotContains(t, doc.Text, "*")
	assert.NotContains(t, doc.Text, "`")

	// List items stay on separate lines.
	assert.Contains(t, doc.Text, "first item\nsecond item")

	// Code blocks keep their raw source.
	assert.Contains(t, doc.Text, "total = a + b")
}

func TestReadBytes_MarkdownLongExtension(t *testing.T) {
	doc, err := (&Reader{}).ReadBytes("notes.markdown", []byte("plain line\n"))
	require.NoError(t, err)
	assert.Equal(t, "plain line", doc.Text)
}

func TestReadBytes_HTML(t *testing.T) {
	data := []byte(`<html><head><style>p{color:red}</style></head><body>
		<nav>Menu</nav>
		<p>Total revenue was $1.2 billion.</p>
		<table><tr><td>Assets</td><td>5,000</td></tr></table>
		<footer>Legal</footer>
	</body></html>`)
	doc, err := (&Reader{}).ReadBytes("filing.html", data)
	require.NoError(t, err)

	assert.True(t, doc.IsHTML)
	assert.Contains(t, doc.Text, "Total revenue was $1.2 billion.")
	assert.Contains(t, doc.Text, "Assets")
	assert.NotContains(t, doc.Text, "Menu")
	assert.NotContains(t, doc.Text, "Legal")
	assert.NotContains(t, doc.Text, "color:red")
}

func TestReadBytes_HTMExtension(t *testing.T) {
	doc, err := (&Reader{}).ReadBytes("filing.htm", []byte(`<html><body><p>hi</p></body></html>`))
	require.NoError(t, err)
	assert.True(t, doc.IsHTML)
}

func TestReadBytes_UnsupportedExtension(t *testing.T) {
	_, err := (&Reader{}).ReadBytes("data.csv", []byte("a,b\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestRead_FromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	doc, err := (&Reader{}).Read(path)
	require.NoError(t, err)
	assert.Equal(t, "note.txt", doc.Name)
	assert.Equal(t, "hello world", doc.Text)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := (&Reader{}).Read(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}
