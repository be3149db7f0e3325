package domain

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

var extensionFormats = map[string]Format{
	"jpg":  FormatJPEG,
	"jpeg": FormatJPEG,
	"png":  FormatPNG,
}

// FormatForExtension resolves an accepted file extension. Matching is case-sensitive.
func FormatForExtension(ext string) (Format, bool) {
	format, ok := extensionFormats[ext]
	return format, ok
}

// Supported reports whether a decoded format name can be served.
func Supported(format string) bool {
	switch Format(format) {
	case FormatJPEG, FormatPNG:
		return true
	default:
		return false
	}
}

func (f Format) ContentType() string {
	return "image/" + string(f)
}

type ImageOptions struct {
	Format Format
	Width  int
	Height int
}

// SourceMetadata describes the fetched bytes as decoded, regardless of the key's extension.
type SourceMetadata struct {
	Format string
	Width  int
	Height int
}
