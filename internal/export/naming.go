package export

import (
	"fmt"
	"strings"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	fileTimestampLayout = "02012006-150405"
	suffixAlphabet      = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLength        = 6
)

// placeholderBinding is the viewer's loading placeholder binding. Published
// files are served statically and must not show it.
const placeholderBinding = `Ro("ngIf",e.showPlaceholder),`

// FileName builds response_<cad>[_<mapping>]_<ddMMyyyy-HHmmss>_<suffix>.html.
func FileName(req Request, at time.Time, suffix string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "response_%d", req.CADFileID)
	if req.MappingID != nil {
		fmt.Fprintf(&b, "_%d", *req.MappingID)
	}
	b.WriteString("_")
	b.WriteString(at.Format(fileTimestampLayout))
	if suffix != "" {
		b.WriteString("_")
		b.WriteString(suffix)
	}
	b.WriteString(".html")
	return b.String()
}

func newSuffix() (string, error) {
	return nanoid.Generate(suffixAlphabet, suffixLength)
}

func stripPlaceholder(page string) string {
	return strings.ReplaceAll(page, placeholderBinding, "")
}
