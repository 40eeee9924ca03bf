package loader

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/postscript/cid"
	"seehuhn.de/go/postscript/type1/names"

	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/glyf"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/font"
	"seehuhn.de/go/pdf/font/dict"
	"seehuhn.de/go/pdf/pagetree"
	"seehuhn.de/go/pdf/reader"
)

// extractPages returns the plain text of every page of a PDF, in page order.
func extractPages(data io.ReadSeeker) ([]string, error) {
	r, err := pdf.NewReader(data, nil)
	if err != nil {
		return nil, err
	}

	numPages, err := pagetree.NumPages(r)
	if err != nil {
		return nil, err
	}

	var (
		page        *strings.Builder
		pages       = make([]string, 0, numPages)
		glyphText   = make(map[font.Embedded]map[cid.CID]string)
		spaceWidths = make(map[font.Embedded]float64)
		contents    = reader.New(r, nil)
	)

	contents.TextEvent = func(op reader.TextEvent, arg float64) {
		switch op {
		case reader.TextEventSpace:
			w0, ok := spaceWidths[contents.TextFont]
			if !ok {
				w0 = spaceWidth(contents.TextFont)
				spaceWidths[contents.TextFont] = w0
			}
			// Kerning shows up as small moves, only wide gaps are spaces
			if arg > 0.3*w0 {
				page.WriteString(" ")
			}
		case reader.TextEventNL, reader.TextEventMove:
			page.WriteString("\n")
		}
	}
	contents.Character = func(code cid.CID, text string) error {
		if text == "" {
			m, ok := glyphText[contents.TextFont]
			if !ok {
				m = glyphNameText(r, contents.TextFont)
				glyphText[contents.TextFont] = m
			}
			text = m[code]
		}
		page.WriteString(text)
		return nil
	}

	for pageNo := 1; pageNo <= numPages; pageNo++ {
		_, pageDict, err := pagetree.GetPage(r, pageNo-1)
		if err != nil {
			return nil, err
		}

		page = new(strings.Builder)
		if err := contents.ParsePage(pageDict, matrix.Identity); err != nil {
			return nil, fmt.Errorf("parsing page %d: %w", pageNo, err)
		}
		pages = append(pages, page.String())
	}

	return pages, nil
}

// glyphNameText maps CIDs to text through glyph names, for embedded TrueType fonts
// without a ToUnicode map.
func glyphNameText(r pdf.Getter, f font.Embedded) map[cid.CID]string {
	fromFile, ok := f.(font.FromFile)
	if !ok {
		return nil
	}

	d := fromFile.GetDict()
	if d == nil {
		return nil
	}

	fontInfo, ok := d.FontInfo().(*dict.FontInfoGlyfEmbedded)
	if !ok {
		return nil
	}

	body, err := pdf.GetStreamReader(r, fontInfo.Ref)
	if err != nil {
		return nil
	}
	info, err := sfnt.Read(body)
	if err != nil {
		return nil
	}
	outlines, ok := info.Outlines.(*glyf.Outlines)
	if !ok || outlines.Names == nil || fontInfo.CIDToGID == nil {
		return nil
	}

	m := make(map[cid.CID]string)
	for code, gid := range fontInfo.CIDToGID {
		if int(gid) >= len(outlines.Names) {
			continue
		}
		if name := outlines.Names[gid]; name != "" {
			m[cid.CID(code)] = names.ToUnicode(name, fontInfo.PostScriptName)
		}
	}

	return m
}

func spaceWidth(f font.Embedded) float64 {
	fromFile, ok := f.(font.FromFile)
	if !ok {
		return defaultSpaceWidth
	}

	d := fromFile.GetDict()
	if d == nil {
		return 0
	}

	return guessSpaceWidth(d)
}

const (
	defaultSpaceWidth = 280
	minSpaceWidth     = 200
	maxSpaceWidth     = 1000
)

// linear fits of space width against the width of common glyphs
type fit struct {
	intercept, slope float64
}

var glyphFits = map[string]fit{
	" ": {0, 1},
	" ": {0, 1},
	")": {-43.01937, 1.0268},
	"/": {-10.99708, 0.9623335},
	"•": {-24.2725, 0.9956384},
	"−": {-439.6255, 1.238626},
	"∗": {91.30598, 0.7265824},
	"1": {-130.7855, 0.9746186},
	"a": {-131.2164, 0.9740258},
	"A": {72.40703, 0.4928694},
	"e": {-136.5258, 0.9895894},
	"E": {-28.76257, 0.6957778},
	"i": {51.62929, 0.8973944},
	"ε": {-56.25771, 0.9947787},
	"Ω": {-132.9966, 1.002173},
	"中": {-356.8609, 1.215483},
}

// guessSpaceWidth takes the median of the per glyph guesses, corrected for bias and clamped.
func guessSpaceWidth(d font.Dict) float64 {
	guesses := []float64{defaultSpaceWidth}
	for _, info := range d.Characters() {
		if f, ok := glyphFits[info.Text]; ok && info.Width > 0 {
			guesses = append(guesses, f.intercept+f.slope*info.Width)
		}
	}
	slices.Sort(guesses)

	var (
		n     = len(guesses)
		guess = guesses[n/2]
	)
	if n%2 == 0 {
		guess = (guesses[n/2-1] + guesses[n/2]) / 2
	}

	guess = 1.366239*guess - 139.183703

	return min(max(guess, minSpaceWidth), maxSpaceWidth)
}
