// Package pdftest builds small image-bearing PDF documents for tests.
package pdftest

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"strconv"
	"strings"
	"testing"
)

// JPEG encodes a w x h image filled with c.
func JPEG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Image is one DCTDecode image XObject.
type Image struct {
	W, H int
	Data []byte
}

// Build writes a PDF with one page per entry of pages, each page
// drawing its images as DCTDecode XObjects. xref offsets are computed as
// the file is written.
func Build(pages [][]Image) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	// object numbers: 1 catalog, 2 pages, then per page: page, contents, images
	type pageObjs struct {
		page, contents int
		images         []int
	}
	next := 3
	layout := make([]pageObjs, len(pages))
	for i, imgs := range pages {
		layout[i].page = next
		layout[i].contents = next + 1
		next += 2
		for range imgs {
			layout[i].images = append(layout[i].images, next)
			next++
		}
	}
	size := next
	offsets := make([]int, size)

	obj := func(n int, body string) {
		offsets[n] = b.Len()
		b.WriteString(strconv.Itoa(n) + " 0 obj\n" + body + "\nendobj\n")
	}
	stream := func(n int, dict string, data []byte) {
		offsets[n] = b.Len()
		b.WriteString(strconv.Itoa(n) + " 0 obj\n<< " + dict + " /Length " + strconv.Itoa(len(data)) + " >>\nstream\n")
		b.Write(data)
		b.WriteString("\nendstream\nendobj\n")
	}

	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, len(layout))
	for i, p := range layout {
		kids[i] = strconv.Itoa(p.page) + " 0 R"
	}
	obj(2, "<< /Type /Pages /Kids ["+strings.Join(kids, " ")+"] /Count "+strconv.Itoa(len(pages))+" >>")

	for i, p := range layout {
		var xobjects, draw strings.Builder
		for j, n := range p.images {
			name := "/Im" + strconv.Itoa(j+1)
			xobjects.WriteString(name + " " + strconv.Itoa(n) + " 0 R ")
			draw.WriteString("q 100 0 0 100 72 " + strconv.Itoa(600-120*j) + " cm " + name + " Do Q\n")
		}
		obj(p.page, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << "+
			xobjects.String()+">> >> /Contents "+strconv.Itoa(p.contents)+" 0 R >>")
		stream(p.contents, "", []byte(draw.String()))
		for j, n := range p.images {
			img := pages[i][j]
			stream(n, "/Type /XObject /Subtype /Image /Width "+strconv.Itoa(img.W)+" /Height "+strconv.Itoa(img.H)+
				" /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode", img.Data)
		}
	}

	xref := b.Len()
	b.WriteString("xref\n0 " + strconv.Itoa(size) + "\n")
	b.WriteString("0000000000 65535 f \n")
	for n := 1; n < size; n++ {
		off := strconv.Itoa(offsets[n])
		b.WriteString(strings.Repeat("0", 10-len(off)) + off + " 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size " + strconv.Itoa(size) + " /Root 1 0 R >>\nstartxref\n" + strconv.Itoa(xref) + "\n%%EOF\n")
	return []byte(b.String())
}

// Sample is a two page document: a 4x3 image on page 1, then 6x5 and 8x2
// images on page 2. All are 8 bit DeviceRGB.
func Sample(t testing.TB) []byte {
	t.Helper()
	return Build([][]Image{
		{{4, 3, JPEG(t, 4, 3, color.RGBA{255, 0, 0, 255})}},
		{
			{6, 5, JPEG(t, 6, 5, color.RGBA{0, 255, 0, 255})},
			{8, 2, JPEG(t, 8, 2, color.RGBA{0, 0, 255, 255})},
		},
	})
}
