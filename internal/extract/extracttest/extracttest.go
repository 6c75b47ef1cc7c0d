// Package extracttest builds small well-formed PDF documents for tests.
package extracttest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// BuildPDF assembles a minimal but well-formed PDF with one page per entry
// in pageTexts, tracking byte offsets so the xref table is exact.
func BuildPDF(t *testing.T, pageTexts []string) []byte {
	t.Helper()

	type object struct {
		num  int
		body string
	}

	numPages := len(pageTexts)
	pageObjNum := func(i int) int { return 4 + 2*i }
	contentObjNum := func(i int) int { return 5 + 2*i }

	var kids []string
	for i := 0; i < numPages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", pageObjNum(i)))
	}

	objects := []object{
		{1, "<< /Type /Catalog /Pages 2 0 R >>"},
		{2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), numPages)},
		{3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"},
	}
	for i, text := range pageTexts {
		objects = append(objects, object{
			pageObjNum(i),
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentObjNum(i)),
		})
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects, object{
			contentObjNum(i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		})
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	maxNum := 0
	offsets := map[int]int{}
	for _, obj := range objects {
		offsets[obj.num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", obj.num, obj.body)
		if obj.num > maxNum {
			maxNum = obj.num
		}
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= maxNum; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", maxNum+1, xrefOffset)

	return buf.Bytes()
}
