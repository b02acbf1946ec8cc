package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Slip carries the fields printed on one permission slip.
type Slip struct {
	StudentName  string
	StudentClass string
	Reason       string
}

// SlipOptions customises the slip footer.
type SlipOptions struct {
	Place   string
	Officer string
	Date    time.Time
}

// SlipExporter renders permission slips six to a landscape A4 page,
// three columns by two rows, each slip cut-ready inside its own frame.
type SlipExporter struct{}

// NewSlipExporter constructs a slip exporter.
func NewSlipExporter() *SlipExporter {
	return &SlipExporter{}
}

const slipsPerPage = 6

// Render produces the slip sheet for the given entries.
func (e *SlipExporter) Render(slips []Slip, opts SlipOptions) ([]byte, error) {
	if len(slips) == 0 {
		return nil, fmt.Errorf("slips require at least one entry")
	}
	if opts.Date.IsZero() {
		opts.Date = time.Now()
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	pageW, pageH := pdf.GetPageSize()
	const margin = 5.0
	panelW := (pageW - margin*2) / 3
	panelH := (pageH - margin*2) / 2

	for i, slip := range slips {
		if i%slipsPerPage == 0 {
			pdf.AddPage()
		}
		col := float64((i % slipsPerPage) % 3)
		row := float64((i % slipsPerPage) / 3)
		e.drawSlip(pdf, slip, opts, margin+col*panelW, margin+row*panelH, panelW, panelH)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render slips: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *SlipExporter) drawSlip(pdf *gofpdf.Fpdf, slip Slip, opts SlipOptions, x, y, w, h float64) {
	pdf.SetDrawColor(150, 150, 150)
	pdf.Rect(x, y, w, h, "D")

	const pad = 5.0
	const lineSpacing = 4.5
	contentX := x + pad
	contentW := w - pad*2
	cursorY := y + pad + 4

	pdf.SetFont("Arial", "B", 11)
	pdf.SetXY(x, cursorY-4)
	pdf.CellFormat(w, 5, "SURAT IJIN TIDAK MASUK SEKOLAH", "", 0, "C", false, 0, "")
	pdf.SetLineWidth(0.5)
	pdf.Line(x+pad, cursorY+2, x+w-pad, cursorY+2)
	cursorY += 8

	pdf.SetFont("Arial", "", 9)
	intro := "Surat ini menerangkan bahwa siswa tersebut dibawah ini telah diijinkan oleh orangtua/walinya untuk tidak masuk sekolah."
	cursorY = e.writeWrapped(pdf, intro, contentX, cursorY, contentW, lineSpacing) + 4

	for _, field := range []struct{ label, value string }{
		{"Nama", slip.StudentName},
		{"Kelas", slip.StudentClass},
		{"Keterangan", slip.Reason},
	} {
		pdf.SetXY(contentX, cursorY)
		pdf.CellFormat(22, lineSpacing, field.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW-22, lineSpacing, ": "+field.value, "", 0, "L", false, 0, "")
		cursorY += lineSpacing + 1
	}
	cursorY += 3

	outro := "Mohon diteruskan kepada petugas presensi untuk dilaksanakan. Terima kasih."
	cursorY = e.writeWrapped(pdf, outro, contentX, cursorY, contentW, lineSpacing) + 5

	signX := x + pad
	signW := w - pad*2
	dateLine := opts.Date.Format("2 January 2006")
	if opts.Place != "" {
		dateLine = opts.Place + ", " + dateLine
	}
	pdf.SetXY(signX, cursorY)
	pdf.CellFormat(signW, lineSpacing, dateLine, "", 0, "R", false, 0, "")
	cursorY += lineSpacing + 2
	pdf.SetXY(signX, cursorY)
	pdf.CellFormat(signW, lineSpacing, "Petugas,", "", 0, "R", false, 0, "")
	cursorY += 16
	pdf.SetXY(signX, cursorY)
	pdf.CellFormat(signW, lineSpacing, opts.Officer, "", 0, "R", false, 0, "")
}

func (e *SlipExporter) writeWrapped(pdf *gofpdf.Fpdf, text string, x, y, w, lineSpacing float64) float64 {
	lines := pdf.SplitText(text, w)
	for _, line := range lines {
		pdf.SetXY(x, y)
		pdf.CellFormat(w, lineSpacing, line, "", 0, "L", false, 0, "")
		y += lineSpacing
	}
	return y
}
