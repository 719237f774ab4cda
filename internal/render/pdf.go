package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/RubeHicksCube/Djournal/internal/logger"
)

const (
	pageMargin     = 15.0
	lineHeight     = 6.0
	entryMinSpace  = 30.0 // mm left on the page before an entry starts
	imageWidth     = 120.0
	imagePlaceText = "[image could not be rendered]"
)

// compressStreams is switched off in tests to inspect page content.
var compressStreams = true

// PDF renders docs as one A4 document, one day after another, each day
// starting on a new page. Output is byte-identical for identical input and now.
func PDF(docs []Document, now time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCompression(compressStreams)
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("djournal", true)

	r := &pdfRenderer{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		now: now,
	}
	if len(docs) > 0 {
		pdf.SetTitle(title(docs), true)
	}

	for i, doc := range docs {
		r.day(i, doc)
	}
	if len(docs) == 0 {
		pdf.AddPage()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func title(docs []Document) string {
	first, last := docs[0].State.Date, docs[len(docs)-1].State.Date
	if first == last {
		return "Journal for " + first
	}
	return fmt.Sprintf("Journal %s to %s", first, last)
}

type pdfRenderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	now time.Time
}

func (r *pdfRenderer) day(index int, doc Document) {
	s := doc.State
	r.pdf.AddPage()

	r.pdf.SetFont("Helvetica", "B", 18)
	r.pdf.CellFormat(0, 10, r.tr("Journal for "+s.Date), "", 1, "L", false, 0, "")
	if doc.DisplayName != "" {
		r.pdf.SetFont("Helvetica", "I", 11)
		r.pdf.CellFormat(0, lineHeight, r.tr(doc.DisplayName), "", 1, "L", false, 0, "")
	}
	r.pdf.Ln(2)

	var sleep []string
	if s.PreviousBedtime != "" {
		sleep = append(sleep, "Previous bedtime: "+s.PreviousBedtime)
	}
	if s.WakeTime != "" {
		sleep = append(sleep, "Wake time: "+s.WakeTime)
	}
	r.section("Sleep", sleep)

	var since []string
	for _, t := range s.TimeSinceTrackers {
		since = append(since, fmt.Sprintf("%s: %s (since %s)", t.Name, timeSince(t, r.now), t.ReferenceDate))
	}
	r.section("Time Since", since)

	var timers []string
	for _, t := range s.DurationTrackers {
		line := fmt.Sprintf("%s: %s", t.Name, FormatDuration(t.Value))
		if t.IsRunning {
			line += fmt.Sprintf(" (running, %s live)", FormatDuration(LiveElapsedMs(t, r.now)/1000))
		}
		timers = append(timers, line)
	}
	r.section("Timers", timers)

	var counters []string
	for _, c := range s.CustomCounters {
		counters = append(counters, fmt.Sprintf("%s: %d", c.Name, c.Value))
	}
	r.section("Counters", counters)

	var fields []string
	for _, f := range s.TemplateFields {
		if f.Value != "" {
			fields = append(fields, f.Key+": "+f.Value)
		}
	}
	r.section("Fields", fields)

	var oneOff []string
	for _, f := range s.OneOffFields {
		if f.Value != "" {
			oneOff = append(oneOff, f.Key+": "+f.Value)
		}
	}
	r.section("One-off Fields", oneOff)

	var tasks []string
	for _, t := range s.Tasks {
		mark := "[ ]"
		if t.Done {
			mark = "[x]"
		}
		tasks = append(tasks, mark+" "+t.Text)
	}
	r.section("Tasks", tasks)

	var profile []string
	for _, p := range doc.Profile {
		profile = append(profile, p.Key+": "+p.Value)
	}
	r.section("Profile", profile)

	if len(s.Entries) > 0 {
		r.heading("Entries")
		for j, e := range s.Entries {
			r.ensureSpace(entryMinSpace)
			r.pdf.SetFont("Helvetica", "B", 11)
			r.pdf.CellFormat(0, lineHeight, r.tr(e.Timestamp), "", 1, "L", false, 0, "")
			r.pdf.SetFont("Helvetica", "", 11)
			if e.Text != "" {
				r.pdf.MultiCell(0, lineHeight, r.tr(e.Text), "", "L", false)
			}
			if e.Image != "" {
				r.image(fmt.Sprintf("day%d-entry%d", index, j), e.Image)
			}
			r.pdf.Ln(2)
		}
	}
}

func (r *pdfRenderer) heading(text string) {
	r.ensureSpace(lineHeight * 3)
	r.pdf.SetFont("Helvetica", "B", 13)
	r.pdf.CellFormat(0, 8, r.tr(text), "B", 1, "L", false, 0, "")
	r.pdf.Ln(1)
}

func (r *pdfRenderer) section(title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	r.heading(title)
	r.pdf.SetFont("Helvetica", "", 11)
	for _, line := range lines {
		r.pdf.MultiCell(0, lineHeight, r.tr(line), "", "L", false)
	}
	r.pdf.Ln(3)
}

// remaining is the vertical space left above the bottom margin.
func (r *pdfRenderer) remaining() float64 {
	_, pageHeight := r.pdf.GetPageSize()
	_, _, _, bottom := r.pdf.GetMargins()
	return pageHeight - bottom - r.pdf.GetY()
}

func (r *pdfRenderer) ensureSpace(height float64) {
	if r.remaining() < height {
		r.pdf.AddPage()
	}
}

// image draws a base64 image 120 mm wide. Anything that cannot be decoded or
// registered is replaced with a placeholder line.
func (r *pdfRenderer) image(name, encoded string) {
	if !r.pdf.Ok() {
		return
	}
	data, imgType, err := decodeImage(encoded)
	if err != nil {
		r.imageFailed(name, err)
		return
	}

	opts := fpdf.ImageOptions{ImageType: imgType}
	info := r.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := r.pdf.Error(); err != nil || info == nil || info.Width() <= 0 {
		r.pdf.ClearError()
		if err == nil {
			err = fmt.Errorf("image has no size")
		}
		r.imageFailed(name, err)
		return
	}

	_, pageHeight := r.pdf.GetPageSize()
	_, top, _, bottom := r.pdf.GetMargins()
	printable := pageHeight - top - bottom

	w := imageWidth
	h := w * info.Height() / info.Width()
	if h > printable {
		h = printable
		w = h * info.Width() / info.Height()
	}

	r.ensureSpace(h)
	r.pdf.ImageOptions(name, r.pdf.GetX(), r.pdf.GetY(), w, h, true, opts, 0, "")
}

func (r *pdfRenderer) imageFailed(name string, err error) {
	logger.Warn("Could not render entry image", "image", name, "error", err)
	r.pdf.SetFont("Helvetica", "I", 10)
	r.pdf.MultiCell(0, lineHeight, imagePlaceText, "", "L", false)
	r.pdf.SetFont("Helvetica", "", 11)
}
