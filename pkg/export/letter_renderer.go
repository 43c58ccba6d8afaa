package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// IndividualLetter carries the data rendered into a per-student approval letter.
type IndividualLetter struct {
	StudentName  string
	StudentID    string
	Phone        string
	Email        string
	SchoolName   string
	DistrictName string
	RegionName   string
	Subjects     []ApprovedSubject
	GeneratedAt  time.Time
}

// ApprovedSubject is one approved teaching subject line in a letter.
type ApprovedSubject struct {
	SubjectName string
	SchoolName  string
	ApprovedOn  *time.Time
}

// GroupLetter carries the data rendered into a per-school roster letter.
type GroupLetter struct {
	SchoolName   string
	DistrictName string
	Capacity     int
	Students     []string
	GeneratedAt  time.Time
}

// LetterRenderer renders approval letters as PDF documents.
type LetterRenderer struct{}

// NewLetterRenderer constructs a letter renderer.
func NewLetterRenderer() *LetterRenderer {
	return &LetterRenderer{}
}

// RenderIndividual produces the individual field placement approval letter.
func (r *LetterRenderer) RenderIndividual(letter IndividualLetter) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "INDIVIDUAL FIELD PLACEMENT APPROVAL LETTER", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 12)
	writeLine := func(text string) {
		pdf.CellFormat(0, 7, text, "", 1, "L", false, 0, "")
	}

	writeLine(fmt.Sprintf("Student Name: %s", letter.StudentName))
	writeLine(fmt.Sprintf("Student ID: %s", letter.StudentID))
	writeLine(fmt.Sprintf("Phone: %s", letter.Phone))
	writeLine(fmt.Sprintf("Email: %s", letter.Email))
	pdf.Ln(4)

	if letter.SchoolName != "" {
		writeLine(fmt.Sprintf("Assigned School: %s", letter.SchoolName))
		writeLine(fmt.Sprintf("School District: %s", letter.DistrictName))
		writeLine(fmt.Sprintf("School Region: %s", letter.RegionName))
		pdf.Ln(4)
	}

	writeLine("Approved Teaching Subjects:")
	for _, subject := range letter.Subjects {
		pdf.CellFormat(0, 7, fmt.Sprintf("  - %s at %s", subject.SubjectName, subject.SchoolName), "", 1, "L", false, 0, "")
		if subject.ApprovedOn != nil {
			pdf.SetFont("Arial", "I", 10)
			pdf.CellFormat(0, 6, fmt.Sprintf("      Approved on: %s", subject.ApprovedOn.Format("2006-01-02")), "", 1, "L", false, 0, "")
			pdf.SetFont("Arial", "", 12)
		}
	}
	pdf.Ln(6)

	writeLine("This letter confirms that the above student has been approved")
	writeLine("for field placement teaching practice.")
	writeLine(fmt.Sprintf("Generated on: %s", letter.GeneratedAt.Format("2006-01-02 15:04")))

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render individual letter: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderGroup produces the per-school roster approval letter.
func (r *LetterRenderer) RenderGroup(letter GroupLetter) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "FIELD PLACEMENT APPROVAL LETTER", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("School: %s", letter.SchoolName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("District: %s", letter.DistrictName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Maximum Capacity: %d students", letter.Capacity), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.CellFormat(0, 7, "Approved Students:", "", 1, "L", false, 0, "")
	for idx, name := range letter.Students {
		pdf.CellFormat(0, 7, fmt.Sprintf("  %d. %s", idx+1, name), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.CellFormat(0, 7, fmt.Sprintf("Generated on: %s", letter.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render group letter: %w", err)
	}
	return buf.Bytes(), nil
}
