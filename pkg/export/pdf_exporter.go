package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/scolaris/scolaris-api/internal/models"
)

// BulletinPDF renders a report card into a printable A4 document.
type BulletinPDF struct {
	schoolName string
}

// NewBulletinPDF constructs a bulletin PDF exporter.
func NewBulletinPDF(schoolName string) *BulletinPDF {
	return &BulletinPDF{schoolName: schoolName}
}

var bulletinColumns = []struct {
	label string
	width float64
}{
	{"Matiere", 52},
	{"Moy", 16},
	{"Coef", 14},
	{"Total", 18},
	{"Moy Cl", 18},
	{"Min", 16},
	{"Max", 16},
	{"Appreciation", 40},
}

// Render produces the PDF bytes for one bulletin.
func (e *BulletinPDF) Render(b *models.BulletinDetail) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("nil bulletin")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if e.schoolName != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 8, strings.ToUpper(e.schoolName), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("BULLETIN DE NOTES - %s (%s)", strings.ToUpper(b.TermName), b.AcademicYear), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 6, fmt.Sprintf("Eleve: %s", b.StudentName), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, fmt.Sprintf("Matricule: %s", b.StudentMatricule), "", 1, "L", false, 0, "")
	pdf.CellFormat(95, 6, fmt.Sprintf("Classe: %s", b.ClassName), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, fmt.Sprintf("Effectif: %d", b.TotalStudents), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 9)
	for _, col := range bulletinColumns {
		pdf.CellFormat(col.width, 7, col.label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range b.Subjects {
		cells := []string{
			row.SubjectName,
			fmt.Sprintf("%.2f", row.Average),
			fmt.Sprintf("%d", row.Coefficient),
			fmt.Sprintf("%.2f", row.Total),
			fmt.Sprintf("%.2f", row.ClassAverage),
			fmt.Sprintf("%.2f", row.ClassMin),
			fmt.Sprintf("%.2f", row.ClassMax),
			row.Appreciation,
		}
		for i, col := range bulletinColumns {
			align := "C"
			if i == 0 || i == len(cells)-1 {
				align = "L"
			}
			pdf.CellFormat(col.width, 6, cells[i], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(95, 6, fmt.Sprintf("Moyenne generale: %.2f / 20", b.GeneralAverage), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, fmt.Sprintf("Rang: %d / %d", b.Rank, b.TotalStudents), "", 1, "L", false, 0, "")
	pdf.CellFormat(95, 6, fmt.Sprintf("Moyenne de la classe: %.2f", b.ClassAverage), "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	if b.TeacherComment != nil && *b.TeacherComment != "" {
		pdf.Ln(2)
		pdf.MultiCell(0, 5, fmt.Sprintf("Observation du professeur principal: %s", *b.TeacherComment), "", "L", false)
	}
	if b.PrincipalComment != nil && *b.PrincipalComment != "" {
		pdf.MultiCell(0, 5, fmt.Sprintf("Observation du chef d'etablissement: %s", *b.PrincipalComment), "", "L", false)
	}
	if b.Decision != nil && *b.Decision != "" {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Decision: %s", *b.Decision), "", 1, "L", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render bulletin pdf: %w", err)
	}
	return buf.Bytes(), nil
}
