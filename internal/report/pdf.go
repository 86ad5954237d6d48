// Package report renders medical assessment reports as PDF documents and
// uploads them to object storage.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/keatteoh99/medrock/pkg"
)

type rgb struct{ r, g, b int }

var severityColors = map[pkg.Severity]rgb{
	pkg.SeveritySevere:   {200, 30, 30},
	pkg.SeverityModerate: {230, 140, 0},
	pkg.SeverityMild:     {30, 140, 60},
	pkg.SeverityUnknown:  {100, 100, 100},
}

// RecommendedActions returns the action checklist for a severity tier.
func RecommendedActions(sev pkg.Severity) []string {
	switch sev {
	case pkg.SeveritySevere:
		return []string{
			"Seek emergency medical care immediately",
			"Call emergency services or go to the nearest emergency department",
			"Do not drive yourself if symptoms impair you",
			"Bring a list of current medications",
		}
	case pkg.SeverityModerate:
		return []string{
			"Schedule an appointment with a doctor within 24 to 48 hours",
			"Monitor symptoms and note any changes",
			"Visit an urgent care clinic if symptoms worsen",
		}
	default:
		return []string{
			"Rest and stay hydrated",
			"Use over-the-counter remedies as appropriate",
			"See a doctor if symptoms persist beyond a week",
		}
	}
}

// BuildPDF renders the report as a single A4 document.
func BuildPDF(req pkg.ReportRequest) ([]byte, error) {
	if req.Patient.PatientID == "" {
		return nil, errors.New("build report: patient id is required")
	}
	sev := pkg.ParseSeverity(string(req.Severity))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Medical Assessment Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Generated "+time.Now().UTC().Format("2 Jan 2006 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	sectionTitle(pdf, "Patient Information")
	infoLine(pdf, "Patient ID", req.Patient.PatientID)
	if req.Patient.Name != "" {
		infoLine(pdf, "Name", req.Patient.Name)
	}
	if req.Patient.Age > 0 {
		infoLine(pdf, "Age", fmt.Sprintf("%d", req.Patient.Age))
	}
	if req.Patient.Gender != "" {
		infoLine(pdf, "Gender", req.Patient.Gender)
	}
	if len(req.Patient.MedicalHistory) > 0 {
		infoLine(pdf, "Medical history", strings.Join(req.Patient.MedicalHistory, ", "))
	}
	pdf.Ln(3)

	sectionTitle(pdf, "Assessment")
	c := severityColors[sev]
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(c.r, c.g, c.b)
	pdf.CellFormat(0, 8, "Severity: "+string(sev), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	if req.Reason != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, req.Reason, "", "L", false)
	}
	if req.Recommendation != "" {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, req.Recommendation, "", "L", false)
	}
	pdf.Ln(3)

	if len(req.Symptoms) > 0 {
		sectionTitle(pdf, "Reported Symptoms")
		pdf.SetFont("Helvetica", "", 10)
		for _, s := range req.Symptoms {
			line := s.Name
			if s.Severity != "" {
				line += " (" + s.Severity + ")"
			}
			if s.Duration != "" {
				line += ", duration: " + s.Duration
			}
			pdf.CellFormat(0, 6, "- "+line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	if len(req.PossibleConditions) > 0 {
		sectionTitle(pdf, "Possible Conditions")
		pdf.SetFont("Helvetica", "", 10)
		for _, cond := range req.PossibleConditions {
			pdf.CellFormat(0, 6, "- "+cond, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	sectionTitle(pdf, "Recommended Actions")
	pdf.SetFont("Helvetica", "", 10)
	for _, action := range RecommendedActions(sev) {
		pdf.CellFormat(0, 6, "- "+action, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.MultiCell(0, 5,
		"This report was generated by an AI assistant and is not a medical diagnosis. "+
			"Always consult a qualified healthcare professional.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 9, title, "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func infoLine(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 6, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}
