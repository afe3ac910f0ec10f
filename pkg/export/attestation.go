package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Attestation holds the signature data of a confirmed outing registration,
// ready to be rendered into a printable consent artifact.
type Attestation struct {
	AssociationName string
	ChildName       string
	ChildLevel      string
	OutingTitle     string
	OutingStartsAt  time.Time
	OutingLocation  string
	SignatureName   string
	SignaturePhone  string
	HealthNotes     string
	SignedAt        time.Time
	SignatureIP     string
	UserAgent       string
}

// AttestationRenderer produces consent attestation PDFs.
type AttestationRenderer struct{}

// NewAttestationRenderer constructs a renderer.
func NewAttestationRenderer() *AttestationRenderer {
	return &AttestationRenderer{}
}

// Render creates the A4 attestation document.
func (r *AttestationRenderer) Render(a Attestation) ([]byte, error) {
	if a.ChildName == "" || a.SignatureName == "" {
		return nil, fmt.Errorf("attestation requires child and signer names")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(a.AssociationName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 10, tr("Autorisation de sortie"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	body := fmt.Sprintf(
		"Je soussigné(e) %s, représentant(e) légal(e) de l'enfant %s (%s), autorise sa participation à la sortie « %s » du %s à %s.",
		a.SignatureName, a.ChildName, a.ChildLevel, a.OutingTitle,
		a.OutingStartsAt.Format("02/01/2006 15:04"), orDash(a.OutingLocation),
	)
	pdf.MultiCell(0, 6, tr(body), "", "L", false)
	pdf.Ln(4)

	rows := [][2]string{
		{"Téléphone", a.SignaturePhone},
		{"Consignes santé", orDash(a.HealthNotes)},
		{"Signé le", a.SignedAt.Format("02/01/2006 15:04")},
	}
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 7, tr(row[0]), "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, tr(row[1]), "1", 1, "", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 8)
	footer := "Signature électronique enregistrée"
	if a.SignatureIP != "" {
		footer += fmt.Sprintf(" — IP %s", a.SignatureIP)
	}
	if a.UserAgent != "" {
		footer += fmt.Sprintf(" — %s", a.UserAgent)
	}
	pdf.MultiCell(0, 5, tr(footer), "", "L", false)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render attestation: %w", err)
	}
	return buf.Bytes(), nil
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
