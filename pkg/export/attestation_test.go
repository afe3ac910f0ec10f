package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttestationRendererRender(t *testing.T) {
	renderer := NewAttestationRenderer()
	data, err := renderer.Render(Attestation{
		AssociationName: "Association Les Petits Marcheurs",
		ChildName:       "Léa Petit",
		ChildLevel:      "CE2",
		OutingTitle:     "Accrobranche",
		OutingStartsAt:  time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC),
		OutingLocation:  "Forêt de Fontainebleau",
		SignatureName:   "Claire Petit",
		SignaturePhone:  "+33612345678",
		HealthNotes:     "Asthme, inhalateur dans le sac",
		SignedAt:        time.Date(2026, time.March, 1, 18, 12, 0, 0, time.UTC),
		SignatureIP:     "203.0.113.9",
		UserAgent:       "Mozilla/5.0",
	})
	require.NoError(t, err)
	require.NotEmpty(t, data)
	// A valid PDF document starts with the magic header.
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestAttestationRendererRequiresNames(t *testing.T) {
	renderer := NewAttestationRenderer()

	_, err := renderer.Render(Attestation{SignatureName: "Claire Petit"})
	require.Error(t, err)

	_, err = renderer.Render(Attestation{ChildName: "Léa Petit"})
	require.Error(t, err)
}
