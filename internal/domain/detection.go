package domain

import (
	"encoding/json"
	"fmt"
)

// Label tags the kind of a Detection.
type Label string

const (
	LabelFace   Label = "face"
	LabelPerson Label = "person"
)

// PersonID is the fixed identifier of the person record.
const PersonID = "person-0"

// MinPersonCoverage is the foreground fraction a frame must exceed to report a person.
const MinPersonCoverage = 0.01

// Detection is either a face box or a person coverage record.
// Face fields are only meaningful when Label is LabelFace, Coverage only when LabelPerson.
type Detection struct {
	ID    string
	Label Label

	X          float64
	Y          float64
	Width      float64
	Height     float64
	Confidence float64

	Coverage float64
}

// FaceID returns the ordinal identifier of the i-th face in a response.
func FaceID(i int) string {
	return fmt.Sprintf("face-%d", i)
}

// NewFace builds a face record from a box already normalized to [0,1].
func NewFace(index int, x, y, width, height, confidence float64) Detection {
	return Detection{
		ID:         FaceID(index),
		Label:      LabelFace,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
		Confidence: confidence,
	}
}

// NewPerson builds the person record for the given coverage fraction.
func NewPerson(coverage float64) Detection {
	return Detection{
		ID:       PersonID,
		Label:    LabelPerson,
		Coverage: coverage,
	}
}

type faceJSON struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	Label      Label   `json:"label"`
}

type personJSON struct {
	ID       string  `json:"id"`
	Coverage float64 `json:"coverage"`
	Label    Label   `json:"label"`
}

func (d Detection) MarshalJSON() ([]byte, error) {
	switch d.Label {
	case LabelFace:
		return json.Marshal(faceJSON{
			ID:         d.ID,
			X:          d.X,
			Y:          d.Y,
			Width:      d.Width,
			Height:     d.Height,
			Confidence: d.Confidence,
			Label:      d.Label,
		})
	case LabelPerson:
		return json.Marshal(personJSON{
			ID:       d.ID,
			Coverage: d.Coverage,
			Label:    d.Label,
		})
	default:
		return nil, fmt.Errorf("marshal detection %q: unknown label %q", d.ID, d.Label)
	}
}

func (d *Detection) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Label Label `json:"label"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	switch envelope.Label {
	case LabelFace:
		var f faceJSON
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*d = NewFace(0, f.X, f.Y, f.Width, f.Height, f.Confidence)
		d.ID = f.ID
	case LabelPerson:
		var p personJSON
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*d = NewPerson(p.Coverage)
		d.ID = p.ID
	default:
		return fmt.Errorf("unmarshal detection: unknown label %q", envelope.Label)
	}
	return nil
}
