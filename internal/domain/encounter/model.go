package encounter

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/practice/console/pkg/wire"
)

// Valid in-person encounter statuses.
var validStatuses = map[string]bool{
	"scheduled":   true,
	"in_progress": true,
	"recording":   true,
	"processing":  true,
	"completed":   true,
	"cancelled":   true,
}

// Encounter is an in-person visit that recordings are attached to.
type Encounter struct {
	ID        wire.FlexID `json:"id,omitempty"`
	PublicID  string      `json:"public_id"`
	PatientID wire.FlexID `json:"patient_id"`
	Status    string      `json:"status,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Created   string      `json:"created,omitempty"`
}

// KnownStatus reports whether the server sent a status the console can label.
func (e Encounter) KnownStatus() bool {
	return validStatuses[e.Status]
}

type CreateEncounterRequest struct {
	PatientID wire.FlexID `json:"patient_id" validate:"required"`
	Reason    string      `json:"reason,omitempty" validate:"max=500"`
}

// Audio is one recording as captured by the browser or read from disk.
type Audio struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ClinicalNote is the structured note the server generates from a recording.
// The note may arrive at the top level or wrapped under one of noteKeys.
type ClinicalNote struct {
	Subjective string                     `json:"subjective,omitempty"`
	Objective  string                     `json:"objective,omitempty"`
	Assessment string                     `json:"assessment,omitempty"`
	Plan       string                     `json:"plan,omitempty"`
	Transcript string                     `json:"transcript,omitempty"`
	Extra      map[string]json.RawMessage `json:"extra,omitempty"`
}

var noteKeys = []string{"clinical_note", "structured_notes", "notes", "note"}

var noteFields = map[string]bool{
	"subjective": true, "objective": true, "assessment": true, "plan": true,
	"transcript": true, "transcription": true,
}

func (n *ClinicalNote) UnmarshalJSON(b []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	for _, k := range noteKeys {
		inner, ok := obj[k]
		if ok && len(bytes.TrimSpace(inner)) > 0 && bytes.TrimSpace(inner)[0] == '{' {
			var nested map[string]json.RawMessage
			if err := json.Unmarshal(inner, &nested); err != nil {
				return err
			}
			// transcript often sits next to the wrapped note
			for _, tk := range []string{"transcript", "transcription"} {
				if _, has := nested[tk]; !has {
					if v, ok := obj[tk]; ok {
						nested[tk] = v
					}
				}
			}
			obj = nested
			break
		}
	}

	*n = ClinicalNote{}
	n.Subjective = noteString(obj["subjective"])
	n.Objective = noteString(obj["objective"])
	n.Assessment = noteString(obj["assessment"])
	n.Plan = noteString(obj["plan"])
	n.Transcript = noteString(obj["transcript"])
	if n.Transcript == "" {
		n.Transcript = noteString(obj["transcription"])
	}
	for k, v := range obj {
		if noteFields[k] {
			continue
		}
		if n.Extra == nil {
			n.Extra = make(map[string]json.RawMessage)
		}
		n.Extra[k] = v
	}
	return nil
}

// noteString reads a section that is usually a string but sometimes a list
// of bullet strings.
func noteString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err == nil {
		var buf bytes.Buffer
		for i, it := range items {
			if i > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString("- " + it)
		}
		return buf.String()
	}
	return string(raw)
}

// Empty reports whether the server returned no note content at all.
func (n ClinicalNote) Empty() bool {
	return n.Subjective == "" && n.Objective == "" && n.Assessment == "" && n.Plan == "" && n.Transcript == ""
}

// UploadResult is what the BFF returns after an encounter recording upload.
type UploadResult struct {
	EncounterID string        `json:"encounter_id"`
	ArchiveKey  string        `json:"archive_key,omitempty"`
	Note        *ClinicalNote `json:"note"`
}
