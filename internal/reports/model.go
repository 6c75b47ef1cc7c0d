package reports

import (
	"encoding/json"
	"time"
)

// Patient is the patient sub-record of an extracted report.
type Patient struct {
	Nom  string     `json:"nom"`
	Age  FlexString `json:"age"`
	Sexe string     `json:"sexe"`
}

// ReportData is the structured clinical record extracted from a report.
// Field names follow the extraction schema the model is prompted with.
type ReportData struct {
	Patient          Patient    `json:"patient"`
	Diagnostic       []string   `json:"diagnostic"`
	Symptomes        []string   `json:"symptomes"`
	Traitements      []string   `json:"traitements"`
	Examens          []string   `json:"examens"`
	ResumeMedical    string     `json:"resume_medical"`
	Medecin          string     `json:"medecin"`
	DateConsultation FlexString `json:"date_consultation"`
	Observations     string     `json:"observations"`
}

// Report is a persisted extraction result owned by a single user.
type Report struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Filename  string     `json:"filename"`
	Data      ReportData `json:"extractedData"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Verdict is the classification decision for one document.
type Verdict struct {
	IsMedicalReport bool
	Confidence      int
	Reason          string
}

// FlexString tolerates model output that emits a number or null where the
// schema asked for a string.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		*s = FlexString(raw)
		return nil
	}
	*s = FlexString(b)
	return nil
}

func (s FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}
