package models

// ClinicalMessage is the HL7-style observation record exchanged with
// external systems. It is a JSON approximation of an ORU^R01 message,
// not real HL7 segment grammar: the segments keep their HL7 names but
// carry explicitly typed fields, validated once at decode.
type ClinicalMessage struct {
	MSH MSHSegment   `json:"MSH"`
	PID PIDSegment   `json:"PID"`
	PV1 PV1Segment   `json:"PV1"`
	OBX []OBXSegment `json:"OBX"`
}

// MSHSegment is the message header.
type MSHSegment struct {
	MessageType      string `json:"message_type"`
	MessageControlID string `json:"message_control_id"`
	Timestamp        string `json:"timestamp"`
}

// PIDSegment is the subject (patient) identity block.
type PIDSegment struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	DOB       string `json:"dob"`
	Gender    string `json:"gender"`
}

// PV1Segment is the visit stub.
type PV1Segment struct {
	VisitNumber   string  `json:"visit_number"`
	AdmissionDate string  `json:"admission_date"`
	DischargeDate *string `json:"discharge_date"`
}

// OBXSegment carries one observation.
type OBXSegment struct {
	ObservationID string `json:"observation_id"`
	Value         string `json:"value"`
	Units         string `json:"units"`
	Timestamp     string `json:"timestamp"`
}

// PatientIdentity is the demographic stub behind the PID segment.
type PatientIdentity struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	DOB       string `json:"dob"`
	Gender    string `json:"gender"`
}
