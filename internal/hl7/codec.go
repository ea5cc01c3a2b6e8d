package hl7

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"skanray-monitor/internal/models"
	"skanray-monitor/internal/vitals"
)

// ErrMalformedMessage is returned when a payload is not well-formed
// structured data or is missing required header/subject fields. Decode
// failures are recoverable: the caller retries later or discards.
var ErrMalformedMessage = errors.New("malformed clinical message")

const messageTypeORU = "ORU^R01"

// observationCodes maps each vital sign to its LOINC-style observation
// id carried in OBX segments.
var observationCodes = map[models.VitalSign]string{
	models.HeartRate:       "8867-4",
	models.BloodPressure:   "85354-9",
	models.SpO2:            "59408-5",
	models.RespirationRate: "9279-1",
	models.Temperature:     "8310-5",
}

var vitalsByCode = func() map[string]models.VitalSign {
	m := make(map[string]models.VitalSign, len(observationCodes))
	for v, code := range observationCodes {
		m[code] = v
	}
	return m
}()

// Codec encodes a bed's reading and subject identity into the HL7-style
// JSON message and decodes it back. Decoding an encoded message
// recovers the identical identity and kind-to-value mapping.
type Codec struct {
	thresholds *vitals.ThresholdTable
}

// NewCodec creates a codec; the threshold table supplies observation
// units.
func NewCodec(thresholds *vitals.ThresholdTable) *Codec {
	return &Codec{thresholds: thresholds}
}

// Encode builds an ORU^R01 message: MSH header with a control id unique
// per call, PID subject block, PV1 visit stub, and one OBX segment per
// vital sign in the reading with the value formatted to one decimal
// place.
func (c *Codec) Encode(bedID int, identity models.PatientIdentity, reading *models.Reading, now time.Time) *models.ClinicalMessage {
	msg := &models.ClinicalMessage{
		MSH: models.MSHSegment{
			MessageType:      messageTypeORU,
			MessageControlID: "MSG-" + uuid.NewString(),
			Timestamp:        now.Format(time.RFC3339Nano),
		},
		PID: models.PIDSegment{
			PatientID: identity.PatientID,
			Name:      identity.Name,
			DOB:       identity.DOB,
			Gender:    identity.Gender,
		},
		PV1: models.PV1Segment{
			VisitNumber:   "VN-" + uuid.NewString(),
			AdmissionDate: now.Format("20060102"),
			DischargeDate: nil,
		},
	}

	captured := reading.CapturedAt.Format(time.RFC3339Nano)
	for _, v := range models.AllVitalSigns() {
		value, ok := reading.Value(v)
		if !ok {
			continue
		}
		msg.OBX = append(msg.OBX, models.OBXSegment{
			ObservationID: observationCodes[v],
			Value:         strconv.FormatFloat(value, 'f', 1, 64),
			Units:         c.thresholds.RangeFor(v).Unit,
			Timestamp:     captured,
		})
	}

	return msg
}

// Marshal renders the message as its JSON wire form.
func (c *Codec) Marshal(msg *models.ClinicalMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal clinical message: %w", err)
	}
	return data, nil
}

// Parse validates a raw payload into the tagged message structure.
// Validation happens here, once, rather than scattered through
// consumers. Any malformed input yields ErrMalformedMessage.
func (c *Codec) Parse(raw []byte) (*models.ClinicalMessage, error) {
	var msg models.ClinicalMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	if msg.MSH.MessageType == "" || msg.MSH.MessageControlID == "" {
		return nil, fmt.Errorf("%w: missing MSH header fields", ErrMalformedMessage)
	}
	if msg.PID.PatientID == "" {
		return nil, fmt.Errorf("%w: missing PID patient id", ErrMalformedMessage)
	}

	return &msg, nil
}

// Decode parses a raw payload back into subject identity and reading.
// It is the left inverse of Encode on the (identity, kind->value)
// projection. Decode never panics.
func (c *Codec) Decode(raw []byte) (models.PatientIdentity, *models.Reading, error) {
	msg, err := c.Parse(raw)
	if err != nil {
		return models.PatientIdentity{}, nil, err
	}

	identity := models.PatientIdentity{
		PatientID: msg.PID.PatientID,
		Name:      msg.PID.Name,
		DOB:       msg.PID.DOB,
		Gender:    msg.PID.Gender,
	}

	reading := &models.Reading{
		Values: make(map[models.VitalSign]float64, len(msg.OBX)),
	}

	for _, obx := range msg.OBX {
		vital, ok := vitalsByCode[obx.ObservationID]
		if !ok {
			// Observation codes outside the monitored set pass through
			// untracked.
			continue
		}

		value, err := strconv.ParseFloat(obx.Value, 64)
		if err != nil {
			return models.PatientIdentity{}, nil, fmt.Errorf("%w: observation %s has non-numeric value %q", ErrMalformedMessage, obx.ObservationID, obx.Value)
		}
		reading.Values[vital] = value

		if reading.CapturedAt.IsZero() && obx.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339Nano, obx.Timestamp); err == nil {
				reading.CapturedAt = ts
			}
		}
	}

	if reading.CapturedAt.IsZero() && msg.MSH.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, msg.MSH.Timestamp); err == nil {
			reading.CapturedAt = ts
		}
	}

	return identity, reading, nil
}

// HeaderLine renders the lossy pipe-delimited textual export: the MSH
// header only, no observation segments. Its output is not decodable and
// must not be fed back into Decode.
func (c *Codec) HeaderLine(msg *models.ClinicalMessage) string {
	ts := msg.MSH.Timestamp
	if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		ts = parsed.Format("20060102150405")
	}
	return fmt.Sprintf(
		`MSH|^~\&|SkanRay|HOSPITAL|HL7|HOSPITAL|%s||%s|%s|P|2.5`,
		ts,
		msg.MSH.MessageType,
		msg.MSH.MessageControlID,
	)
}
