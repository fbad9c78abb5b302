// FilePath: server/monitor/internal/telemetry/telemetry.topics.go
package telemetry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/itsatony/curecraft/server/monitor/internal/models"
)

// Topics published by the patient simulation. The spelling of rhytm and
// diabetsKeto matches what the simulation sends.
const (
	TopicHeartRate       = "heart/heartRate"
	TopicSystolicBP      = "heart/systolicBP"
	TopicDiastolicBP     = "heart/diastolicBP"
	TopicStrokeVolume    = "heart/strokeVolume"
	TopicContractility   = "heart/contractility"
	TopicCardiacOutput   = "heart/cardiacOutput"
	TopicMAP             = "heart/map"
	TopicPrefactor       = "heart/prefactor"
	TopicRhythm          = "heart/rhytm"
	TopicOxygen          = "lung/oxygenSaturation"
	TopicRespiratoryRate = "lung/respiratoryRate"
	TopicAirway          = "lung/airwayObstruction"
	TopicSeptic          = "conditions/septic"
	TopicAnaphylaxis     = "conditions/anaphylaxis"
	TopicDiabetesHypo    = "conditions/diabetesHypo"
	TopicDiabetesKeto    = "conditions/diabetsKeto"
	TopicCardiacArrest   = "conditions/cardiacArrest"
)

// Topics lists every topic the listener understands.
var Topics = []string{
	TopicHeartRate, TopicSystolicBP, TopicDiastolicBP, TopicStrokeVolume,
	TopicContractility, TopicCardiacOutput, TopicMAP, TopicPrefactor, TopicRhythm,
	TopicOxygen, TopicRespiratoryRate, TopicAirway,
	TopicSeptic, TopicAnaphylaxis, TopicDiabetesHypo, TopicDiabetesKeto, TopicCardiacArrest,
}

// Subjects subscribed on the broker, one wildcard per topic group.
var Subjects = []string{"heart.>", "lung.>", "conditions.>"}

// storeFields routes the topics that override the synthetic vitals.
var storeFields = map[string]models.VitalField{
	TopicOxygen:          models.FieldSpO2,
	TopicRespiratoryRate: models.FieldResp,
	TopicSystolicBP:      models.FieldBPSystolic,
	TopicDiastolicBP:     models.FieldBPDiastolic,
}

var knownTopics = func() map[string]bool {
	m := make(map[string]bool, len(Topics))
	for _, t := range Topics {
		m[t] = true
	}
	return m
}()

var (
	ErrUnknownTopic = errors.New("unknown telemetry topic")
	ErrUnparsable   = errors.New("unparsable telemetry payload")
)

// IsKnownTopic reports whether topic is one of Topics.
func IsKnownTopic(topic string) bool {
	return knownTopics[topic]
}

// StoreField returns the vital field a topic overrides, if any.
func StoreField(topic string) (models.VitalField, bool) {
	f, ok := storeFields[topic]
	return f, ok
}

func IsConditionTopic(topic string) bool {
	return strings.HasPrefix(topic, models.GroupConditions+"/")
}

// TopicToSubject maps "heart/heartRate" to the broker subject "heart.heartRate".
func TopicToSubject(topic string) string {
	return strings.ReplaceAll(topic, "/", ".")
}

func SubjectToTopic(subject string) string {
	return strings.ReplaceAll(subject, ".", "/")
}

// ParseValue reads a payload as a finite decimal number. Surrounding
// whitespace is ignored; anything else is rejected.
func ParseValue(payload string) (float64, error) {
	s := strings.TrimSpace(payload)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrUnparsable)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparsable, payload)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrUnparsable, payload)
	}
	return v, nil
}

// ParseBoolish reads a condition flag. Words true/on/yes and false/off/no
// are accepted in any case; numbers are 1 when non-zero.
func ParseBoolish(payload string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case "true", "on", "yes":
		return 1, nil
	case "false", "off", "no":
		return 0, nil
	}
	v, err := ParseValue(payload)
	if err != nil {
		return 0, err
	}
	if v != 0 {
		return 1, nil
	}
	return 0, nil
}

// Parse reads payload the way topic expects.
func Parse(topic, payload string) (float64, error) {
	if IsConditionTopic(topic) {
		return ParseBoolish(payload)
	}
	return ParseValue(payload)
}
