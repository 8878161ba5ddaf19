package redis

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/parley-ai/recall/internal/domain"
)

// Hash field names for fragments and speakers.
const (
	fieldMeetingID    = "meeting_id"
	fieldSeq          = "seq"
	fieldStart        = "start_time"
	fieldEnd          = "end_time"
	fieldSpeakerRef   = "speaker_ref"
	fieldText         = "text"
	fieldVector       = "vector"
	fieldModelVersion = "model_version"

	fieldOwnerID     = "owner_id"
	fieldDisplayName = "display_name"
	fieldRegistered  = "registered"
	fieldSampleCount = "sample_count"
	fieldVoiceprint  = "voiceprint"
)

func fragmentFields(f *domain.Fragment) map[string]string {
	return map[string]string{
		fieldMeetingID:    f.MeetingID,
		fieldSeq:          strconv.Itoa(f.SequenceIndex),
		fieldStart:        strconv.FormatFloat(f.StartTime, 'f', -1, 64),
		fieldEnd:          strconv.FormatFloat(f.EndTime, 'f', -1, 64),
		fieldSpeakerRef:   f.SpeakerRef,
		fieldText:         f.Text,
		fieldVector:       vectorToBytes(f.Embedding),
		fieldModelVersion: f.ModelVersion,
	}
}

func fragmentFromFields(id string, fields map[string]string) (domain.Fragment, error) {
	seq, err := strconv.Atoi(fields[fieldSeq])
	if err != nil {
		return domain.Fragment{}, fmt.Errorf("parse seq: %w", err)
	}
	start, err := strconv.ParseFloat(fields[fieldStart], 64)
	if err != nil {
		return domain.Fragment{}, fmt.Errorf("parse start_time: %w", err)
	}
	end, err := strconv.ParseFloat(fields[fieldEnd], 64)
	if err != nil {
		return domain.Fragment{}, fmt.Errorf("parse end_time: %w", err)
	}

	return domain.Fragment{
		ID:            id,
		MeetingID:     fields[fieldMeetingID],
		SequenceIndex: seq,
		StartTime:     start,
		EndTime:       end,
		SpeakerRef:    fields[fieldSpeakerRef],
		Text:          fields[fieldText],
		Embedding:     bytesToVector(fields[fieldVector]),
		ModelVersion:  fields[fieldModelVersion],
	}, nil
}

func speakerFields(sp *domain.Speaker) map[string]string {
	return map[string]string{
		fieldOwnerID:      sp.OwnerID,
		fieldDisplayName:  sp.DisplayName,
		fieldRegistered:   strconv.FormatBool(sp.Registered),
		fieldSampleCount:  strconv.Itoa(sp.SampleCount),
		fieldVoiceprint:   vectorToBytes(sp.Voiceprint),
		fieldModelVersion: sp.ModelVersion,
	}
}

func speakerFromFields(id string, fields map[string]string) domain.Speaker {
	registered, _ := strconv.ParseBool(fields[fieldRegistered])
	samples, _ := strconv.Atoi(fields[fieldSampleCount])
	return domain.Speaker{
		ID:           id,
		OwnerID:      fields[fieldOwnerID],
		DisplayName:  fields[fieldDisplayName],
		Voiceprint:   bytesToVector(fields[fieldVoiceprint]),
		ModelVersion: fields[fieldModelVersion],
		Registered:   registered,
		SampleCount:  samples,
	}
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(s string) []float32 {
	if len(s) < 4 {
		return nil
	}
	out := make([]float32, len(s)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4])))
	}
	return out
}
