package chi

// Wire types for the JSON API. Field names follow the snake_case convention
// of the public surface.

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error response codes.
const (
	codeBadRequest           = "bad_request"
	codeValidationFailed     = "validation_failed"
	codeFragmentNotFound     = "fragment_not_found"
	codeSpeakerNotFound      = "speaker_not_found"
	codeDimensionMismatch    = "dimension_mismatch"
	codeModelVersionMismatch = "model_version_mismatch"
	codeSpeakerNotRegistered = "speaker_not_registered"
	codeStoreUnavailable     = "store_unavailable"
	codeProviderError        = "provider_error"
	codeInternalError        = "internal_error"
)

type fragmentRequest struct {
	MeetingID     string    `json:"meeting_id"`
	SequenceIndex int       `json:"sequence_index"`
	StartTime     float64   `json:"start_time"`
	EndTime       float64   `json:"end_time"`
	SpeakerRef    string    `json:"speaker_ref,omitempty"`
	Text          string    `json:"text"`
	Embedding     []float32 `json:"embedding,omitempty"`
	ModelVersion  string    `json:"model_version,omitempty"`
}

type fragmentResponse struct {
	ID            string    `json:"id"`
	MeetingID     string    `json:"meeting_id"`
	SequenceIndex int       `json:"sequence_index"`
	StartTime     float64   `json:"start_time"`
	EndTime       float64   `json:"end_time"`
	SpeakerRef    string    `json:"speaker_ref,omitempty"`
	Text          string    `json:"text"`
	ModelVersion  string    `json:"model_version"`
}

type assignSpeakerRequest struct {
	SpeakerID string `json:"speaker_id"`
}

type searchRequest struct {
	Query     string    `json:"query,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	MeetingID string    `json:"meeting_id,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Weights   *struct {
		Lexical  float64 `json:"lexical"`
		Semantic float64 `json:"semantic"`
	} `json:"weights,omitempty"`
}

type searchResultItem struct {
	FragmentID    string  `json:"fragment_id"`
	MeetingID     string  `json:"meeting_id"`
	SequenceIndex int     `json:"sequence_index"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	SpeakerRef    string  `json:"speaker_ref,omitempty"`
	Text          string  `json:"text"`
	LexicalScore  float64 `json:"lexical_score"`
	SemanticScore float64 `json:"semantic_score"`
	CombinedScore float64 `json:"combined_score"`
}

type searchResponse struct {
	Results []searchResultItem `json:"results"`
	Total   int                `json:"total"`
}

type matchRequest struct {
	Voiceprint   []float32 `json:"voiceprint"`
	ModelVersion string    `json:"model_version,omitempty"`
	OwnerID      string    `json:"owner_id,omitempty"`
	Threshold    float64   `json:"threshold,omitempty"`
}

type matchResponse struct {
	Matched     bool   `json:"matched"`
	SpeakerID   string `json:"speaker_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Confidence  int    `json:"confidence"`
}

type registerSpeakerRequest struct {
	OwnerID      string    `json:"owner_id"`
	DisplayName  string    `json:"display_name"`
	Voiceprint   []float32 `json:"voiceprint,omitempty"`
	ModelVersion string    `json:"model_version,omitempty"`
}

type speakerResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	DisplayName string `json:"display_name"`
	Registered  bool   `json:"registered"`
	SampleCount int    `json:"sample_count"`
}

type confidenceRequest struct {
	Voiceprint   []float32 `json:"voiceprint"`
	ModelVersion string    `json:"model_version,omitempty"`
}

type confidenceResponse struct {
	SpeakerID  string `json:"speaker_id"`
	Confidence int    `json:"confidence"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
