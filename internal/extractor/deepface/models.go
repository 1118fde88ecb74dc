package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"` // base64 encoded image
	Model            string `json:"model_name"`
	Detector         string `json:"detector_backend"`
	EnforceDetection bool   `json:"enforce_detection"`
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence *float64   `json:"face_confidence,omitempty"`
}

// FacialArea is in pixels. Eye positions are only reported by newer servers.
type FacialArea struct {
	X        int         `json:"x"`
	Y        int         `json:"y"`
	W        int         `json:"w"`
	H        int         `json:"h"`
	LeftEye  *[2]float64 `json:"left_eye,omitempty"`
	RightEye *[2]float64 `json:"right_eye,omitempty"`
}

// AnalyzeRequest for POST /analyze
type AnalyzeRequest struct {
	Img              string   `json:"img"`
	Actions          []string `json:"actions"` // ["age", "gender", "emotion", "race"]
	Detector         string   `json:"detector_backend"`
	EnforceDetection bool     `json:"enforce_detection"`
}

// AnalyzeResponse from POST /analyze
type AnalyzeResponse struct {
	Results []AnalyzeResult `json:"results"`
}

type AnalyzeResult struct {
	Region         FacialArea         `json:"region"`
	Emotion        map[string]float64 `json:"emotion"` // percentages, 0-100
	FaceConfidence *float64           `json:"face_confidence,omitempty"`
}
