package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`               // data URI of a JPEG frame
	Model            string `json:"model_name"`        // "Facenet512", "VGG-Face", etc
	Detector         string `json:"detector_backend"`  // "retinaface", "yunet", etc
	EnforceDetection bool   `json:"enforce_detection"` // false: no faces is an empty result, not an error
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence *float64   `json:"face_confidence,omitempty"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}
