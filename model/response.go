package model

import "encoding/json"

// VirtualTryOnResponse represents the response structure from Google's Virtual Try-On API
type VirtualTryOnResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Prediction represents a single prediction result
type Prediction struct {
	MimeType           string `json:"mimeType"`
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	// Storage URI指定時に返される保存先情報
	StorageUri string `json:"storageUri,omitempty"`
	// その他のメタデータフィールド
	SafetyAttributes map[string]interface{} `json:"safetyAttributes,omitempty"`
}

// RunPodJobRequest is the submit payload for a serverless try-on endpoint.
type RunPodJobRequest struct {
	Input RunPodJobInput `json:"input"`
}

// RunPodJobInput carries the image references the worker consumes.
type RunPodJobInput struct {
	ModelImage   string `json:"model_image"`
	GarmentImage string `json:"garment_image"`
	Category     string `json:"category,omitempty"`
}

// RunPodJobResponse is returned by both the submit and status endpoints.
type RunPodJobResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RunPodJobOutput is the worker output once a job reaches COMPLETED.
type RunPodJobOutput struct {
	Image    string `json:"image,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}
