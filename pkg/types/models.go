package types

// ModelInfo describes one model file visible under the models directory.
type ModelInfo struct {
	// Model name (filename without the .gguf extension).
	// example: Qwen3-4B-Instruct-2507-Q4_K_M
	Name string `json:"name" example:"Qwen3-4B-Instruct-2507-Q4_K_M"`
	// Path relative to the models directory.
	// example: chat/Qwen3-4B-Instruct-2507-Q4_K_M.gguf
	Path string `json:"path" example:"chat/Qwen3-4B-Instruct-2507-Q4_K_M.gguf"`
	// Human-readable file size.
	// example: 2.38 GB
	Size string `json:"size" example:"2.38 GB"`
	// Lifecycle status: "ready_to_use" or "downloading".
	// example: ready_to_use
	Status string `json:"status" example:"ready_to_use"`
}

// DownloadableModelInfo describes one entry of the curated download catalog.
type DownloadableModelInfo struct {
	// Model name (the repository id).
	// example: unsloth/Qwen3-4B-Instruct-2507-GGUF
	Name string `json:"name" example:"unsloth/Qwen3-4B-Instruct-2507-GGUF"`
	// Hugging Face repository id.
	// example: unsloth/Qwen3-4B-Instruct-2507-GGUF
	Repository string `json:"repository" example:"unsloth/Qwen3-4B-Instruct-2507-GGUF"`
	// Specific GGUF file downloaded from the repository.
	// example: Qwen3-4B-Instruct-2507-Q4_K_M.gguf
	Filename string `json:"filename" example:"Qwen3-4B-Instruct-2507-Q4_K_M.gguf"`
}

// LoadedModelInfo describes one model currently resident in memory.
type LoadedModelInfo struct {
	ModelName string `json:"model_name" example:"Qwen3-4B-Instruct-2507-Q4_K_M"`
	ModelPath string `json:"model_path" example:"/data/models/chat/Qwen3-4B-Instruct-2507-Q4_K_M.gguf"`
	// "chat" or "embedding".
	ModelType string `json:"model_type" example:"chat"`
	Loaded    bool   `json:"loaded" example:"true"`
}

// DownloadRequest is the body of POST /v1/models/download.
type DownloadRequest struct {
	// Hugging Face repository id; must be in the downloadable catalog.
	Repository string `json:"repository" example:"unsloth/Qwen3-4B-Instruct-2507-GGUF"`
}

// DownloadResponse acknowledges an accepted background download.
type DownloadResponse struct {
	Repository string `json:"repository"`
	Status     string `json:"status" example:"downloading"`
	Path       string `json:"path" example:"Qwen3-4B-Instruct-2507-Q4_K_M.gguf"`
	Message    string `json:"message" example:"Model download started in background"`
}

// LoadRequest is the body of POST /v1/models/load and /v1/models/unload.
type LoadRequest struct {
	Model string `json:"model" example:"Qwen3-4B-Instruct-2507-Q4_K_M"`
	// "chat" or "embedding".
	ModelType string `json:"model_type" example:"chat"`
}

// LoadResponse reports the outcome of a load or unload.
type LoadResponse struct {
	Model     string `json:"model"`
	ModelType string `json:"model_type"`
	// "loaded", "already_loaded" or "unloaded".
	Status    string `json:"status" example:"loaded"`
	Message   string `json:"message"`
	ModelPath string `json:"model_path,omitempty"`
}

// ErrorResponse is the JSON error payload for every endpoint.
// The chat UI displays the detail text verbatim.
type ErrorResponse struct {
	// Human-readable error description.
	// example: chat model 'missing' not found in models directory
	Detail string `json:"detail" example:"chat model 'missing' not found in models directory"`
}
