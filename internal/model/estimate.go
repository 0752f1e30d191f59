package model

// Structured estimate defaults applied to absent request fields.
const (
	DefaultMode     = "게이밍"
	DefaultBudget   = 150
	DefaultCPUBrand = "intel"
	DefaultGPUBrand = "nvidia"
	DefaultStorage  = "SSD만"
	DefaultMonitor  = "포함"
)

// EstimateRequest is the structured full-build request. Budget is in units
// of 10,000 KRW.
type EstimateRequest struct {
	Mode     string `json:"mode" validate:"required,max=50"`
	Budget   int    `json:"budget" validate:"gt=0,lte=100000"`
	CPUBrand string `json:"cpuBrand" validate:"required,max=50"`
	GPUBrand string `json:"gpuBrand" validate:"required,max=50"`
	Storage  string `json:"storage" validate:"required,max=50"`
	Monitor  string `json:"monitor" validate:"required,max=50"`
}

// WithDefaults fills empty fields with the documented defaults.
func (r EstimateRequest) WithDefaults() EstimateRequest {
	if r.Mode == "" {
		r.Mode = DefaultMode
	}
	if r.Budget == 0 {
		r.Budget = DefaultBudget
	}
	if r.CPUBrand == "" {
		r.CPUBrand = DefaultCPUBrand
	}
	if r.GPUBrand == "" {
		r.GPUBrand = DefaultGPUBrand
	}
	if r.Storage == "" {
		r.Storage = DefaultStorage
	}
	if r.Monitor == "" {
		r.Monitor = DefaultMonitor
	}
	return r
}

// Summary echoes the request back in the result.
func (r EstimateRequest) Summary() EstimateSummary {
	return EstimateSummary(r)
}

// EstimateSummary is the request echo attached to every EstimateResult.
type EstimateSummary struct {
	Mode     string `json:"mode"`
	Budget   int    `json:"budget"`
	CPUBrand string `json:"cpuBrand"`
	GPUBrand string `json:"gpuBrand"`
	Storage  string `json:"storage"`
	Monitor  string `json:"monitor"`
}

// LegacyEstimateRequest is the free-form budget/purpose request.
type LegacyEstimateRequest struct {
	Budget  string `json:"budget" validate:"max=100"`
	Purpose string `json:"purpose" validate:"max=200"`
}

// EstimateItem is one recommended component. Price is in units of 10,000 KRW.
type EstimateItem struct {
	Category string  `json:"cat"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
}

// EstimateResult is the structured estimate document.
type EstimateResult struct {
	Summary   EstimateSummary `json:"summary"`
	Items     []EstimateItem  `json:"items"`
	Total     float64         `json:"total"`
	Reasoning string          `json:"reasoning"`
	Note      string          `json:"note"`
}
