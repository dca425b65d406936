package dto

// Endpoint is the UI-facing shape of one proxied upstream endpoint, resolved
// for a plan tag.
type Endpoint struct {
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	Methods    []string    `json:"methods"`
	Summary    string      `json:"summary"`
	Parameters []Parameter `json:"parameters"`
	Headers    []Header    `json:"headers"`
}

// Parameter carries the catalog's declared parameter type decoded once at the
// boundary: either a closed-choice enum with explicit options, or a bare
// scalar type name.
type Parameter struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Default  string   `json:"default"`
	Required bool     `json:"required"`
}

// Header is a request header the UI must send with every call. The
// Authorization header ships with an empty value; the caller fills it in
// per call and the server never caches it.
type Header struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Required bool   `json:"required"`
}
