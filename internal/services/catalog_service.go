package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/apigate/apigate-backend/internal/config"
	"github.com/apigate/apigate-backend/internal/dto"
)

// CatalogService resolves which upstream endpoints a plan tag is entitled to.
// The catalog service owns the data; nothing is cached beyond request scope.
type CatalogService struct {
	baseURL string
	client  *http.Client
}

func NewCatalogService(cfg *config.Config) *CatalogService {
	return &CatalogService{
		baseURL: cfg.CatalogServiceURL,
		client:  &http.Client{Timeout: cfg.UpstreamTimeout},
	}
}

type rawParameter struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Default  string `json:"default"`
	Required bool   `json:"required"`
}

type rawEndpoint struct {
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	Methods    []string       `json:"methods"`
	Summary    string         `json:"summary"`
	Parameters []rawParameter `json:"parameters"`
}

// ResolveEndpoints returns the endpoint catalog visible to a plan tag. A tag
// the catalog does not know yields an empty list, not an error: a freshly
// created plan legitimately has no endpoints configured yet.
func (s *CatalogService) ResolveEndpoints(planTag string) ([]dto.Endpoint, error) {
	httpResp, err := s.client.Get(s.baseURL + "/all_endpoints_by_tag")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: catalog status %d", ErrUpstreamUnavailable, httpResp.StatusCode)
	}

	var byTag map[string][]rawEndpoint
	if err := json.NewDecoder(httpResp.Body).Decode(&byTag); err != nil {
		return nil, fmt.Errorf("%w: invalid catalog response: %v", ErrUpstreamUnavailable, err)
	}

	entries, ok := byTag[strings.ToLower(planTag)]
	if !ok {
		return []dto.Endpoint{}, nil
	}

	endpoints := make([]dto.Endpoint, 0, len(entries))
	for _, e := range entries {
		endpoints = append(endpoints, transformEndpoint(e))
	}
	return endpoints, nil
}

func transformEndpoint(e rawEndpoint) dto.Endpoint {
	params := make([]dto.Parameter, 0, len(e.Parameters))
	for _, p := range e.Parameters {
		typ, options := classifyParamType(p.Type)
		params = append(params, dto.Parameter{
			Name:     p.Name,
			Type:     typ,
			Options:  options,
			Default:  p.Default,
			Required: p.Required,
		})
	}

	return dto.Endpoint{
		Name:       e.Name,
		Path:       e.Path,
		Methods:    e.Methods,
		Summary:    e.Summary,
		Parameters: params,
		// The Authorization value is supplied by the caller on every
		// execution; it is never defaulted or cached here.
		Headers: []dto.Header{
			{Name: "accept", Value: "application/json", Required: true},
			{Name: "Authorization", Value: "", Required: true},
		},
	}
}

var (
	literalTypeRe = regexp.MustCompile(`^Literal\[(.+)\]$`)
	enumTypeRe    = regexp.MustCompile(`^enum\((.+)\)$`)
	wrapperTypeRe = regexp.MustCompile(`^(?:Optional|List|Set|Annotated)\[(.+?)(?:,.*)?\]$`)
	unionTypeRe   = regexp.MustCompile(`^Union\[(.+)\]$`)
)

// classifyParamType decodes the catalog's duck-typed parameter type strings
// once at the boundary. Closed-choice forms become an explicit enum with
// options; anything else is stripped of wrapper syntax down to a bare
// semantic type name.
func classifyParamType(declared string) (string, []string) {
	declared = strings.TrimSpace(declared)

	if m := literalTypeRe.FindStringSubmatch(declared); m != nil {
		return "enum", splitOptions(m[1], ",")
	}
	if m := enumTypeRe.FindStringSubmatch(declared); m != nil {
		return "enum", splitOptions(m[1], "|")
	}

	for {
		if m := wrapperTypeRe.FindStringSubmatch(declared); m != nil {
			declared = strings.TrimSpace(m[1])
			continue
		}
		if m := unionTypeRe.FindStringSubmatch(declared); m != nil {
			// Union[X, None] and friends: keep the first non-None member.
			for _, part := range strings.Split(m[1], ",") {
				part = strings.TrimSpace(part)
				if part != "None" && part != "" {
					declared = part
					break
				}
			}
			continue
		}
		break
	}

	switch strings.ToLower(declared) {
	case "str", "string":
		return "string", nil
	case "int", "integer":
		return "int", nil
	case "float", "double", "number":
		return "float", nil
	case "bool", "boolean":
		return "bool", nil
	default:
		return strings.ToLower(declared), nil
	}
}

func splitOptions(raw, sep string) []string {
	parts := strings.Split(raw, sep)
	options := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `'"`)
		if p != "" {
			options = append(options, p)
		}
	}
	return options
}
