package assets

import _ "embed"

// ModelsData holds the raw YAML catalog of LLM providers and models.
//
//go:embed models.yaml
var ModelsData []byte
