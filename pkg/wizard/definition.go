package wizard

import (
	"fmt"
	"os"

	"github.com/grovetools/seqrkit/errors"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Condition decides whether a field is shown.
type Condition struct {
	Field    string `yaml:"field" validate:"required"`
	Equals   any    `yaml:"equals,omitempty"`
	OneOf    []any  `yaml:"one_of,omitempty"`
	NotEmpty bool   `yaml:"not_empty,omitempty"`
}

// Match reports whether values satisfy the condition. Values are compared by
// their printed form so YAML and JSON numbers agree.
func (c Condition) Match(values Values) bool {
	value, present := values[c.Field]
	switch {
	case c.NotEmpty:
		return present && value != nil && fmt.Sprint(value) != ""
	case len(c.OneOf) > 0:
		for _, option := range c.OneOf {
			if fmt.Sprint(option) == fmt.Sprint(value) {
				return true
			}
		}
		return false
	default:
		return present && fmt.Sprint(c.Equals) == fmt.Sprint(value)
	}
}

// FieldDefinition is the YAML form of a Field.
type FieldDefinition struct {
	Name    string     `yaml:"name" validate:"required"`
	Label   string     `yaml:"label,omitempty"`
	Rules   string     `yaml:"rules,omitempty"`
	Default any        `yaml:"default,omitempty"`
	ShowIf  *Condition `yaml:"show_if,omitempty"`
}

// PageDefinition is the YAML form of a Page.
type PageDefinition struct {
	Name          string `yaml:"name" validate:"required"`
	URL           string `yaml:"url" validate:"required"`
	MergeResponse bool   `yaml:"merge_response,omitempty"`
	// ResponseKey takes merged values from one object in the response body.
	ResponseKey string            `yaml:"response_key,omitempty"`
	Fields      []FieldDefinition `yaml:"fields,omitempty" validate:"dive"`
}

// Definition describes a wizard in YAML.
//
//	name: upload
//	pages:
//	  - name: files
//	    url: /api/upload/validate
//	    merge_response: true
//	    fields:
//	      - name: filePath
//	        rules: required,bucketpath
type Definition struct {
	Name  string           `yaml:"name" validate:"required"`
	PageDefs []PageDefinition `yaml:"pages" validate:"required,min=1,dive"`
}

// LoadDefinition reads a wizard definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read wizard definition").
			WithDetail("path", path)
	}
	return ParseDefinition(data)
}

// ParseDefinition parses and checks a YAML wizard definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to parse wizard definition")
	}
	if err := fieldValidate.Struct(def); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid wizard definition")
	}
	for _, page := range def.PageDefs {
		for _, field := range page.Fields {
			if err := checkRuleSyntax(field.Rules); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid field rules").
					WithDetail("page", page.Name).
					WithDetail("field", field.Name)
			}
		}
	}
	return &def, nil
}

// checkRuleSyntax reports rule strings the validator cannot run.
func checkRuleSyntax(rules string) (err error) {
	if rules == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	_ = fieldValidate.Var(nil, rules)
	return nil
}

// Pages builds the runtime pages for the definition.
func (d *Definition) Pages() []Page {
	pages := make([]Page, 0, len(d.PageDefs))
	for _, pd := range d.PageDefs {
		page := Page{
			Name:          pd.Name,
			URL:           pd.URL,
			MergeResponse: pd.MergeResponse,
		}
		if key := pd.ResponseKey; key != "" {
			page.ResponseValues = func(body map[string]any) Values {
				nested, _ := body[key].(map[string]any)
				return Values(nested)
			}
		}
		for _, fd := range pd.Fields {
			field := Field{
				Name:    fd.Name,
				Label:   fd.Label,
				Rules:   fd.Rules,
				Default: fd.Default,
			}
			if fd.ShowIf != nil {
				cond := *fd.ShowIf
				field.ShowIf = cond.Match
			}
			page.Fields = append(page.Fields, field)
		}
		pages = append(pages, page)
	}
	return pages
}

// Decode copies accumulated values into a typed struct using its json tags.
func Decode(values Values, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(values)); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to decode wizard values")
	}
	return nil
}
