// Package schema 负责从 Go 文档结构体生成 JSON Schema，并在解码前校验 YAML 文档。
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const baseID = "https://github.com/jimyag/hostplay/schemas/"

// Document 描述一种可校验的文档
type Document struct {
	Name        string // 资源名，如 "playbook"
	Title       string
	Description string
	Type        any // 用于反射的文档结构体指针
}

// Generate 通过 invopop/jsonschema 反射生成 JSON Schema
func Generate(doc Document) ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(doc.Type)
	s.ID = jsonschema.ID(baseID + doc.Name + ".json")
	s.Title = doc.Title
	s.Description = doc.Description

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", doc.Name, err)
	}
	return data, nil
}

// Issue 单条校验问题
type Issue struct {
	Path    string
	Message string
}

// ValidationError 文档不符合 schema
type ValidationError struct {
	Document string
	Issues   []Issue
	Detail   string
}

func (e *ValidationError) Error() string {
	paths := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		paths = append(paths, "/"+issue.Path)
	}
	sort.Strings(paths)
	return fmt.Sprintf("%s document is invalid at %s: %s", e.Document, strings.Join(paths, ", "), e.Detail)
}

// ValidateYAML 用文档的 schema 校验 YAML 数据
func ValidateYAML(doc Document, data []byte) error {
	schemaJSON, err := Generate(doc)
	if err != nil {
		return err
	}

	schemaDoc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("unmarshal %s schema: %w", doc.Name, err)
	}

	resource := doc.Name + ".json"
	c := sjsonschema.NewCompiler()
	if err := c.AddResource(resource, schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile(resource)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	// YAML -> 通用值 -> JSON，保证数字等类型与 JSON Schema 的语义一致
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode %s: %w", doc.Name, err)
	}
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("convert %s to json: %w", doc.Name, err)
	}
	instance, err := sjsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return fmt.Errorf("convert %s to json: %w", doc.Name, err)
	}

	if err := sch.Validate(instance); err != nil {
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			return err
		}
		verr := &ValidationError{Document: doc.Name, Detail: oneLine(ve.Error())}
		for _, cause := range flattenValidationErrors(ve) {
			verr.Issues = append(verr.Issues, Issue{
				Path:    strings.Join(cause.InstanceLocation, "/"),
				Message: fmt.Sprintf("%v", cause.ErrorKind),
			})
		}
		return verr
	}
	return nil
}

// flattenValidationErrors 递归收集所有叶子错误
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

func oneLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, " ")
}
