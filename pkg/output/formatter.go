package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	clientauthv1 "k8s.io/client-go/pkg/apis/clientauthentication/v1"

	"github.com/futuretea/kube-current-token/pkg/resolver"
)

// Output formats
const (
	FormatToken          = "token"
	FormatExecCredential = "exec-credential"
	FormatJSON           = "json"
	FormatYAML           = "yaml"
)

// Formatter renders a resolved credential in one of the supported formats
type Formatter struct{}

// NewFormatter creates a new formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// IsValidFormat checks if the given format is supported
func IsValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatToken, FormatExecCredential, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// Format formats the result in the specified format. The returned string always ends with a newline.
func (f *Formatter) Format(result *resolver.Result, format string) (string, error) {
	switch strings.ToLower(format) {
	case FormatExecCredential:
		return f.FormatExecCredential(result)
	case FormatJSON:
		return f.FormatJSON(result)
	case FormatYAML:
		return f.FormatYAML(result)
	default:
		return f.FormatToken(result), nil
	}
}

// FormatToken returns the bare token line
func (f *Formatter) FormatToken(result *resolver.Result) string {
	return result.Token + "\n"
}

// FormatExecCredential formats the token as a client.authentication.k8s.io/v1 ExecCredential
func (f *Formatter) FormatExecCredential(result *resolver.Result) (string, error) {
	cred := &clientauthv1.ExecCredential{
		TypeMeta: metav1.TypeMeta{
			APIVersion: clientauthv1.SchemeGroupVersion.String(),
			Kind:       "ExecCredential",
		},
		Status: &clientauthv1.ExecCredentialStatus{
			Token: result.Token,
		},
	}
	jsonBytes, err := json.Marshal(cred)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ExecCredential: %w", err)
	}
	return string(jsonBytes) + "\n", nil
}

// FormatJSON formats the result as JSON
func (f *Formatter) FormatJSON(result *resolver.Result) (string, error) {
	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(jsonBytes) + "\n", nil
}

// FormatYAML formats the result as YAML
func (f *Formatter) FormatYAML(result *resolver.Result) (string, error) {
	yamlBytes, err := yaml.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return string(yamlBytes), nil
}
