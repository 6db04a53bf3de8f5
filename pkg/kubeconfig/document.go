package kubeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the subset of a kubeconfig file needed to find the active user's token.
type Document struct {
	CurrentContext string      `yaml:"current-context"`
	Users          []UserEntry `yaml:"users"`
}

// UserEntry is a named entry of the users list
type UserEntry struct {
	Name string   `yaml:"name"`
	User UserInfo `yaml:"user"`
}

// UserInfo holds the authentication material of a user entry. Token is nil
// when the key is absent; an explicit empty string is a valid token.
type UserInfo struct {
	Token     *string `yaml:"token,omitempty"`
	TokenFile string  `yaml:"tokenFile,omitempty"`
}

// errMultipleDocuments is reported for a file holding more than one YAML document.
var errMultipleDocuments = errors.New("expected a single document in the stream, but found another document")

// ParseError reports a kubeconfig that is not valid YAML or does not fit the expected shape.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes kubeconfig content. An empty input yields an empty Document.
// The content must hold exactly one YAML document.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		return nil, &ParseError{Err: err}
	}

	var extra yaml.Node
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return doc, nil
	case err != nil:
		return nil, &ParseError{Err: err}
	default:
		return nil, &ParseError{Err: errMultipleDocuments}
	}
}

// LoadFile reads and parses the kubeconfig at path. Read failures are returned
// as-is; decoding failures are returned as *ParseError.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// FindUser returns the first entry, in document order, whose name matches.
func (d *Document) FindUser(name string) (*UserEntry, bool) {
	for i := range d.Users {
		if d.Users[i].Name == name {
			return &d.Users[i], true
		}
	}
	return nil, false
}
